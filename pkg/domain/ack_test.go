package domain

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type countingResponder struct {
	mu      sync.Mutex
	forms   []Form
	defers  int
	updates []MessageView
}

func (r *countingResponder) ShowForm(ctx context.Context, form Form) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forms = append(r.forms, form)
	return nil
}

func (r *countingResponder) Defer(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defers++
	return nil
}

func (r *countingResponder) UpdateMessage(ctx context.Context, view MessageView) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, view)
	return nil
}

func (r *countingResponder) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.forms) + r.defers + len(r.updates)
}

func TestAck_ExactlyOnce(t *testing.T) {
	ctx := context.Background()
	resp := &countingResponder{}
	ack := NewAck(resp)

	if ack.Resolved() {
		t.Fatal("new ack must not be resolved")
	}
	if err := ack.Defer(ctx); err != nil {
		t.Fatalf("first use failed: %v", err)
	}
	if !ack.Resolved() {
		t.Error("ack should be resolved after use")
	}

	if err := ack.ShowForm(ctx, Form{ID: FormField}); !errors.Is(err, ErrAlreadyAcknowledged) {
		t.Errorf("expected ErrAlreadyAcknowledged, got %v", err)
	}
	if err := ack.UpdateMessage(ctx, MessageView{}); !errors.Is(err, ErrAlreadyAcknowledged) {
		t.Errorf("expected ErrAlreadyAcknowledged, got %v", err)
	}
	if resp.calls() != 1 {
		t.Errorf("expected exactly one platform call, got %d", resp.calls())
	}
}

func TestAck_ConcurrentUse(t *testing.T) {
	ctx := context.Background()
	resp := &countingResponder{}
	ack := NewAck(resp)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = ack.Defer(ctx)
		}()
	}
	wg.Wait()

	if resp.calls() != 1 {
		t.Errorf("expected exactly one platform call, got %d", resp.calls())
	}
}

func TestAck_NilResponder(t *testing.T) {
	var ack *Ack
	if err := ack.Defer(context.Background()); !errors.Is(err, ErrNoResponder) {
		t.Errorf("expected ErrNoResponder, got %v", err)
	}
	if ack.Resolved() {
		t.Error("nil ack must not report resolved")
	}
}

func TestProtocolViolationError(t *testing.T) {
	var err error = &ProtocolViolationError{Phase: PhaseEditing, Kind: "control", Got: "bogus"}
	if !errors.Is(err, ErrProtocolViolation) {
		t.Error("expected error to wrap ErrProtocolViolation")
	}
	var pv *ProtocolViolationError
	if !errors.As(err, &pv) || pv.Got != "bogus" {
		t.Errorf("expected errors.As to expose details, got %+v", pv)
	}
}

func TestMergeHooks(t *testing.T) {
	var order []string
	a := LifecycleHooks{
		OnSessionStart: func(ctx context.Context, e *SessionEvent) { order = append(order, "a-start") },
	}
	b := LifecycleHooks{
		OnSessionStart: func(ctx context.Context, e *SessionEvent) { order = append(order, "b-start") },
		OnSessionEnd:   func(ctx context.Context, e *SessionEvent) { order = append(order, "b-end") },
	}

	merged := MergeHooks(a, b)
	if merged.OnPhaseEnter != nil {
		t.Error("expected nil callback when no hook set defines it")
	}

	merged.OnSessionStart(context.Background(), &SessionEvent{})
	merged.OnSessionEnd(context.Background(), &SessionEvent{})

	want := []string{"a-start", "b-start", "b-end"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("expected %v, got %v", want, order)
			break
		}
	}
}
