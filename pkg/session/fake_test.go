package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/ports"
)

// op is one observable side effect recorded by the fakes, in order.
type op struct {
	Kind    string // send, edit, reply, form, defer, update
	View    domain.MessageView
	Form    domain.Form
	Content string
}

type recorder struct {
	mu  sync.Mutex
	ops []op
}

func (r *recorder) add(o op) {
	r.mu.Lock()
	r.ops = append(r.ops, o)
	r.mu.Unlock()
}

func (r *recorder) all() []op {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]op, len(r.ops))
	copy(out, r.ops)
	return out
}

func (r *recorder) kinds() []string {
	var out []string
	for _, o := range r.all() {
		out = append(out, o.Kind)
	}
	return out
}

type fakeSub struct {
	buttons chan domain.ButtonActivated
	forms   chan domain.FormSubmitted
	once    sync.Once
	closed  chan struct{}
}

func newFakeSub() *fakeSub {
	return &fakeSub{
		buttons: make(chan domain.ButtonActivated, 16),
		forms:   make(chan domain.FormSubmitted, 16),
		closed:  make(chan struct{}),
	}
}

func (s *fakeSub) Buttons() <-chan domain.ButtonActivated { return s.buttons }
func (s *fakeSub) Forms() <-chan domain.FormSubmitted     { return s.forms }
func (s *fakeSub) Close()                                 { s.once.Do(func() { close(s.closed) }) }

type fakeGateway struct {
	rec *recorder

	mu       sync.Mutex
	next     int
	subs     map[string]*fakeSub
	ready    chan domain.MessageRef
	queued   []domain.ButtonActivated // Delivered before Subscribe returns
	sendErr  error
	editErr  error
	replyErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		rec:   &recorder{},
		subs:  make(map[string]*fakeSub),
		ready: make(chan domain.MessageRef, 16),
	}
}

func (g *fakeGateway) Send(_ context.Context, channelID string, view domain.MessageView) (domain.MessageRef, error) {
	if g.sendErr != nil {
		return domain.MessageRef{}, g.sendErr
	}
	g.mu.Lock()
	g.next++
	ref := domain.MessageRef{ChannelID: channelID, MessageID: fmt.Sprintf("msg-%d", g.next)}
	g.mu.Unlock()
	g.rec.add(op{Kind: "send", View: view})
	return ref, nil
}

func (g *fakeGateway) Edit(_ context.Context, _ domain.MessageRef, view domain.MessageView) error {
	if g.editErr != nil {
		return g.editErr
	}
	g.rec.add(op{Kind: "edit", View: view})
	return nil
}

func (g *fakeGateway) Reply(_ context.Context, _ domain.MessageRef, content string) error {
	if g.replyErr != nil {
		return g.replyErr
	}
	g.rec.add(op{Kind: "reply", Content: content})
	return nil
}

func (g *fakeGateway) Subscribe(ref domain.MessageRef) ports.Subscription {
	sub := newFakeSub()
	g.mu.Lock()
	g.subs[ref.MessageID] = sub
	for _, b := range g.queued {
		sub.buttons <- b
	}
	g.mu.Unlock()
	g.ready <- ref
	return sub
}

func (g *fakeGateway) sub(ref domain.MessageRef) *fakeSub {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.subs[ref.MessageID]
}

// fakeResponder records acknowledgements into the gateway's recorder so the
// relative order of acks and message edits can be asserted.
type fakeResponder struct {
	rec *recorder
	err error
}

func (r *fakeResponder) ShowForm(_ context.Context, form domain.Form) error {
	r.rec.add(op{Kind: "form", Form: form})
	return r.err
}

func (r *fakeResponder) Defer(context.Context) error {
	r.rec.add(op{Kind: "defer"})
	return r.err
}

func (r *fakeResponder) UpdateMessage(_ context.Context, view domain.MessageView) error {
	r.rec.add(op{Kind: "update", View: view})
	return r.err
}

func (g *fakeGateway) button(id string) domain.ButtonActivated {
	return domain.ButtonActivated{ControlID: id, UserID: "user-1", Ack: domain.NewAck(&fakeResponder{rec: g.rec})}
}

func (g *fakeGateway) form(id string, values ...string) domain.FormSubmitted {
	return domain.FormSubmitted{FormID: id, Values: values, UserID: "user-1", Ack: domain.NewAck(&fakeResponder{rec: g.rec})}
}

func trigger(id string) domain.Trigger {
	return domain.Trigger{MessageID: id, ChannelID: "chan-1", AuthorID: "author-1", Content: domain.CommandPhrase}
}
