package session

import (
	"context"
	"time"

	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/ports"
)

// Multiplexer merges the two event streams of a subscription into a single
// sequential feed. It never polls: every read blocks in one select.
type Multiplexer struct {
	buttons <-chan domain.ButtonActivated
	forms   <-chan domain.FormSubmitted
}

// NewMultiplexer reads from the streams of sub.
func NewMultiplexer(sub ports.Subscription) *Multiplexer {
	return &Multiplexer{
		buttons: sub.Buttons(),
		forms:   sub.Forms(),
	}
}

// NextButton blocks until a button event arrives.
func (m *Multiplexer) NextButton(ctx context.Context) (domain.ButtonActivated, error) {
	select {
	case <-ctx.Done():
		return domain.ButtonActivated{}, ctx.Err()
	case ev, ok := <-m.buttons:
		if !ok {
			return domain.ButtonActivated{}, domain.ErrSubscriptionClosed
		}
		return ev, nil
	}
}

// PendingButtons returns the button events already queued, without blocking.
func (m *Multiplexer) PendingButtons() []domain.ButtonActivated {
	var out []domain.ButtonActivated
	for {
		select {
		case ev, ok := <-m.buttons:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

// AwaitForm blocks until a form submission arrives or timeout elapses, in which
// case it returns domain.ErrTitleTimeout. A non-positive timeout waits without bound.
// Cancellation of ctx itself is reported as ctx.Err(), not as a timeout.
func (m *Multiplexer) AwaitForm(ctx context.Context, timeout time.Duration) (domain.FormSubmitted, error) {
	waitCtx, cancel := withOptionalTimeout(ctx, timeout)
	defer cancel()

	select {
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return domain.FormSubmitted{}, ctx.Err()
		}
		return domain.FormSubmitted{}, domain.ErrTitleTimeout
	case ev, ok := <-m.forms:
		if !ok {
			return domain.FormSubmitted{}, domain.ErrSubscriptionClosed
		}
		return ev, nil
	}
}

// Next blocks until either stream produces an event. When both are ready the
// choice is uniformly random, so neither stream can starve the other.
func (m *Multiplexer) Next(ctx context.Context) (domain.InteractionEvent, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case ev, ok := <-m.buttons:
		if !ok {
			return nil, domain.ErrSubscriptionClosed
		}
		return ev, nil
	case ev, ok := <-m.forms:
		if !ok {
			return nil, domain.ErrSubscriptionClosed
		}
		return ev, nil
	}
}

func withOptionalTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(parent, timeout)
	}
	return parent, func() {}
}
