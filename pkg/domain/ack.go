package domain

import (
	"context"
	"sync/atomic"
)

// Responder resolves a single pending platform interaction.
// Implementations are provided by gateway adapters.
type Responder interface {
	// ShowForm answers the interaction by opening a form pop-up.
	ShowForm(ctx context.Context, form Form) error
	// Defer acknowledges the interaction without changing any UI.
	Defer(ctx context.Context) error
	// UpdateMessage answers the interaction by replacing the originating message.
	UpdateMessage(ctx context.Context, view MessageView) error
}

// Ack is the one-shot acknowledgement carried by an InteractionEvent.
// The first call to any of its methods consumes it; later calls fail with
// ErrAlreadyAcknowledged without reaching the platform.
type Ack struct {
	responder Responder
	used      atomic.Bool
}

// NewAck wraps a Responder into a one-shot acknowledgement.
func NewAck(r Responder) *Ack {
	return &Ack{responder: r}
}

func (a *Ack) claim() error {
	if a == nil || a.responder == nil {
		return ErrNoResponder
	}
	if !a.used.CompareAndSwap(false, true) {
		return ErrAlreadyAcknowledged
	}
	return nil
}

// ShowForm consumes the ack by opening a form.
func (a *Ack) ShowForm(ctx context.Context, form Form) error {
	if err := a.claim(); err != nil {
		return err
	}
	return a.responder.ShowForm(ctx, form)
}

// Defer consumes the ack without UI change.
func (a *Ack) Defer(ctx context.Context) error {
	if err := a.claim(); err != nil {
		return err
	}
	return a.responder.Defer(ctx)
}

// UpdateMessage consumes the ack by re-rendering the originating message.
func (a *Ack) UpdateMessage(ctx context.Context, view MessageView) error {
	if err := a.claim(); err != nil {
		return err
	}
	return a.responder.UpdateMessage(ctx, view)
}

// Resolved reports whether the ack has been consumed.
func (a *Ack) Resolved() bool {
	return a != nil && a.used.Load()
}
