package domain

import (
	"context"
	"time"
)

// InteractionEvent is either a ButtonActivated or a FormSubmitted event.
// Each event corresponds to one pending platform acknowledgement.
type InteractionEvent interface {
	Acknowledgement() *Ack
	isInteractionEvent()
}

// ButtonActivated is reported when a user clicks a button.
type ButtonActivated struct {
	ControlID string
	UserID    string
	Ack       *Ack
}

// FormSubmitted is reported when a user submits a form.
// Values follow the order of the form's inputs.
type FormSubmitted struct {
	FormID string
	Values []string
	UserID string
	Ack    *Ack
}

func (e ButtonActivated) Acknowledgement() *Ack { return e.Ack }
func (e FormSubmitted) Acknowledgement() *Ack   { return e.Ack }

func (ButtonActivated) isInteractionEvent() {}
func (FormSubmitted) isInteractionEvent()   {}

// SessionEvent describes a lifecycle step of a session.
type SessionEvent struct {
	Timestamp time.Time
	Session   SessionInfo
	Phase     Phase
	Field     *Field        // Set on OnFieldAppended
	Outcome   Outcome       // Set on OnSessionEnd
	Duration  time.Duration // Set on OnSessionEnd
	Err       error         // Set on OnSessionEnd when the session failed
}

// LifecycleHooks defines callbacks for session observability.
type LifecycleHooks struct {
	OnSessionStart  func(context.Context, *SessionEvent)
	OnPhaseEnter    func(context.Context, *SessionEvent)
	OnFieldAppended func(context.Context, *SessionEvent)
	OnSessionEnd    func(context.Context, *SessionEvent)
}

// MergeHooks fans every callback out to all given hook sets, in order.
func MergeHooks(hooks ...LifecycleHooks) LifecycleHooks {
	fan := func(pick func(LifecycleHooks) func(context.Context, *SessionEvent)) func(context.Context, *SessionEvent) {
		var fns []func(context.Context, *SessionEvent)
		for _, h := range hooks {
			if fn := pick(h); fn != nil {
				fns = append(fns, fn)
			}
		}
		if len(fns) == 0 {
			return nil
		}
		return func(ctx context.Context, e *SessionEvent) {
			for _, fn := range fns {
				fn(ctx, e)
			}
		}
	}
	return LifecycleHooks{
		OnSessionStart:  fan(func(h LifecycleHooks) func(context.Context, *SessionEvent) { return h.OnSessionStart }),
		OnPhaseEnter:    fan(func(h LifecycleHooks) func(context.Context, *SessionEvent) { return h.OnPhaseEnter }),
		OnFieldAppended: fan(func(h LifecycleHooks) func(context.Context, *SessionEvent) { return h.OnFieldAppended }),
		OnSessionEnd:    fan(func(h LifecycleHooks) func(context.Context, *SessionEvent) { return h.OnSessionEnd }),
	}
}
