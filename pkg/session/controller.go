package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/scribe/internal/logging"
	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/ports"
	"github.com/google/uuid"
)

// DefaultTitleTimeout bounds the wait for the title form.
const DefaultTitleTimeout = 30 * time.Second

// Session is one run of the dialogue, scoped to one triggering message.
// The Document is touched only by the goroutine running the Controller;
// Info may be called from any goroutine.
type Session struct {
	ID      string
	Trigger domain.Trigger

	doc *domain.Document

	mu        sync.RWMutex
	ref       domain.MessageRef
	phase     domain.Phase
	fields    int
	startedAt time.Time
}

// Info returns a snapshot of the session's observable state.
func (s *Session) Info() domain.SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.SessionInfo{
		ID:        s.ID,
		ChannelID: s.Trigger.ChannelID,
		MessageID: s.ref.MessageID,
		AuthorID:  s.Trigger.AuthorID,
		Phase:     s.phase,
		Fields:    s.fields,
		StartedAt: s.startedAt,
	}
}

// Phase returns the current phase.
func (s *Session) Phase() domain.Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Ref returns the identity of the session's message once it has been sent.
func (s *Session) Ref() domain.MessageRef {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ref
}

func (s *Session) setPhase(p domain.Phase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
}

func (s *Session) setRef(ref domain.MessageRef) {
	s.mu.Lock()
	s.ref = ref
	s.mu.Unlock()
}

func (s *Session) setFields(n int) {
	s.mu.Lock()
	s.fields = n
	s.mu.Unlock()
}

// Result summarizes a finished session.
type Result struct {
	SessionID  string
	Ref        domain.MessageRef
	Outcome    domain.Outcome
	Embed      domain.Embed
	DocumentID string // Set when the document was archived
}

// Controller drives sessions through their state machine.
// A Controller is stateless between sessions and safe for concurrent use.
type Controller struct {
	gateway      ports.Gateway
	archive      ports.DocumentStore
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	titleTimeout time.Duration
	now          func() time.Time
	newID        func() string
}

// Option defines a functional option for configuring the Controller.
type Option func(*Controller)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Controller) {
		c.hooks = hooks
	}
}

// WithArchive stores every completed document.
func WithArchive(store ports.DocumentStore) Option {
	return func(c *Controller) {
		c.archive = store
	}
}

// WithTitleTimeout overrides DefaultTitleTimeout.
func WithTitleTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.titleTimeout = d
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithIDGenerator overrides the session and document ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(c *Controller) {
		c.newID = fn
	}
}

// NewController creates a Controller bound to a gateway.
func NewController(gateway ports.Gateway, opts ...Option) *Controller {
	c := &Controller{
		gateway:      gateway,
		logger:       logging.NewNop(),
		titleTimeout: DefaultTitleTimeout,
		now:          time.Now,
		newID:        func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.NewNop()
	}
	return c
}

// NewSession creates a session for a trigger in its initial phase.
func (c *Controller) NewSession(trigger domain.Trigger) *Session {
	return &Session{
		ID:        c.newID(),
		Trigger:   trigger,
		doc:       domain.NewDocument(),
		phase:     domain.PhaseAwaitingTitleButton,
		startedAt: c.now(),
	}
}

// Run drives s until it terminates. A title timeout is a normal outcome and
// returns a nil error; gateway failures, protocol violations and cancellation
// abort the session and are returned.
func (c *Controller) Run(ctx context.Context, s *Session) (*Result, error) {
	logger := c.logger.With("session_id", s.ID, "channel_id", s.Trigger.ChannelID)
	logger.Debug("session started", "trigger_id", s.Trigger.MessageID)

	c.fire(ctx, c.hooks.OnSessionStart, s, nil)
	c.fire(ctx, c.hooks.OnPhaseEnter, s, nil)

	outcome, err := c.drive(ctx, s, logger)
	if err != nil {
		outcome = domain.OutcomeFailed
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			outcome = domain.OutcomeCancelled
		}
	}
	c.enter(ctx, s, domain.PhaseTerminated)

	res := &Result{
		SessionID: s.ID,
		Ref:       s.Ref(),
		Outcome:   outcome,
		Embed:     s.doc.Snapshot(),
	}

	if outcome == domain.OutcomeCompleted && c.archive != nil {
		res.DocumentID = c.store(ctx, s, res, logger)
	}

	info := s.Info()
	c.fire(ctx, c.hooks.OnSessionEnd, s, func(e *domain.SessionEvent) {
		e.Outcome = outcome
		e.Duration = c.now().Sub(info.StartedAt)
		e.Err = err
	})
	logger.Debug("session finished", "outcome", outcome, "fields", len(res.Embed.Fields))
	return res, err
}

func (c *Controller) drive(ctx context.Context, s *Session, logger *slog.Logger) (domain.Outcome, error) {
	ref, err := c.gateway.Send(ctx, s.Trigger.ChannelID, PromptView(true))
	if err != nil {
		return "", fmt.Errorf("failed to send prompt: %w", err)
	}
	s.setRef(ref)
	logger = logger.With("message_id", ref.MessageID)

	sub := c.gateway.Subscribe(ref)
	defer sub.Close()
	mux := NewMultiplexer(sub)

	// Awaiting the title button.
	btn, err := mux.NextButton(ctx)
	if err != nil {
		return "", err
	}
	if btn.ControlID != domain.ControlSetTitle {
		return "", violation(s, "control", btn.ControlID)
	}

	c.enter(ctx, s, domain.PhaseAwaitingTitleForm)
	if err := c.gateway.Edit(ctx, ref, PromptView(false)); err != nil {
		return "", fmt.Errorf("failed to remove title button: %w", err)
	}
	if err := btn.Ack.ShowForm(ctx, TitleForm()); err != nil {
		return "", fmt.Errorf("failed to show title form: %w", err)
	}
	// Clicks queued before the edit removed the button.
	for _, stale := range mux.PendingButtons() {
		if stale.ControlID != domain.ControlSetTitle {
			return "", violation(s, "control", stale.ControlID)
		}
		c.discardRepeatedTitleClick(ctx, stale, logger)
	}

	form, err := mux.AwaitForm(ctx, c.titleTimeout)
	if errors.Is(err, domain.ErrTitleTimeout) {
		logger.Info("title form timed out", "timeout", c.titleTimeout)
		if err := c.gateway.Reply(ctx, ref, domain.TextTimedOut); err != nil {
			return "", fmt.Errorf("failed to send timeout notice: %w", err)
		}
		return domain.OutcomeTimedOut, nil
	}
	if err != nil {
		return "", err
	}
	if form.FormID != domain.FormTitle {
		return "", violation(s, "form", form.FormID)
	}
	if len(form.Values) != 1 {
		return "", violation(s, "values", fmt.Sprint(len(form.Values)))
	}

	s.doc.SetTitle(form.Values[0])
	c.enter(ctx, s, domain.PhaseEditing)
	if err := form.Ack.Defer(ctx); err != nil {
		return "", fmt.Errorf("failed to acknowledge title form: %w", err)
	}
	if err := c.gateway.Edit(ctx, ref, EditingView(s.doc.Snapshot())); err != nil {
		return "", fmt.Errorf("failed to render document: %w", err)
	}

	for {
		ev, err := mux.Next(ctx)
		if err != nil {
			return "", err
		}
		done, err := c.handle(ctx, s, ev, logger)
		if err != nil {
			return "", err
		}
		if done {
			return domain.OutcomeCompleted, nil
		}
	}
}

// handle processes one edit-loop event, resolving its ack exactly once.
func (c *Controller) handle(ctx context.Context, s *Session, ev domain.InteractionEvent, logger *slog.Logger) (bool, error) {
	switch ev := ev.(type) {
	case domain.ButtonActivated:
		switch ev.ControlID {
		case domain.ControlSetTitle:
			c.discardRepeatedTitleClick(ctx, ev, logger)
			return false, nil
		case domain.ControlAddField:
			if err := ev.Ack.ShowForm(ctx, FieldForm()); err != nil {
				return false, fmt.Errorf("failed to show field form: %w", err)
			}
			return false, nil
		case domain.ControlDone:
			if err := ev.Ack.UpdateMessage(ctx, FinalView(s.doc.Snapshot())); err != nil {
				return false, fmt.Errorf("failed to render final document: %w", err)
			}
			return true, nil
		default:
			return false, violation(s, "control", ev.ControlID)
		}

	case domain.FormSubmitted:
		if ev.FormID != domain.FormField {
			return false, violation(s, "form", ev.FormID)
		}
		if len(ev.Values) != 2 {
			return false, violation(s, "values", fmt.Sprint(len(ev.Values)))
		}
		field := s.doc.AppendField(ev.Values[0], ev.Values[1])
		s.setFields(s.doc.Len())
		logger.Debug("field appended", "name", field.Name, "fields", s.doc.Len())
		c.fire(ctx, c.hooks.OnFieldAppended, s, func(e *domain.SessionEvent) {
			e.Field = &field
		})
		if err := ev.Ack.UpdateMessage(ctx, EditingView(s.doc.Snapshot())); err != nil {
			return false, fmt.Errorf("failed to render document: %w", err)
		}
		return false, nil
	}
	return false, violation(s, "event", fmt.Sprintf("%T", ev))
}

// discardRepeatedTitleClick answers a second click on the title button, which
// can reach the session after the first one removed it. The click changes nothing.
func (c *Controller) discardRepeatedTitleClick(ctx context.Context, ev domain.ButtonActivated, logger *slog.Logger) {
	if err := ev.Ack.Defer(ctx); err != nil {
		logger.Warn("failed to acknowledge repeated title click", "user_id", ev.UserID, "err", err)
		return
	}
	logger.Debug("repeated title click ignored", "user_id", ev.UserID)
}

func (c *Controller) store(ctx context.Context, s *Session, res *Result, logger *slog.Logger) string {
	rec := domain.DocumentRecord{
		ID:          c.newID(),
		SessionID:   s.ID,
		ChannelID:   res.Ref.ChannelID,
		MessageID:   res.Ref.MessageID,
		AuthorID:    s.Trigger.AuthorID,
		Embed:       res.Embed.Clone(),
		CompletedAt: c.now().UTC(),
	}
	// The document is already visible in chat; archiving is best effort.
	if err := c.archive.Save(context.WithoutCancel(ctx), rec); err != nil {
		logger.Warn("failed to archive document", "document_id", rec.ID, "err", err)
		return ""
	}
	return rec.ID
}

func (c *Controller) enter(ctx context.Context, s *Session, phase domain.Phase) {
	s.setPhase(phase)
	c.fire(ctx, c.hooks.OnPhaseEnter, s, nil)
}

func (c *Controller) fire(ctx context.Context, fn func(context.Context, *domain.SessionEvent), s *Session, fill func(*domain.SessionEvent)) {
	if fn == nil {
		return
	}
	info := s.Info()
	ev := &domain.SessionEvent{
		Timestamp: c.now(),
		Session:   info,
		Phase:     info.Phase,
	}
	if fill != nil {
		fill(ev)
	}
	fn(ctx, ev)
}

func violation(s *Session, kind, got string) error {
	return &domain.ProtocolViolationError{Phase: s.Phase(), Kind: kind, Got: got}
}
