package scribe

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/scribe/internal/logging"
	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/ports"
	"github.com/aretw0/scribe/pkg/session"
)

// Engine is the high-level entry point for the Scribe library.
// It wires a session Controller to a Manager that runs one session per trigger.
type Engine struct {
	controller *session.Controller
	manager    *session.Manager

	archive      ports.DocumentStore
	locker       ports.DistributedLocker
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	titleTimeout time.Duration
	claimTTL     time.Duration
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithArchive stores every completed document in store.
func WithArchive(store ports.DocumentStore) Option {
	return func(e *Engine) {
		e.archive = store
	}
}

// WithLocker claims each trigger through locker so that replicas sharing it
// start at most one session per message.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithTitleTimeout bounds the wait for the title form (default 30s).
func WithTitleTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.titleTimeout = d
	}
}

// WithClaimTTL sets how long a claimed trigger stays claimed.
func WithClaimTTL(d time.Duration) Option {
	return func(e *Engine) {
		e.claimTTL = d
	}
}

// New initializes a new Scribe Engine bound to gateway.
func New(gateway ports.Gateway, opts ...Option) *Engine {
	eng := &Engine{
		titleTimeout: session.DefaultTitleTimeout,
		claimTTL:     session.DefaultClaimTTL,
	}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	ctrlOpts := []session.Option{
		session.WithLogger(eng.logger),
		session.WithLifecycleHooks(eng.hooks),
		session.WithTitleTimeout(eng.titleTimeout),
	}
	if eng.archive != nil {
		ctrlOpts = append(ctrlOpts, session.WithArchive(eng.archive))
	}
	eng.controller = session.NewController(gateway, ctrlOpts...)

	mgrOpts := []session.ManagerOption{
		session.WithManagerLogger(eng.logger),
		session.WithClaimTTL(eng.claimTTL),
	}
	if eng.locker != nil {
		mgrOpts = append(mgrOpts, session.WithLocker(eng.locker))
	}
	eng.manager = session.NewManager(eng.controller, mgrOpts...)

	return eng
}

// HandleTrigger starts a session if trigger carries the command phrase.
// It has the signature of ports.TriggerHandler.
func (e *Engine) HandleTrigger(ctx context.Context, trigger domain.Trigger) error {
	return e.manager.Handle(ctx, trigger)
}

// Active returns the sessions currently running.
func (e *Engine) Active() []domain.SessionInfo {
	return e.manager.Active()
}

// Archive returns the document store, or nil when archiving is off.
func (e *Engine) Archive() ports.DocumentStore {
	return e.archive
}

// Shutdown cancels running sessions and waits for them to finish.
func (e *Engine) Shutdown(ctx context.Context) error {
	return e.manager.Shutdown(ctx)
}
