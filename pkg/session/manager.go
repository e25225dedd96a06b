package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/scribe/internal/logging"
	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/ports"
)

// ErrManagerClosed is returned by Handle after Shutdown has been called.
var ErrManagerClosed = errors.New("session manager is shut down")

// DefaultClaimTTL is how long a claimed trigger stays claimed.
const DefaultClaimTTL = 10 * time.Minute

// running tracks a session goroutine.
type running struct {
	session *Session
	cancel  context.CancelFunc
}

// Manager runs one Controller session per triggering message.
// Sessions are fully independent; the Manager only tracks them for
// introspection and shutdown.
type Manager struct {
	controller *Controller

	locker   ports.DistributedLocker // Optional distributed locker
	claimTTL time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	sessions map[string]*running
	closed   bool
	wg       sync.WaitGroup

	baseCtx context.Context
	cancel  context.CancelFunc
}

// ManagerOption configures the Manager.
type ManagerOption func(*Manager)

// WithLocker enables claiming triggers across replicas.
func WithLocker(locker ports.DistributedLocker) ManagerOption {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithClaimTTL overrides DefaultClaimTTL.
func WithClaimTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		m.claimTTL = ttl
	}
}

// WithManagerLogger configures a logger for the Manager.
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager that runs sessions with controller.
func NewManager(controller *Controller, opts ...ManagerOption) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		controller: controller,
		claimTTL:   DefaultClaimTTL,
		logger:     logging.NewNop(),
		sessions:   make(map[string]*running),
		baseCtx:    ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handle starts a session for trigger if its content is the command phrase.
// It returns as soon as the session goroutine is started; ctx only bounds the claim.
// Sessions outlive ctx and end on their own or on Shutdown.
func (m *Manager) Handle(ctx context.Context, trigger domain.Trigger) error {
	if !trigger.IsCommand() {
		return nil
	}

	if m.locker != nil {
		// The claim is never released: it expires with its TTL so that late
		// duplicate deliveries of the same message stay ignored.
		_, ok, err := m.locker.TryLock(ctx, "trigger:"+trigger.MessageID, m.claimTTL)
		if err != nil {
			return fmt.Errorf("failed to claim trigger %s: %w", trigger.MessageID, err)
		}
		if !ok {
			m.logger.Debug("trigger already claimed", "trigger_id", trigger.MessageID)
			return nil
		}
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrManagerClosed
	}
	s := m.controller.NewSession(trigger)
	sctx, cancel := context.WithCancel(m.baseCtx)
	m.sessions[s.ID] = &running{session: s, cancel: cancel}
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		defer m.remove(s.ID)
		defer cancel()

		res, err := m.controller.Run(sctx, s)
		m.report(s, res, err)
	}()
	return nil
}

func (m *Manager) report(s *Session, res *Result, err error) {
	logger := m.logger.With("session_id", s.ID, "channel_id", s.Trigger.ChannelID)
	switch {
	case err == nil:
		logger.Info("session finished", "outcome", res.Outcome, "fields", len(res.Embed.Fields), "document_id", res.DocumentID)
	case errors.Is(err, domain.ErrProtocolViolation):
		logger.Error("session aborted: protocol violation", "err", err)
	case res != nil && res.Outcome == domain.OutcomeCancelled:
		logger.Info("session cancelled", "err", err)
	default:
		logger.Error("session aborted", "err", err)
	}
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Active returns the sessions currently running, oldest first.
func (m *Manager) Active() []domain.SessionInfo {
	m.mu.Lock()
	list := make([]domain.SessionInfo, 0, len(m.sessions))
	for _, r := range m.sessions {
		list = append(list, r.session.Info())
	}
	m.mu.Unlock()

	sort.Slice(list, func(i, j int) bool {
		if list[i].StartedAt.Equal(list[j].StartedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].StartedAt.Before(list[j].StartedAt)
	})
	return list
}

// Shutdown stops accepting triggers, cancels running sessions and waits for
// them to return or for ctx to expire.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
