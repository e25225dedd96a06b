package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/scribe/pkg/domain"
)

// Hooks returns lifecycle hooks that log every session step and record it in m.
// Either argument may be nil.
func Hooks(m *Metrics, logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSessionStart: func(ctx context.Context, e *domain.SessionEvent) {
			if logger != nil {
				logger.Info("session_start",
					"session_id", e.Session.ID,
					"channel_id", e.Session.ChannelID,
					"author_id", e.Session.AuthorID,
				)
			}
			if m != nil {
				m.SessionsStarted.Inc()
				m.ActiveSessions.Inc()
			}
		},
		OnPhaseEnter: func(ctx context.Context, e *domain.SessionEvent) {
			if logger != nil {
				logger.Debug("phase_enter", "session_id", e.Session.ID, "phase", e.Phase)
			}
		},
		OnFieldAppended: func(ctx context.Context, e *domain.SessionEvent) {
			if logger != nil {
				logger.Debug("field_appended", "session_id", e.Session.ID, "fields", e.Session.Fields)
			}
			if m != nil {
				m.FieldsAppended.Inc()
			}
		},
		OnSessionEnd: func(ctx context.Context, e *domain.SessionEvent) {
			if logger != nil {
				attrs := []any{
					"session_id", e.Session.ID,
					"outcome", e.Outcome,
					"fields", e.Session.Fields,
					"duration", e.Duration,
				}
				if e.Err != nil {
					logger.Warn("session_end", append(attrs, "err", e.Err)...)
				} else {
					logger.Info("session_end", attrs...)
				}
			}
			if m != nil {
				m.ActiveSessions.Dec()
				m.SessionsFinished.WithLabelValues(string(e.Outcome)).Inc()
				m.SessionDuration.WithLabelValues(string(e.Outcome)).Observe(e.Duration.Seconds())
			}
		},
	}
}
