package ports

import (
	"context"

	"github.com/prestalink/lending-bot/internal/core/domain"
)

// AuthFlow drives the two-step sign-in wizard for one session.
type AuthFlow interface {
	// Begin starts (or restarts) the wizard, discarding any stale scratch
	// state from an abandoned earlier attempt.
	Begin(ctx context.Context, sess *domain.Session) error

	// Step consumes one inbound message while the wizard is active.
	Step(ctx context.Context, sess *domain.Session, up Update) error

	// Cancel aborts the wizard, purging scratch state. Safe to call when
	// no wizard is active.
	Cancel(ctx context.Context, sess *domain.Session) error
}
