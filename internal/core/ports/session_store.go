package ports

import "github.com/prestalink/lending-bot/internal/core/domain"

// SessionStore maps conversation identities to session state. Sessions are
// process-lifetime only; losing them on restart is acceptable because
// re-authentication is cheap and side-effect-free.
type SessionStore interface {
	// Get returns the session for an identity, creating an empty one if
	// none exists yet.
	Get(identity int64) *domain.Session

	// Put stores the session under its identity.
	Put(sess *domain.Session)

	// Clear resets the identity's session to the empty, unauthenticated
	// state.
	Clear(identity int64)
}
