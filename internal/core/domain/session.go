package domain

// AuthState tracks where a conversation is inside the sign-in wizard.
type AuthState int

const (
	AuthIdle AuthState = iota
	AuthAwaitEmail
	AuthAwaitPassword
)

// Prompt marks which single-field question, if any, is awaiting a reply.
// Unlike the sign-in wizard these are one-shot: the next plain-text message
// from the conversation answers them.
type Prompt int

const (
	PromptNone Prompt = iota
	PromptCheckLoan
	PromptHistoryLoan
	PromptPaymentLoan
	PromptUserRole
	PromptLogPeriod
)

// PendingAuth is the scratch state of an in-flight sign-in. It carries the
// password hash fetched during the email step and therefore must never
// outlive the wizard: every terminal transition (success, mismatch, error,
// cancel) clears it.
type PendingAuth struct {
	Email        string
	UserID       string
	PasswordHash string
	Role         string
}

// Session is the per-conversation authentication and role context. One
// session per chat identity, created lazily, mutated in place, reset on
// sign-out. Never persisted.
type Session struct {
	Identity    int64
	UserID      string
	Role        string
	DomainID    string
	DisplayName string

	AuthState AuthState
	Pending   *PendingAuth
	Prompt    Prompt
}

// SignedIn reports whether the session has completed authentication.
func (s *Session) SignedIn() bool {
	return s.UserID != ""
}

// AuthInProgress reports whether the sign-in wizard is mid-flight.
func (s *Session) AuthInProgress() bool {
	return s.AuthState != AuthIdle
}

// Reset returns the session to the empty, unauthenticated state, dropping
// the identity triple, any wizard scratch and any pending prompt.
func (s *Session) Reset() {
	s.UserID = ""
	s.Role = ""
	s.DomainID = ""
	s.DisplayName = ""
	s.AuthState = AuthIdle
	s.Pending = nil
	s.Prompt = PromptNone
}
