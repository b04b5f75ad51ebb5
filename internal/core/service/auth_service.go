package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/prestalink/lending-bot/internal/core/domain"
	"github.com/prestalink/lending-bot/internal/core/ports"
	"github.com/prestalink/lending-bot/internal/pkg/hashcompat"
)

const (
	msgAskEmail       = "Please enter your email address:"
	msgBadEmail       = "That doesn't look like a valid email address. Please try again:"
	msgNoUser         = "No user found with that email. Check the address or contact support."
	msgHashProblem    = "There is a problem with your account. Please contact support."
	msgAskPassword    = "Now enter your password:"
	msgAskPasswordRe  = "Please type your password as a text message:"
	msgExpired        = "Your sign-in session expired. Use /signin to start again."
	msgBadPassword    = "Invalid password. Use /signin to try again."
	msgLinkageProblem = "Your account isn't linked to a profile yet. Please contact support."
	msgSystemError    = "Something went wrong on our side. Please try again later."
	msgCancelled      = "Cancelled. Nothing was changed."
	msgPrivacyWarning = "I couldn't remove the message with your password. Please delete it yourself."
)

// AuthService runs the two-step sign-in wizard: email, then password.
// Each Step call consumes exactly one inbound message; every terminal
// transition clears the session's scratch state.
type AuthService struct {
	creds     ports.CredentialStore
	messenger ports.Messenger
	log       zerolog.Logger
}

// NewAuthService returns an AuthFlow implementation.
func NewAuthService(creds ports.CredentialStore, messenger ports.Messenger, log zerolog.Logger) *AuthService {
	return &AuthService{creds: creds, messenger: messenger, log: log}
}

// Begin enters the wizard. Stale scratch from an abandoned earlier run is
// discarded before anything else.
func (s *AuthService) Begin(ctx context.Context, sess *domain.Session) error {
	sess.Pending = nil
	sess.Prompt = domain.PromptNone
	sess.AuthState = domain.AuthAwaitEmail
	return s.messenger.Send(ctx, sess.Identity, msgAskEmail, &ports.ReplyOptions{ForceReply: true})
}

// Cancel aborts the wizard. Idempotent: cancelling twice acknowledges both
// times and changes nothing on the second call.
func (s *AuthService) Cancel(ctx context.Context, sess *domain.Session) error {
	sess.Pending = nil
	sess.AuthState = domain.AuthIdle
	return s.messenger.Send(ctx, sess.Identity, msgCancelled, nil)
}

// Step consumes one inbound message while the wizard is active. The router
// has already intercepted the cancel directive before calling this.
func (s *AuthService) Step(ctx context.Context, sess *domain.Session, up ports.Update) error {
	switch sess.AuthState {
	case domain.AuthAwaitEmail:
		return s.stepEmail(ctx, sess, up)
	case domain.AuthAwaitPassword:
		return s.stepPassword(ctx, sess, up)
	default:
		return nil
	}
}

func (s *AuthService) stepEmail(ctx context.Context, sess *domain.Session, up ports.Update) error {
	email := strings.TrimSpace(up.Text)
	if email == "" {
		return s.messenger.Send(ctx, sess.Identity, msgAskEmail, &ports.ReplyOptions{ForceReply: true})
	}
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return s.messenger.Send(ctx, sess.Identity, msgBadEmail, &ports.ReplyOptions{ForceReply: true})
	}

	cred, err := s.creds.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return s.leave(ctx, sess, msgNoUser)
		}
		s.log.Error().Err(err).Int64("chat_id", sess.Identity).Msg("credential lookup failed")
		return s.leave(ctx, sess, msgSystemError)
	}

	if !hashcompat.Recognized(cred.PasswordHash) {
		s.log.Error().Str("user_id", cred.UserID).Msg("credential record has unrecognized hash scheme")
		return s.leave(ctx, sess, msgHashProblem)
	}

	sess.Pending = &domain.PendingAuth{
		Email:        email,
		UserID:       cred.UserID,
		PasswordHash: cred.PasswordHash,
		Role:         strings.ToLower(cred.Role),
	}
	sess.AuthState = domain.AuthAwaitPassword
	return s.messenger.Send(ctx, sess.Identity, msgAskPassword, &ports.ReplyOptions{ForceReply: true})
}

func (s *AuthService) stepPassword(ctx context.Context, sess *domain.Session, up ports.Update) error {
	if !up.HasText {
		// Stickers, photos and the like carry no text; keep waiting.
		return s.messenger.Send(ctx, sess.Identity, msgAskPasswordRe, &ports.ReplyOptions{ForceReply: true})
	}

	// Best-effort: get the literal password out of the visible history.
	// Never blocks the authentication transition.
	if err := s.messenger.Delete(ctx, sess.Identity, up.MessageID); err != nil {
		s.log.Warn().Err(err).Int64("chat_id", sess.Identity).Msg("could not delete password message")
		if sendErr := s.messenger.Send(ctx, sess.Identity, msgPrivacyWarning, nil); sendErr != nil {
			s.log.Warn().Err(sendErr).Msg("privacy warning not delivered")
		}
	}

	pending := sess.Pending
	if pending == nil {
		return s.leave(ctx, sess, msgExpired)
	}

	if err := hashcompat.Compare(pending.PasswordHash, up.Text); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			s.log.Error().Err(err).Str("user_id", pending.UserID).Msg("password hash comparison failed")
			return s.leave(ctx, sess, msgSystemError)
		}
		s.log.Info().Str("user_id", pending.UserID).Msg("sign-in rejected: password mismatch")
		return s.leave(ctx, sess, msgBadPassword)
	}

	entity, err := s.creds.FindLinkedEntity(ctx, pending.UserID, pending.Role)
	if err != nil {
		if errors.Is(err, domain.ErrNoLinkedEntity) {
			return s.leave(ctx, sess, msgLinkageProblem)
		}
		s.log.Error().Err(err).Str("user_id", pending.UserID).Msg("linked entity lookup failed")
		return s.leave(ctx, sess, msgSystemError)
	}

	// Terminal success: set the identity triple and drop the scratch in
	// one transition.
	sess.UserID = pending.UserID
	sess.Role = pending.Role
	sess.DomainID = entity.DomainID
	sess.DisplayName = entity.DisplayName
	sess.Pending = nil
	sess.AuthState = domain.AuthIdle

	s.log.Info().
		Str("user_id", sess.UserID).
		Str("role", sess.Role).
		Int64("chat_id", sess.Identity).
		Msg("sign-in complete")

	return s.messenger.Send(ctx, sess.Identity,
		"Welcome back, "+sess.DisplayName+"!",
		&ports.ReplyOptions{Menu: MenuFor(sess.Role)})
}

// leave is the shared unauthenticated terminal transition: scratch purged,
// wizard closed, user informed.
func (s *AuthService) leave(ctx context.Context, sess *domain.Session, msg string) error {
	sess.Pending = nil
	sess.AuthState = domain.AuthIdle
	return s.messenger.Send(ctx, sess.Identity, msg, nil)
}
