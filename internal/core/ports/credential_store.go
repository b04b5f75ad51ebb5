package ports

import (
	"context"

	"github.com/prestalink/lending-bot/internal/core/domain"
)

// CredentialStore is the identity lookup collaborator.
type CredentialStore interface {
	// FindByEmail returns the credential record for an email address, or
	// domain.ErrUserNotFound.
	FindByEmail(ctx context.Context, email string) (*domain.Credential, error)

	// FindRoleByID returns the stored role string for a user id, or
	// domain.ErrUserNotFound if the account no longer exists.
	FindRoleByID(ctx context.Context, userID string) (string, error)

	// FindLinkedEntity resolves the role-specific business entity for a
	// user, or domain.ErrNoLinkedEntity.
	FindLinkedEntity(ctx context.Context, userID, role string) (*domain.LinkedEntity, error)
}
