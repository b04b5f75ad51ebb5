package mongo

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/prestalink/lending-bot/internal/core/domain"
)

const (
	userCollection     = "users"
	customerCollection = "customers"
	lenderCollection   = "lenders"
)

// CredentialRepository implements ports.CredentialStore against the
// identity database. The user documents were imported from the legacy
// system and are read-only here.
type CredentialRepository struct {
	users     *mongo.Collection
	customers *mongo.Collection
	lenders   *mongo.Collection
}

// NewCredentialRepository wires the repository to its collections.
func NewCredentialRepository(db *mongo.Database) *CredentialRepository {
	return &CredentialRepository{
		users:     db.Collection(userCollection),
		customers: db.Collection(customerCollection),
		lenders:   db.Collection(lenderCollection),
	}
}

type userDoc struct {
	UserID       string `bson:"user_id"`
	Email        string `bson:"email"`
	Name         string `bson:"name"`
	PasswordHash string `bson:"password_hash"`
	Role         string `bson:"role"`
}

type linkDoc struct {
	EntityID string `bson:"entity_id"`
	UserID   string `bson:"user_id"`
	Name     string `bson:"name"`
}

func (r *CredentialRepository) FindByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	var doc userDoc
	filter := bson.M{"email": strings.ToLower(email)}
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &domain.Credential{
		UserID:       doc.UserID,
		PasswordHash: doc.PasswordHash,
		Role:         doc.Role,
	}, nil
}

func (r *CredentialRepository) FindRoleByID(ctx context.Context, userID string) (string, error) {
	var doc userDoc
	if err := r.users.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return "", domain.ErrUserNotFound
		}
		return "", fmt.Errorf("find user role: %w", err)
	}
	return doc.Role, nil
}

// FindLinkedEntity resolves the business entity behind a user. Customers
// and lenders have a linkage document in their own collection; admins are
// their own entity.
func (r *CredentialRepository) FindLinkedEntity(ctx context.Context, userID, role string) (*domain.LinkedEntity, error) {
	var coll *mongo.Collection
	switch role {
	case domain.RoleCustomer:
		coll = r.customers
	case domain.RoleLender:
		coll = r.lenders
	case domain.RoleAdmin:
		var doc userDoc
		if err := r.users.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc); err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, domain.ErrNoLinkedEntity
			}
			return nil, fmt.Errorf("find admin entity: %w", err)
		}
		return &domain.LinkedEntity{DomainID: doc.UserID, DisplayName: doc.Name}, nil
	default:
		return nil, domain.ErrNoLinkedEntity
	}

	var doc linkDoc
	if err := coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNoLinkedEntity
		}
		return nil, fmt.Errorf("find linked entity: %w", err)
	}
	return &domain.LinkedEntity{DomainID: doc.EntityID, DisplayName: doc.Name}, nil
}
