package repo

import (
	"context"

	"github.com/ecomanager/ecomanager/internal/domain/auth/model"
	"github.com/google/uuid"
)

type UserRepo interface {
	CreateUser(ctx context.Context, u model.User) (uuid.UUID, error)

	// GetUserByEmail matches case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (model.User, error)

	GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error)

	UpdateUser(ctx context.Context, u model.User) error

	ListUsers(ctx context.Context) ([]model.User, error)

	SetRole(ctx context.Context, id uuid.UUID, role string) error

	// SetActive soft-deletes (or restores) an account. Rows are never
	// hard-deleted by the auth flow.
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}
