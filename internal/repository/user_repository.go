package repository

import (
	"context"

	"github.com/avekens/threadlens/internal/models"
	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUID(ctx context.Context, uid uuid.UUID) (*models.User, error)
	Exists(ctx context.Context, email string) (bool, error)
	UpdateVerified(ctx context.Context, uid uuid.UUID, verified bool) error
	UpdatePasswordHash(ctx context.Context, uid uuid.UUID, passwordHash string) error
	UpdateGoogleID(ctx context.Context, uid uuid.UUID, googleID string) error
}
