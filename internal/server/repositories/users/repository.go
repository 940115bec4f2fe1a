package users

import (
	"context"

	"github.com/YousefAdel777/chatter-backend-sub000/internal/server/models"
)

// Repository is the user directory consulted by the auth flow.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// GetUserByEmail returns common.ErrorNotFound when no user has that email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}
