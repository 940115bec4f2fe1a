package refreshtokens

import (
	"context"
	"time"

	"github.com/YousefAdel777/chatter-backend-sub000/internal/server/models"
)

// Repository is the session store: the durable mapping from refresh-token
// string to the owning user.
type Repository interface {
	// Create persists rt and fills in its ID and CreatedAt.
	Create(ctx context.Context, rt *models.RefreshToken) (*models.RefreshToken, error)
	FindByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	FindByTokenAndOwnerEmail(ctx context.Context, token, email string) (*models.RefreshToken, error)
	// Delete removes the session with the given id. It returns
	// common.ErrorNotFound when no row was removed.
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
