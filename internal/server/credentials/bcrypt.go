// Package credentials verifies login secrets against the user directory.
package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/YousefAdel777/chatter-backend-sub000/internal/common"
	"github.com/YousefAdel777/chatter-backend-sub000/internal/server/models"
	"golang.org/x/crypto/bcrypt"
)

// UserLookup is the part of the user directory the verifier needs.
type UserLookup interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// BcryptVerifier checks a secret against the bcrypt hash stored for the user.
type BcryptVerifier struct {
	users     UserLookup
	cost      int
	dummyHash []byte
}

// NewBcryptVerifier returns a verifier backed by users. cost should match
// the cost used when hashes were stored so that unknown identifiers take
// about as long to reject as wrong secrets.
func NewBcryptVerifier(users UserLookup, cost int) (*BcryptVerifier, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte("chatter-dummy-secret"), cost)
	if err != nil {
		return nil, fmt.Errorf("credentials: %w", err)
	}
	return &BcryptVerifier{users: users, cost: cost, dummyHash: dummy}, nil
}

// Verify reports whether secret is the password of the user identified by
// identifier. Unknown identifiers and wrong secrets both yield (false, nil).
func (v *BcryptVerifier) Verify(ctx context.Context, identifier, secret string) (bool, error) {
	if identifier == "" || secret == "" {
		return false, nil
	}

	user, err := v.users.GetUserByEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_ = bcrypt.CompareHashAndPassword(v.dummyHash, []byte(secret))
			return false, nil
		}
		return false, err
	}

	err = bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(secret))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("credentials: %w", err)
	}
}

// Hash returns the hash to store for a new secret, at the verifier's cost.
func (v *BcryptVerifier) Hash(secret string) ([]byte, error) {
	return HashPassword(secret, v.cost)
}

// HashPassword returns the bcrypt hash of secret at the given cost. Secrets
// longer than bcrypt accepts are reported as common.ErrInvalidRequest.
func HashPassword(secret string, cost int) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: %w", common.ErrInvalidRequest, err)
		}
		return nil, fmt.Errorf("credentials: %w", err)
	}
	return hash, nil
}
