// Package services contains server-side business logic. This file implements
// AuthService, which handles login, refresh-token rotation, logout and the
// one-time exchange of token pairs.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/YousefAdel777/chatter-backend-sub000/internal/common"
	"github.com/YousefAdel777/chatter-backend-sub000/internal/dbx"
	"github.com/YousefAdel777/chatter-backend-sub000/internal/logging"
	"github.com/YousefAdel777/chatter-backend-sub000/internal/server/auth"
	"github.com/YousefAdel777/chatter-backend-sub000/internal/server/config"
	"github.com/YousefAdel777/chatter-backend-sub000/internal/server/models"
	"github.com/YousefAdel777/chatter-backend-sub000/internal/server/repositories/repomanager"
)

// CredentialVerifier checks a login identifier and secret.
type CredentialVerifier interface {
	Verify(ctx context.Context, identifier, secret string) (bool, error)
}

// PasswordHasher derives the stored hash of a new secret.
type PasswordHasher interface {
	Hash(secret string) ([]byte, error)
}

// PresenceNotifier is told when a user's session ends.
type PresenceNotifier interface {
	Disconnected(ctx context.Context, subject string) error
}

// ExchangeCodeCache hands token pairs over through one-time codes.
type ExchangeCodeCache interface {
	Store(ctx context.Context, pair models.TokenPair) (string, error)
	Redeem(ctx context.Context, code string) (*models.TokenPair, error)
}

// AuthDeps groups the collaborators of AuthService.
type AuthDeps struct {
	Codec    *auth.Codec
	Verifier CredentialVerifier
	Hasher   PasswordHasher
	Exchange ExchangeCodeCache
	Presence PresenceNotifier
	Logger   logging.Logger
}

// AuthService provides the session lifecycle:
// - Register: add a user with a hashed secret
// - Login: verify credentials and mint a token pair plus a stored session
// - Refresh: rotate a refresh token, invalidating the old one
// - Logout: revoke a session owned by the caller
type AuthService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	codec                        *auth.Codec
	verifier                     CredentialVerifier
	hasher                       PasswordHasher
	exchange                     ExchangeCodeCache
	presence                     PresenceNotifier
	logger                       logging.Logger
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	now                          func() time.Time
}

// NewAuthService constructs an AuthService using repositories, collaborators
// and server config.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, deps AuthDeps) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Nop{}
	}
	return &AuthService{
		db:                           db,
		repomanager:                  m,
		codec:                        deps.Codec,
		verifier:                     deps.Verifier,
		hasher:                       deps.Hasher,
		exchange:                     deps.Exchange,
		presence:                     deps.Presence,
		logger:                       logger.With("module", "auth"),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		now:                          time.Now,
	}
}

// Register adds a user identified by email with a hashed secret.
// An already registered email yields common.ErrorAlreadyExists.
func (s *AuthService) Register(ctx context.Context, identifier, secret string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || secret == "" || !strings.Contains(identifier, "@") {
		return nil, common.ErrInvalidRequest
	}

	hash, err := s.hasher.Hash(secret)
	if err != nil {
		if errors.Is(err, common.ErrInvalidRequest) {
			return nil, common.ErrInvalidRequest
		}
		return nil, fmt.Errorf("error hashing secret: %w", err)
	}

	user, err := s.repomanager.Users(s.db).Create(ctx, &models.User{Email: identifier, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login verifies the credentials and, on success, persists a new session and
// returns its TokenPair. A rejection never says which field was wrong.
func (s *AuthService) Login(ctx context.Context, identifier, secret string) (*models.TokenPair, error) {
	ok, err := s.verifier.Verify(ctx, identifier, secret)
	if err != nil {
		return nil, fmt.Errorf("error verifying credentials: %w", err)
	}
	if !ok {
		s.logger.Info(ctx, "login rejected")
		return nil, common.ErrInvalidCredentials
	}

	user, err := s.repomanager.Users(s.db).GetUserByEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	pair, err := s.issueSession(ctx, s.db, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "login succeeded", "user_id", user.ID)
	return pair, nil
}

// Refresh rotates refreshToken: the old session is deleted and a new pair
// with a new session is returned, inside one transaction. Of two concurrent
// rotations of the same token at most one succeeds; the other gets
// common.ErrInvalidRequest.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	if refreshToken == "" {
		return nil, common.ErrInvalidRequest
	}

	subject, err := s.codec.ParseSubject(refreshToken)
	if err != nil {
		s.logTokenFailure(ctx, "refresh", err)
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidRequest, err)
	}

	user, err := s.repomanager.Users(s.db).GetUserByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.dropSession(ctx, refreshToken, "user vanished")
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	if user == nil {
		return nil, common.ErrInvalidRequest
	}

	ok, err := s.codec.Validate(refreshToken, user.Email, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidRequest, err)
	}
	if !ok {
		s.logger.Warn(ctx, "refresh rejected: not a refresh token for subject", "user_id", user.ID)
		return nil, common.ErrInvalidRequest
	}

	repo := s.repomanager.RefreshTokens(s.db)
	session, err := repo.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "refresh rejected: unknown or rotated session", "user_id", user.ID)
			return nil, common.ErrInvalidRequest
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if session.UserEmail != subject {
		s.logger.Warn(ctx, "refresh rejected: session owner mismatch", "user_id", user.ID, "session_id", session.ID)
		return nil, common.ErrInvalidRequest
	}
	if session.Expired(s.now()) {
		return nil, common.ErrInvalidRequest
	}

	var pair *models.TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.RefreshTokens(tx)
		if err := repoTx.Delete(ctx, session.ID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidRequest
			}
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.issueSession(ctx, tx, user)
		return genErr
	}); err != nil {
		if errors.Is(err, common.ErrInvalidRequest) {
			s.logger.Warn(ctx, "refresh rejected: session rotated concurrently", "session_id", session.ID)
		}
		return nil, err
	}

	s.logger.Info(ctx, "refresh token rotated", "user_id", user.ID, "session_id", session.ID)
	return pair, nil
}

// Logout revokes the session behind refreshToken if it belongs to
// requesterEmail, and announces the disconnect.
func (s *AuthService) Logout(ctx context.Context, refreshToken, requesterEmail string) error {
	if refreshToken == "" || requesterEmail == "" {
		return common.ErrInvalidRequest
	}

	repo := s.repomanager.RefreshTokens(s.db)
	session, err := repo.FindByTokenAndOwnerEmail(ctx, refreshToken, requesterEmail)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "logout rejected: no such session for requester")
			return common.ErrInvalidRequest
		}
		return fmt.Errorf("error searching refresh token: %w", err)
	}

	ok, err := s.codec.Validate(refreshToken, requesterEmail, true)
	if err != nil {
		s.logTokenFailure(ctx, "logout", err)
		return fmt.Errorf("%w: %w", common.ErrInvalidRequest, err)
	}
	if !ok {
		return common.ErrInvalidRequest
	}

	if err := s.presence.Disconnected(ctx, requesterEmail); err != nil {
		s.logger.Warn(ctx, "presence notification failed", "user_id", session.UserID, "error", err)
	}

	// The row may have been rotated away since the lookup; its successor is
	// live, so the caller must not be told the session ended.
	if err := repo.Delete(ctx, session.ID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "logout rejected: session rotated concurrently", "session_id", session.ID)
			return common.ErrInvalidRequest
		}
		return fmt.Errorf("error deleting refresh token: %w", err)
	}

	s.logger.Info(ctx, "logout", "user_id", session.UserID, "session_id", session.ID)
	return nil
}

// ExchangeCodeFor stores pair behind a one-time code.
func (s *AuthService) ExchangeCodeFor(ctx context.Context, pair *models.TokenPair) (string, error) {
	if pair == nil {
		return "", common.ErrInvalidRequest
	}
	code, err := s.exchange.Store(ctx, *pair)
	if err != nil {
		return "", fmt.Errorf("error storing exchange code: %w", err)
	}
	return code, nil
}

// LoginHandoff logs in and parks the new pair behind a one-time code instead
// of returning it. When the code cannot be stored the new session is dropped.
func (s *AuthService) LoginHandoff(ctx context.Context, identifier, secret string) (string, error) {
	pair, err := s.Login(ctx, identifier, secret)
	if err != nil {
		return "", err
	}

	code, err := s.ExchangeCodeFor(ctx, pair)
	if err != nil {
		s.dropSession(ctx, pair.RefreshToken, "exchange code not stored")
		return "", err
	}
	return code, nil
}

// RedeemExchangeCode returns the pair stored behind code exactly once.
// Unknown, expired or already redeemed codes yield common.ErrorNotFound.
func (s *AuthService) RedeemExchangeCode(ctx context.Context, code string) (*models.TokenPair, error) {
	pair, err := s.exchange.Redeem(ctx, code)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Debug(ctx, "exchange code miss")
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error redeeming exchange code: %w", err)
	}
	return pair, nil
}

// AuthenticateAccessToken returns the subject of a valid access token.
// Refresh tokens are rejected.
func (s *AuthService) AuthenticateAccessToken(accessToken string) (string, error) {
	claims, err := s.codec.Parse(accessToken)
	if err != nil {
		return "", err
	}
	if claims.IsRefresh {
		return "", &auth.TokenError{Kind: auth.KindMalformed, Err: errors.New("refresh token used as access token")}
	}
	return claims.Subject, nil
}

// --- helpers below ---

func (s *AuthService) issueSession(ctx context.Context, db dbx.DBTX, user *models.User) (*models.TokenPair, error) {
	access, err := s.codec.Issue(user.Email, false, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("error generating access token: %w", err)
	}
	refresh, err := s.codec.Issue(user.Email, true, s.refreshTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("error generating refresh token: %w", err)
	}

	_, err = s.repomanager.RefreshTokens(db).Create(ctx, &models.RefreshToken{
		Token:     refresh,
		UserID:    user.ID,
		UserEmail: user.Email,
		ExpiresAt: s.now().Add(s.refreshTokenValidityDuration),
	})
	if err != nil {
		return nil, fmt.Errorf("error creating refresh token: %w", err)
	}

	return &models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// dropSession removes the session behind refreshToken, if any.
func (s *AuthService) dropSession(ctx context.Context, refreshToken, reason string) {
	repo := s.repomanager.RefreshTokens(s.db)
	session, err := repo.FindByToken(ctx, refreshToken)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Error(ctx, "session lookup failed", "reason", reason, "error", err)
		}
		return
	}
	if err := repo.Delete(ctx, session.ID); err != nil && !errors.Is(err, common.ErrorNotFound) {
		s.logger.Error(ctx, "session delete failed", "session_id", session.ID, "error", err)
		return
	}
	s.logger.Warn(ctx, "dropped session", "reason", reason, "session_id", session.ID)
}

func (s *AuthService) logTokenFailure(ctx context.Context, op string, err error) {
	if errors.Is(err, common.ErrTokenExpired) {
		s.logger.Info(ctx, op+" rejected: token expired")
		return
	}
	s.logger.Warn(ctx, op+" rejected: invalid token", "error", err)
}
