// Package services contains server-side business logic. This file implements
// AuthService, which owns the token lifecycle: registration, login, refresh
// token rotation and revocation of a user's sessions.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ordermeow/ordermeow/internal/common"
	"github.com/ordermeow/ordermeow/internal/dbx"
	"github.com/ordermeow/ordermeow/internal/logging"
	"github.com/ordermeow/ordermeow/internal/server/auth"
	"github.com/ordermeow/ordermeow/internal/server/models"
	"github.com/ordermeow/ordermeow/internal/server/repositories/repomanager"
)

const (
	MinPasswordLength = 6
	// bcrypt ignores input past this length.
	MaxPasswordLength = 72

	DefaultLoginMinDuration = 500 * time.Millisecond
)

// TokenPair is returned by every operation that opens or continues a session.
type TokenPair struct {
	AccessToken           string    `json:"accessToken"`
	AccessTokenExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshToken          string    `json:"refreshToken"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
}

type AuthDeps struct {
	// DB serves reads that need no transaction.
	DB    dbx.DBTX
	Tx    dbx.TxRunner
	Repos repomanager.RepositoryManager

	Codec   *auth.Codec
	Refresh *auth.RefreshGenerator
	Hasher  auth.PasswordHasher
	Logger  logging.Logger

	// LoginMinDuration is the floor on Login latency. Zero means
	// DefaultLoginMinDuration; a negative value disables the floor.
	LoginMinDuration time.Duration
}

// AuthService issues and rotates token pairs. Every multi-step change runs
// in a single transaction through the TxRunner.
type AuthService struct {
	db        dbx.DBTX
	tx        dbx.TxRunner
	repos     repomanager.RepositoryManager
	codec     *auth.Codec
	principal *auth.PrincipalExtractor
	refresh   *auth.RefreshGenerator
	hasher    auth.PasswordHasher
	log       logging.Logger

	loginMinDuration time.Duration
	now              func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(d AuthDeps) *AuthService {
	log := d.Logger
	if log == nil {
		log = logging.NopLogger{}
	}
	minDuration := d.LoginMinDuration
	if minDuration == 0 {
		minDuration = DefaultLoginMinDuration
	}
	return &AuthService{
		db:               d.DB,
		tx:               d.Tx,
		repos:            d.Repos,
		codec:            d.Codec,
		principal:        auth.NewPrincipalExtractor(d.Codec),
		refresh:          d.Refresh,
		hasher:           d.Hasher,
		log:              log.With("module", "auth_service"),
		loginMinDuration: minDuration,
		now:              time.Now,
	}
}

// Register creates a user with role User and opens its first session.
func (s *AuthService) Register(ctx context.Context, userName, password string) (*TokenPair, error) {
	userName = strings.TrimSpace(userName)
	if err := validateCredentials(userName, password); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, s.fail(ctx, "register", err)
	}

	var pair *TokenPair
	err = s.tx.RunInTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repos.Users(tx)

		_, err := users.GetByUserName(ctx, userName)
		switch {
		case err == nil:
			return fmt.Errorf("%w: username %q is taken", common.ErrorConflict, userName)
		case !errors.Is(err, common.ErrorNotFound):
			return err
		}

		user := &models.User{
			ID:           uuid.New(),
			UserName:     userName,
			PasswordHash: hash,
			Role:         models.RoleUser,
			CreatedAt:    s.now().UTC(),
		}
		if err := users.Create(ctx, user); err != nil {
			return err
		}

		pair, err = s.issuePair(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, "register", err)
	}

	s.log.Info(ctx, "user registered", "user", userName)
	return pair, nil
}

// Login verifies credentials, revokes every session the user still holds
// and opens a new one. All failures look the same to the caller and take at
// least loginMinDuration.
func (s *AuthService) Login(ctx context.Context, userName, password string) (*TokenPair, error) {
	userName = strings.TrimSpace(userName)
	if err := validateCredentials(userName, password); err != nil {
		return nil, err
	}

	start := time.Now()
	defer s.holdLogin(ctx, start)

	user, err := s.repos.Users(s.db).GetByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Verify(password, s.dummyPasswordHash())
			return nil, s.reject(ctx, "user not found", "user", userName)
		}
		return nil, s.fail(ctx, "login", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, s.reject(ctx, "password mismatch", "user", userName)
	}

	var pair *TokenPair
	err = s.tx.RunInTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repos.RefreshTokens(tx).RevokeAllForUser(ctx, user.ID, s.now().UTC()); err != nil {
			return err
		}
		var err error
		pair, err = s.issuePair(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, "login", err)
	}

	return pair, nil
}

// RefreshTokenPair exchanges a (possibly expired) access token and a live
// refresh token for a new pair. The presented refresh token is revoked in
// the same transaction that stores its successor, so a value can be
// redeemed at most once even under concurrent attempts.
//
// Concurrent presentations of one value serialize on the row lock taken by
// FindForUpdate. The loser re-reads the row after the winner commits, finds
// it revoked and is rejected. Should the store instead abort the loser with
// a serialization failure or deadlock, that is rejected the same way.
func (s *AuthService) RefreshTokenPair(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error) {
	if strings.TrimSpace(accessToken) == "" || strings.TrimSpace(refreshToken) == "" {
		return nil, fmt.Errorf("%w: access and refresh tokens are required", common.ErrorInvalidInput)
	}

	claims, err := s.principal.ExtractIgnoringExpiry(accessToken)
	if err != nil {
		return nil, s.reject(ctx, "access token rejected", "error", err)
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, s.reject(ctx, "access token subject malformed", "error", err)
	}

	var pair *TokenPair
	err = s.tx.RunInTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.repos.Users(tx).GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return s.reject(ctx, "user not found", "user_id", userID)
			}
			return err
		}

		// a role change since issuance invalidates the session
		if claims.Role != string(user.Role) {
			return s.reject(ctx, "role mismatch", "user_id", userID, "claimed", claims.Role, "stored", user.Role)
		}

		tokens := s.repos.RefreshTokens(tx)
		current, err := tokens.FindForUpdate(ctx, refreshToken, user.ID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return s.reject(ctx, "refresh token not found", "user_id", userID)
			}
			return err
		}

		now := s.now().UTC()
		if !current.IsActive(now) {
			return s.reject(ctx, "refresh token inactive", "user_id", userID, "token_id", current.ID)
		}

		if err := tokens.Revoke(ctx, current.ID, now); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return s.reject(ctx, "refresh token already rotated", "user_id", userID, "token_id", current.ID)
			}
			return err
		}

		pair, err = s.issuePair(ctx, tx, user)
		return err
	})
	if err != nil {
		// another rotation of the same row won; the value is spent either way
		if common.IsConcurrentUpdate(err) {
			return nil, s.reject(ctx, "concurrent rotation", "user_id", userID, "error", err)
		}
		return nil, s.fail(ctx, "refresh", err)
	}

	s.log.Debug(ctx, "token pair rotated", "user_id", userID)
	return pair, nil
}

// InvalidateUserTokens revokes every active refresh token of userID.
// Already issued access tokens stay valid until they expire.
func (s *AuthService) InvalidateUserTokens(ctx context.Context, userID uuid.UUID) error {
	var n int64
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		n, err = s.repos.RefreshTokens(tx).RevokeAllForUser(ctx, userID, s.now().UTC())
		return err
	})
	if err != nil {
		return s.fail(ctx, "invalidate tokens", err)
	}

	s.log.Info(ctx, "user tokens invalidated", "user_id", userID, "revoked", n)
	return nil
}

// issuePair persists a new refresh token through tx and mints the matching
// access token.
func (s *AuthService) issuePair(ctx context.Context, tx dbx.DBTX, user *models.User) (*TokenPair, error) {
	rt, err := s.refresh.GenerateAndPersist(ctx, s.repos.RefreshTokens(tx), user)
	if err != nil {
		return nil, err
	}
	access, expiresAt, err := s.codec.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("error signing access token: %w", err)
	}
	return &TokenPair{
		AccessToken:           access,
		AccessTokenExpiresAt:  expiresAt,
		RefreshToken:          rt.Token,
		RefreshTokenExpiresAt: rt.ExpiresAt,
	}, nil
}

func validateCredentials(userName, password string) error {
	if userName == "" || strings.TrimSpace(password) == "" {
		return fmt.Errorf("%w: username and password are required", common.ErrorInvalidInput)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrorInvalidInput, MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("%w: password must be at most %d bytes", common.ErrorInvalidInput, MaxPasswordLength)
	}
	return nil
}

// reject logs the internal reason and returns the undifferentiated
// Unauthorized category.
func (s *AuthService) reject(ctx context.Context, reason string, args ...any) error {
	s.log.Warn(ctx, "authentication rejected", append([]any{"reason", reason}, args...)...)
	return common.ErrorUnauthorized
}

func (s *AuthService) fail(ctx context.Context, op string, err error) error {
	err = common.Classify(err)
	if errors.Is(err, common.ErrorInternal) || errors.Is(err, common.ErrorTransient) {
		s.log.Error(ctx, op+" failed", "error", err)
	}
	return err
}

// holdLogin sleeps until loginMinDuration has passed since start or ctx is
// done.
func (s *AuthService) holdLogin(ctx context.Context, start time.Time) {
	remaining := s.loginMinDuration - time.Since(start)
	if remaining <= 0 {
		return
	}
	t := time.NewTimer(remaining)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// dummyPasswordHash is compared against when the user does not exist so the
// miss costs one hash verification like a hit does.
func (s *AuthService) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		secret, err := common.MakeRandHexString(16)
		if err != nil {
			return
		}
		if h, err := s.hasher.Hash(secret); err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}
