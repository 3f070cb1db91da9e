// Package auth holds the stateless pieces of the token lifecycle: the access
// token codec, the principal extractor used by the refresh flow, the refresh
// token generator and the password hasher.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ordermeow/ordermeow/internal/common"
	"github.com/ordermeow/ordermeow/internal/server/models"
)

// signingMethod is the only algorithm the codec signs with or accepts.
var signingMethod = jwt.SigningMethodHS256

// Claims are the typed contents of an access token.
type Claims struct {
	jwt.RegisteredClaims
	UserName string `json:"unique_name"`
	Role     string `json:"role"`
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("malformed subject: %w", err)
	}
	return id, nil
}

type CodecConfig struct {
	Secret    []byte
	Issuer    string
	Audience  string
	AccessTTL time.Duration
}

// Codec signs and verifies access tokens. It is safe for concurrent use.
type Codec struct {
	cfg CodecConfig
	now func() time.Time
}

func NewCodec(cfg CodecConfig) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("jwt secret must not be empty")
	}
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("access token ttl must be positive")
	}
	return &Codec{cfg: cfg, now: time.Now}, nil
}

// Issue mints an access token for user and returns it with its expiry.
func (c *Codec) Issue(user *models.User) (string, time.Time, error) {
	now := c.now()
	expiresAt := now.Add(c.cfg.AccessTTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    c.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserName: user.UserName,
		Role:     string(user.Role),
	}
	if c.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{c.cfg.Audience}
	}

	tokenString, err := jwt.NewWithClaims(signingMethod, claims).SignedString(c.cfg.Secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

type VerifyOptions struct {
	// IgnoreExpiry accepts elapsed tokens and skips issuer/audience checks.
	// Only the refresh flow may set it; see PrincipalExtractor.
	IgnoreExpiry bool
}

// Verify checks signature and algorithm and, unless IgnoreExpiry is set,
// expiry, issuer and audience. Every failure wraps common.ErrInvalidToken;
// an elapsed token also wraps common.ErrTokenExpired.
func (c *Codec) Verify(tokenString string, opts VerifyOptions) (*Claims, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithTimeFunc(c.now),
	}
	if opts.IgnoreExpiry {
		parserOpts = append(parserOpts, jwt.WithoutClaimsValidation())
	} else {
		parserOpts = append(parserOpts, jwt.WithExpirationRequired())
		if c.cfg.Issuer != "" {
			parserOpts = append(parserOpts, jwt.WithIssuer(c.cfg.Issuer))
		}
		if c.cfg.Audience != "" {
			parserOpts = append(parserOpts, jwt.WithAudience(c.cfg.Audience))
		}
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, c.keyFunc, parserOpts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, common.ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

func (c *Codec) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok || t.Method.Alg() != signingMethod.Alg() {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return c.cfg.Secret, nil
}
