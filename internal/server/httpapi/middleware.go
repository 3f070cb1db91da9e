package httpapi

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/ordermeow/ordermeow/internal/common"
	"github.com/ordermeow/ordermeow/internal/server/auth"
	"github.com/ordermeow/ordermeow/internal/server/models"
)

const (
	ctxClaims = "claims"
	ctxUserID = "user_id"
)

// BearerAuth validates the access token strictly (expiry, issuer, audience)
// and stores its claims and subject in the echo context.
func BearerAuth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(common.AuthorizationHeaderName)
			if !strings.HasPrefix(header, common.BearerPrefix) {
				return common.ErrorUnauthorized
			}
			raw := strings.TrimSpace(strings.TrimPrefix(header, common.BearerPrefix))

			claims, err := verifier.Verify(raw, auth.VerifyOptions{})
			if err != nil {
				return common.ErrorUnauthorized
			}
			userID, err := claims.UserID()
			if err != nil {
				return common.ErrorUnauthorized
			}

			c.Set(ctxClaims, claims)
			c.Set(ctxUserID, userID)
			return next(c)
		}
	}
}

// RequireRole rejects requests whose token role is not one of roles. It must
// run after BearerAuth.
func RequireRole(roles ...models.Role) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[string(r)] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(ctxClaims).(*auth.Claims)
			if !ok || !allowed[claims.Role] {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}

func currentUserID(c echo.Context) (uuid.UUID, error) {
	id, ok := c.Get(ctxUserID).(uuid.UUID)
	if !ok {
		return uuid.Nil, common.ErrorUnauthorized
	}
	return id, nil
}
