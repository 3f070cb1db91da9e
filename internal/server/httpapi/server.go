// Package httpapi is the JSON HTTP boundary: it binds requests, calls the
// services and maps the error taxonomy onto status codes.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/ordermeow/ordermeow/internal/logging"
	"github.com/ordermeow/ordermeow/internal/server/auth"
	"github.com/ordermeow/ordermeow/internal/server/models"
	"github.com/ordermeow/ordermeow/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

type AuthAPI interface {
	Register(ctx context.Context, userName, password string) (*services.TokenPair, error)
	Login(ctx context.Context, userName, password string) (*services.TokenPair, error)
	RefreshTokenPair(ctx context.Context, accessToken, refreshToken string) (*services.TokenPair, error)
	InvalidateUserTokens(ctx context.Context, userID uuid.UUID) error
}

type OrderAPI interface {
	Create(ctx context.Context, userID uuid.UUID, title, description string) (*models.Order, error)
	List(ctx context.Context, userID uuid.UUID) ([]*models.Order, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	Update(ctx context.Context, userID, orderID uuid.UUID, title, description string) (*models.Order, error)
	Delete(ctx context.Context, userID, orderID uuid.UUID) error
	SetStatus(ctx context.Context, userID, orderID uuid.UUID, status string) error
}

// TokenVerifier checks bearer tokens. *auth.Codec satisfies it.
type TokenVerifier interface {
	Verify(token string, opts auth.VerifyOptions) (*auth.Claims, error)
}

type HTTPServer struct {
	address string
	echo    *echo.Echo
	logger  logging.Logger
}

func NewHTTPServer(address string, l logging.Logger, authAPI AuthAPI, orderAPI OrderAPI, verifier TokenVerifier) *HTTPServer {
	logger := l.With("module", "http_server")
	return &HTTPServer{
		address: address,
		echo:    NewRouter(logger, authAPI, orderAPI, verifier),
		logger:  logger,
	}
}

// NewRouter builds the echo instance with every route registered.
func NewRouter(logger logging.Logger, authAPI AuthAPI, orderAPI OrderAPI, verifier TokenVerifier) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Debug(c.Request().Context(), "http request",
				"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	bearer := BearerAuth(verifier)

	ah := &authHandler{svc: authAPI}
	g := e.Group("/api/auth")
	g.POST("/register", ah.register)
	g.POST("/login", ah.login)
	g.POST("/refresh", ah.refresh)
	g.POST("/logout-all", ah.logoutAll, bearer)

	admin := e.Group("/api/admin", bearer, RequireRole(models.RoleAdmin))
	admin.GET("/ping", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	oh := &orderHandler{svc: orderAPI}
	o := e.Group("/orders", bearer)
	o.POST("", oh.create)
	o.GET("", oh.list)
	o.GET("/:id", oh.get)
	o.PUT("/:id", oh.update)
	o.DELETE("/:id", oh.delete)
	o.PATCH("/:id/status", oh.setStatus)

	return e
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		if err := s.echo.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
