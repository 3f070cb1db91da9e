package httpapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ordermeow/ordermeow/internal/common"
)

type credentialsRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

type refreshRequest struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type authHandler struct {
	svc AuthAPI
}

func bindJSON(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return fmt.Errorf("%w: malformed request body", common.ErrorInvalidInput)
	}
	return nil
}

func (h *authHandler) register(c echo.Context) error {
	var req credentialsRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	pair, err := h.svc.Register(c.Request().Context(), req.UserName, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, pair)
}

func (h *authHandler) login(c echo.Context) error {
	var req credentialsRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	pair, err := h.svc.Login(c.Request().Context(), req.UserName, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pair)
}

func (h *authHandler) refresh(c echo.Context) error {
	var req refreshRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	pair, err := h.svc.RefreshTokenPair(c.Request().Context(), req.AccessToken, req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pair)
}

func (h *authHandler) logoutAll(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	if err := h.svc.InvalidateUserTokens(c.Request().Context(), userID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
