package httpapi

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/ordermeow/ordermeow/internal/common"
)

type orderRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type orderStatusRequest struct {
	Status string `json:"status"`
}

type orderHandler struct {
	svc OrderAPI
}

// pathIDs returns the caller and the order id from the path. A malformed id
// is reported as not found, like an order of another user.
func pathIDs(c echo.Context) (uuid.UUID, uuid.UUID, error) {
	userID, err := currentUserID(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: order %q", common.ErrorNotFound, c.Param("id"))
	}
	return userID, orderID, nil
}

func (h *orderHandler) create(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req orderRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	order, err := h.svc.Create(c.Request().Context(), userID, req.Title, req.Description)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": order.ID})
}

func (h *orderHandler) list(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	orders, err := h.svc.List(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *orderHandler) get(c echo.Context) error {
	userID, orderID, err := pathIDs(c)
	if err != nil {
		return err
	}
	order, err := h.svc.Get(c.Request().Context(), userID, orderID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

func (h *orderHandler) update(c echo.Context) error {
	userID, orderID, err := pathIDs(c)
	if err != nil {
		return err
	}
	var req orderRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if _, err := h.svc.Update(c.Request().Context(), userID, orderID, req.Title, req.Description); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *orderHandler) delete(c echo.Context) error {
	userID, orderID, err := pathIDs(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), userID, orderID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *orderHandler) setStatus(c echo.Context) error {
	userID, orderID, err := pathIDs(c)
	if err != nil {
		return err
	}
	var req orderStatusRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if err := h.svc.SetStatus(c.Request().Context(), userID, orderID, req.Status); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
