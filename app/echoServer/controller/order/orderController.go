package order

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"resellerdesk/app/echoServer/jwtx"
	ordersvc "resellerdesk/service/order"
)

type Controller struct {
	Svc ordersvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/orders is the self-service entry point.
func (h *Controller) Place(c echo.Context) error {
	var req PlaceOrderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}

	resellerID, err := jwtx.ActorIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	o, err := h.Svc.Place(c.Request().Context(), resellerID, req.ProductID, req.Quantity, "panel")
	if err != nil {
		switch {
		case errors.Is(err, ordersvc.ErrInsufficientBalance):
			return c.JSON(http.StatusPaymentRequired, echo.Map{"message": "insufficient balance"})
		case errors.Is(err, ordersvc.ErrInsufficientStock):
			return c.JSON(http.StatusConflict, echo.Map{"message": "insufficient stock"})
		case errors.Is(err, ordersvc.ErrProductNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "product not found"})
		case errors.Is(err, ordersvc.ErrResellerInactive):
			return c.JSON(http.StatusForbidden, echo.Map{"message": "account is inactive"})
		case errors.Is(err, ordersvc.ErrInvalidQuantity):
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid quantity"})
		default:
			h.Log.Error("order place failed", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}

	return c.JSON(http.StatusCreated, o)
}

// GET /v1/orders/my
func (h *Controller) My(c echo.Context) error {
	resellerID, err := jwtx.ActorIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	orders, err := h.Svc.ListByReseller(c.Request().Context(), resellerID)
	if err != nil {
		h.Log.Error("list orders failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": orders})
}

// GET /v1/orders/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	resellerID, err := jwtx.ActorIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	o, err := h.Svc.ByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ordersvc.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "order not found"})
		}
		h.Log.Error("order detail failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	if o.ResellerID != resellerID {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	return c.JSON(http.StatusOK, o)
}
