package admin

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"resellerdesk/app/echoServer/jwtx"
	balancereqsvc "resellerdesk/service/balancereq"
	ledgersvc "resellerdesk/service/ledger"
	ordersvc "resellerdesk/service/order"
	stocksvc "resellerdesk/service/stock"
)

type Controller struct {
	Orders   ordersvc.Service
	Stock    stocksvc.Service
	Requests balancereqsvc.Service
	Ledger   ledgersvc.Service
	V        *validator.Validate
	Log      *slog.Logger
}

func pathID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// PUT /v1/admin/orders/:id/status
func (h *Controller) SetOrderStatus(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req SetOrderStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	actorID, err := jwtx.ActorIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	o, err := h.Orders.SetStatus(c.Request().Context(), actorID, id, req.Status, req.AdminNote)
	if err != nil {
		switch {
		case errors.Is(err, ordersvc.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "order not found"})
		case errors.Is(err, ordersvc.ErrInvalidTransition):
			return c.JSON(http.StatusConflict, echo.Map{"message": err.Error()})
		case errors.Is(err, ordersvc.ErrInsufficientBalance):
			return c.JSON(http.StatusPaymentRequired, echo.Map{"message": "insufficient balance to re-activate"})
		default:
			h.Log.Error("set order status failed", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, o)
}

// POST /v1/admin/orders/:id/dispatch retries fulfillment of a pending order.
func (h *Controller) Redispatch(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	o, err := h.Orders.Redispatch(c.Request().Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ordersvc.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "order not found"})
		case errors.Is(err, ordersvc.ErrNotPending):
			return c.JSON(http.StatusConflict, echo.Map{"message": err.Error()})
		case errors.Is(err, ordersvc.ErrInsufficientStock):
			return c.JSON(http.StatusConflict, echo.Map{"message": "insufficient stock"})
		default:
			h.Log.Error("redispatch failed", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, o)
}

// PUT /v1/admin/package-orders/:id/status
func (h *Controller) SetPackageOrderStatus(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req SetPackageStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	actorID, err := jwtx.ActorIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	po, res, err := h.Orders.SetPackageStatus(c.Request().Context(), actorID, id, req.Status, req.AdminNote)
	if err != nil {
		switch {
		case errors.Is(err, ordersvc.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "package order not found"})
		case errors.Is(err, ordersvc.ErrInvalidTransition):
			return c.JSON(http.StatusConflict, echo.Map{"message": err.Error()})
		default:
			h.Log.Error("set package order status failed", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}

	out := echo.Map{"package_order": po}
	if res != nil {
		out["reseller_id"] = res.Reseller.ID
		out["created"] = res.Created
		if res.GeneratedPassword != "" {
			// Shown exactly once for transmission to the applicant.
			out["generated_password"] = res.GeneratedPassword
		}
	}
	return c.JSON(http.StatusOK, out)
}

// POST /v1/admin/balance-requests/:id/approve
func (h *Controller) ApproveRequest(c echo.Context) error {
	return h.processRequest(c, true)
}

// POST /v1/admin/balance-requests/:id/reject
func (h *Controller) RejectRequest(c echo.Context) error {
	return h.processRequest(c, false)
}

func (h *Controller) processRequest(c echo.Context, approve bool) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req ProcessRequestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	actorID, err := jwtx.ActorIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	ctx := c.Request().Context()
	var out any
	if approve {
		out, err = h.Requests.Approve(ctx, actorID, id, req.AdminNote)
	} else {
		out, err = h.Requests.Reject(ctx, actorID, id, req.AdminNote)
	}
	if err != nil {
		switch {
		case errors.Is(err, balancereqsvc.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "balance request not found"})
		case errors.Is(err, balancereqsvc.ErrAlreadyProcessed):
			return c.JSON(http.StatusConflict, echo.Map{"message": err.Error()})
		default:
			h.Log.Error("process balance request failed", "err", err, "approve", approve)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, out)
}

// GET /v1/admin/balance-requests
func (h *Controller) PendingRequests(c echo.Context) error {
	rows, err := h.Requests.ListPending(c.Request().Context())
	if err != nil {
		h.Log.Error("list pending requests failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// POST /v1/admin/products/:id/stock
func (h *Controller) ImportStock(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req ImportStockReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}

	res, err := h.Stock.AddItems(c.Request().Context(), id, req.Lines)
	if err != nil {
		if errors.Is(err, stocksvc.ErrProductNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "product not found"})
		}
		h.Log.Error("stock import failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, res)
}

// GET /v1/admin/products/:id/stock
func (h *Controller) ListStock(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	items, err := h.Stock.List(c.Request().Context(), id)
	if err != nil {
		h.Log.Error("list stock failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	count, err := h.Stock.AvailableCount(c.Request().Context(), id)
	if err != nil {
		h.Log.Error("stock count failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items, "available": count})
}

// DELETE /v1/admin/stock/:id
func (h *Controller) DeleteStock(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	if err := h.Stock.Delete(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, stocksvc.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "stock item not found"})
		case errors.Is(err, stocksvc.ErrNotAvailable):
			return c.JSON(http.StatusConflict, echo.Map{"message": "stock item is reserved or delivered"})
		default:
			h.Log.Error("delete stock failed", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}

// POST /v1/admin/balance/adjust applies an administrative correction; debits clamp at zero.
func (h *Controller) AdjustBalance(c echo.Context) error {
	var req AdjustBalanceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}

	txID, err := h.Ledger.Adjust(c.Request().Context(), req.ResellerID, req.Amount, req.Kind, req.Description)
	if err != nil {
		if errors.Is(err, ledgersvc.ErrInvalidAmount) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "amount must be positive"})
		}
		h.Log.Error("balance adjust failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"transaction_id": txID})
}
