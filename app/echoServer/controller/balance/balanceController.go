package balance

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"resellerdesk/app/echoServer/jwtx"
	resellerrepo "resellerdesk/repository/reseller"
	balancereqsvc "resellerdesk/service/balancereq"
	ledgersvc "resellerdesk/service/ledger"
)

type Controller struct {
	Ledger    ledgersvc.Service
	Requests  balancereqsvc.Service
	Resellers resellerrepo.Repo
	V         *validator.Validate
	Log       *slog.Logger
}

type TopupReq struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

// GET /v1/balance is a non-authoritative display read.
func (h *Controller) Balance(c echo.Context) error {
	resellerID, err := jwtx.ActorIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	r, err := h.Resellers.ByID(c.Request().Context(), resellerID)
	if err != nil {
		h.Log.Error("balance read failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"balance": r.Balance})
}

// GET /v1/balance/transactions
func (h *Controller) History(c echo.Context) error {
	resellerID, err := jwtx.ActorIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	rows, err := h.Ledger.History(c.Request().Context(), resellerID)
	if err != nil {
		h.Log.Error("ledger history failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// POST /v1/balance/requests
func (h *Controller) RequestTopup(c echo.Context) error {
	var req TopupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	resellerID, err := jwtx.ActorIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	br, err := h.Requests.RequestTopup(c.Request().Context(), resellerID, req.Amount)
	if err != nil {
		if errors.Is(err, balancereqsvc.ErrInvalidAmount) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "amount must be positive"})
		}
		h.Log.Error("topup request failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusCreated, br)
}

// GET /v1/balance/requests
func (h *Controller) MyRequests(c echo.Context) error {
	resellerID, err := jwtx.ActorIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	rows, err := h.Requests.ListByReseller(c.Request().Context(), resellerID)
	if err != nil {
		h.Log.Error("list balance requests failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}
