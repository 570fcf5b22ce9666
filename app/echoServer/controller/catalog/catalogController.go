package catalog

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"resellerdesk/model"
	productrepo "resellerdesk/repository/product"
	balancereqsvc "resellerdesk/service/balancereq"
)

type Controller struct {
	Products productrepo.Repo
	Requests balancereqsvc.Service
	V        *validator.Validate
	Log      *slog.Logger
}

type CreateProductReq struct {
	Name         string          `json:"name" validate:"required"`
	Price        decimal.Decimal `json:"price" validate:"required"`
	ProviderCode string          `json:"provider_code"`
	ExternalID   string          `json:"external_id"`
}

type CreatePackageReq struct {
	Name           string          `json:"name" validate:"required"`
	Price          decimal.Decimal `json:"price" validate:"required"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

type ApplyReq struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone"`
	FormData string `json:"form_data"`
}

// GET /v1/products
func (h *Controller) ListProducts(c echo.Context) error {
	out, err := h.Products.List(c.Request().Context())
	if err != nil {
		h.Log.Error("list products failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// GET /v1/packages is public: the dealership application page needs it.
func (h *Controller) ListPackages(c echo.Context) error {
	out, err := h.Products.ListPackages(c.Request().Context())
	if err != nil {
		h.Log.Error("list packages failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// POST /v1/packages/:id/apply takes a public dealership application.
func (h *Controller) Apply(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req ApplyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}

	po, br, err := h.Requests.ApplyPackage(c.Request().Context(), id, req.Name, req.Email, req.Phone, req.FormData)
	if err != nil {
		if errors.Is(err, balancereqsvc.ErrPackageNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "package not found"})
		}
		h.Log.Error("package application failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"package_order":   po,
		"balance_request": br,
	})
}

// POST /v1/admin/products
func (h *Controller) CreateProduct(c echo.Context) error {
	var req CreateProductReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	if !req.Price.IsPositive() {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "price must be positive"})
	}

	p := &model.Product{
		Name:         req.Name,
		Price:        req.Price,
		ProviderCode: req.ProviderCode,
		ExternalID:   req.ExternalID,
	}
	if err := h.Products.Create(c.Request().Context(), p); err != nil {
		h.Log.Error("create product failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusCreated, p)
}

// POST /v1/admin/packages
func (h *Controller) CreatePackage(c echo.Context) error {
	var req CreatePackageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	if !req.Price.IsPositive() || req.InitialBalance.IsNegative() {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid amounts"})
	}

	p := &model.Package{
		Name:           req.Name,
		Price:          req.Price,
		InitialBalance: req.InitialBalance,
	}
	if err := h.Products.CreatePackage(c.Request().Context(), p); err != nil {
		h.Log.Error("create package failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusCreated, p)
}
