package echoServer

import (
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	adminctl "resellerdesk/app/echoServer/controller/admin"
	authctl "resellerdesk/app/echoServer/controller/auth"
	balancectl "resellerdesk/app/echoServer/controller/balance"
	catalogctl "resellerdesk/app/echoServer/controller/catalog"
	orderctl "resellerdesk/app/echoServer/controller/order"
)

type Controllers struct {
	Auth    *authctl.Controller
	Orders  *orderctl.Controller
	Balance *balancectl.Controller
	Catalog *catalogctl.Controller
	Admin   *adminctl.Controller
}

func RegisterRoutes(e *echo.Echo, jwtSecret string, ctl Controllers) {
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	v1 := e.Group("/v1")

	// Public surface: login and the dealership application page.
	v1.POST("/auth/login", ctl.Auth.Login)
	v1.GET("/packages", ctl.Catalog.ListPackages)
	v1.POST("/packages/:id/apply", ctl.Catalog.Apply)

	authed := v1.Group("")
	authed.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(jwtSecret),
	}))
	authed.Use(Claims())

	authed.GET("/products", ctl.Catalog.ListProducts)

	authed.POST("/orders", ctl.Orders.Place)
	authed.GET("/orders/my", ctl.Orders.My)
	authed.GET("/orders/:id", ctl.Orders.Detail)

	authed.GET("/balance", ctl.Balance.Balance)
	authed.GET("/balance/transactions", ctl.Balance.History)
	authed.POST("/balance/requests", ctl.Balance.RequestTopup)
	authed.GET("/balance/requests", ctl.Balance.MyRequests)

	admin := authed.Group("/admin")
	admin.Use(AdminOnly())

	admin.POST("/products", ctl.Catalog.CreateProduct)
	admin.POST("/packages", ctl.Catalog.CreatePackage)

	admin.POST("/products/:id/stock", ctl.Admin.ImportStock)
	admin.GET("/products/:id/stock", ctl.Admin.ListStock)
	admin.DELETE("/stock/:id", ctl.Admin.DeleteStock)

	admin.PUT("/orders/:id/status", ctl.Admin.SetOrderStatus)
	admin.POST("/orders/:id/dispatch", ctl.Admin.Redispatch)
	admin.PUT("/package-orders/:id/status", ctl.Admin.SetPackageOrderStatus)

	admin.GET("/balance-requests", ctl.Admin.PendingRequests)
	admin.POST("/balance-requests/:id/approve", ctl.Admin.ApproveRequest)
	admin.POST("/balance-requests/:id/reject", ctl.Admin.RejectRequest)
	admin.POST("/balance/adjust", ctl.Admin.AdjustBalance)
}
