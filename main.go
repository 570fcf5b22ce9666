// Package main reseller desk API.
//
// @title           Reseller Desk API
// @version         1.0
// @description     reseller storefront (orders, stock, balances, dealership packages).
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"resellerdesk/app/echoServer"
	adminctl "resellerdesk/app/echoServer/controller/admin"
	authctl "resellerdesk/app/echoServer/controller/auth"
	balancectl "resellerdesk/app/echoServer/controller/balance"
	catalogctl "resellerdesk/app/echoServer/controller/catalog"
	orderctl "resellerdesk/app/echoServer/controller/order"
	"resellerdesk/app/echoServer/validation"
	"resellerdesk/config"
	"resellerdesk/notify"
	balancereqrepo "resellerdesk/repository/balancereq"
	ledgerrepo "resellerdesk/repository/ledger"
	orderrepo "resellerdesk/repository/order"
	productrepo "resellerdesk/repository/product"
	providerrepo "resellerdesk/repository/provider"
	resellerrepo "resellerdesk/repository/reseller"
	stockrepo "resellerdesk/repository/stock"
	authsvc "resellerdesk/service/auth"
	balancereqsvc "resellerdesk/service/balancereq"
	ledgersvc "resellerdesk/service/ledger"
	ordersvc "resellerdesk/service/order"
	"resellerdesk/service/provisioning"
	stocksvc "resellerdesk/service/stock"
	"resellerdesk/util/database"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", "err", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.DSN)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Error("migration failed", "err", err)
		os.Exit(1)
	}

	// repos
	rr := resellerrepo.New(db.DB)
	pr := productrepo.New(db.DB)
	or := orderrepo.New(db.DB)
	lr := ledgerrepo.New(db.DB)
	sr := stockrepo.New(db.DB)
	brr := balancereqrepo.New(db.DB)
	provider := providerrepo.NewHTTP(cfg.Provider)

	notifier := notify.NewDispatcher(log)
	defer notifier.Close()

	// services
	ls := ledgersvc.New(db, rr, lr)
	ss := stocksvc.New(pr, sr)
	ps := provisioning.New(rr, ls)
	ords := ordersvc.New(db, rr, pr, or, ls, ss, provider, ps, notifier)
	brs := balancereqsvc.New(db, brr, or, pr, ls, ps, notifier)
	as := authsvc.New(rr, cfg.JWTSecret, cfg.TokenTTL)

	// controllers
	v := validator.New()
	authC := &authctl.Controller{Svc: as, V: v, Log: log}
	orderC := &orderctl.Controller{Svc: ords, V: v, Log: log}
	balanceC := &balancectl.Controller{Ledger: ls, Requests: brs, Resellers: rr, V: v, Log: log}
	catalogC := &catalogctl.Controller{Products: pr, Requests: brs, V: v, Log: log}
	adminC := &adminctl.Controller{Orders: ords, Stock: ss, Requests: brs, Ledger: ls, V: v, Log: log}

	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{"status": "ok"})
	})

	echoServer.RegisterRoutes(e, cfg.JWTSecret, echoServer.Controllers{
		Auth:    authC,
		Orders:  orderC,
		Balance: balanceC,
		Catalog: catalogC,
		Admin:   adminC,
	})

	log.Info("starting server", "port", cfg.Port, "env", cfg.Env, "provider_enabled", cfg.Provider.Enabled)
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
