package main

import (
	"fishledger-backend/internal/actions"
	"fishledger-backend/internal/audit"
	"fishledger-backend/internal/auth"
	"fishledger-backend/internal/cashflow"
	"fishledger-backend/internal/config"
	"fishledger-backend/internal/dashboard"
	"fishledger-backend/internal/expense"
	"fishledger-backend/internal/inventory"
	"fishledger-backend/internal/party"
	"fishledger-backend/internal/report"
	"fishledger-backend/internal/sale"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func setupRoutes(app *fiber.App, cfg *config.Config, logger *logrus.Logger, svc *actions.Service, rep *report.Reporter) {
	db := svc.DB()
	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-first-admin", auth.RegisterFirstAdminHandler(db, logger))
	api.Post("/auth/login", auth.LoginHandler(cfg, db))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler(db))

	users := protected.Group("/users", auth.RequirePermission(auth.PermUserManage))
	users.Get("", auth.ListUsersHandler(db))
	users.Post("", auth.CreateUserHandler(db, logger))

	protected.Get("/audit-logs", auth.RequirePermission(auth.PermAuditRead), audit.ListAuditLogsHandler(db))

	party.Register(protected, svc)
	inventory.Register(protected, svc)
	sale.Register(protected, svc)
	cashflow.Register(protected, svc, rep)
	expense.Register(protected, svc)
	dashboard.Register(protected, rep)
	report.Register(protected, rep)
}
