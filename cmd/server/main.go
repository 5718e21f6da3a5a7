package main

import (
	"strings"
	"time"

	"fishledger-backend/internal/actions"
	"fishledger-backend/internal/attachment"
	"fishledger-backend/internal/config"
	"fishledger-backend/internal/database"
	"fishledger-backend/internal/httpx"
	"fishledger-backend/internal/receipt"
	"fishledger-backend/internal/report"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger(cfg.LogLevel)
	db := database.Init(cfg, logger)

	cache := report.NewCache(cfg.RedisAddress, time.Duration(cfg.ReportCacheTTL)*time.Second, logger)
	defer cache.Close()

	var mailer receipt.Mailer
	if cfg.SMTPHost != "" {
		mailer = receipt.NewSMTPMailer(receipt.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	}

	opts := []actions.Option{
		actions.WithAttachments(attachment.NewStore(cfg.AttachmentPath)),
		actions.WithReceipts(receipt.Business{
			Name:    cfg.BusinessName,
			Address: cfg.BusinessAddress,
			Phone:   cfg.BusinessPhone,
		}, mailer),
	}
	if cache != nil {
		opts = append(opts, actions.WithListener(cache))
		logger.WithField("addr", cfg.RedisAddress).Info("report cache enabled")
	}
	svc := actions.NewService(db, logger, opts...)
	rep := report.NewReporter(db, logger, report.WithCache(cache))

	app := fiber.New(fiber.Config{
		ErrorHandler: httpx.ErrorHandler(logger),
		BodyLimit:    attachment.MaxSize + 1<<20,
	})

	// CORS origins come comma separated
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  strings.Join(corsOrigins, ","),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		ExposeHeaders: "Content-Disposition",
	}))

	setupRoutes(app, cfg, logger, svc, rep)

	logger.WithField("port", cfg.HTTPPort).Info("server listening")
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		logger.Fatal(err)
	}
}
