// Package cashflow serves money coming in: payments against credit sales and
// the daily, weekly and monthly financial summaries.
package cashflow

import (
	"fishledger-backend/internal/actions"
	"fishledger-backend/internal/auth"
	"fishledger-backend/internal/httpx"
	"fishledger-backend/internal/report"

	"github.com/gofiber/fiber/v2"
)

// GET /api/payments?sale_id=3&from=2024-03-01&to=2024-03-31
func ListPaymentsHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		saleID, err := httpx.QueryUint(c, "sale_id")
		if err != nil {
			return err
		}
		rg, err := httpx.QueryRange(c)
		if err != nil {
			return err
		}
		list, err := svc.ListPayments(c.UserContext(), auth.CallerFromCtx(c), saleID, rg)
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

// POST /api/payments
func CreatePaymentHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body actions.PaymentInput
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}
		p, err := svc.RecordPayment(c.UserContext(), auth.CallerFromCtx(c), body)
		if err != nil {
			return err
		}
		return httpx.Created(c, p)
	}
}

// PUT /api/payments/:id
func UpdatePaymentHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body actions.PaymentInput
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}
		p, err := svc.UpdatePayment(c.UserContext(), auth.CallerFromCtx(c), id, body)
		if err != nil {
			return err
		}
		return c.JSON(p)
	}
}

// DELETE /api/payments/:id
func DeletePaymentHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		if err := svc.DeletePayment(c.UserContext(), auth.CallerFromCtx(c), id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func Register(r fiber.Router, svc *actions.Service, rep *report.Reporter) {
	r.Get("/payments", ListPaymentsHandler(svc))
	r.Post("/payments", CreatePaymentHandler(svc))
	r.Put("/payments/:id", UpdatePaymentHandler(svc))
	r.Delete("/payments/:id", DeletePaymentHandler(svc))

	r.Get("/financial-summary/daily", GetDailyFinancialSummaryHandler(rep))
	r.Get("/financial-summary/weekly", GetWeeklyFinancialSummaryHandler(rep))
	r.Get("/financial-summary/monthly", GetMonthlyFinancialSummaryHandler(rep))
}
