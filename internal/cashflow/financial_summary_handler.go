package cashflow

import (
	"fishledger-backend/internal/auth"
	"fishledger-backend/internal/httpx"
	"fishledger-backend/internal/report"

	"github.com/gofiber/fiber/v2"
)

func respond(c *fiber.Ctx, rep *report.Reporter, q report.SummaryQuery) error {
	format, err := report.ParseFormat(c.Query("format"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	out, err := rep.FinancialSummary(c.UserContext(), auth.CallerFromCtx(c), q)
	if err != nil {
		return err
	}
	if format == report.FormatJSON {
		return c.JSON(out)
	}
	return report.SendTable(c, format, out.Table())
}

// GET /api/financial-summary/daily?from=2024-03-01&to=2024-03-07
func GetDailyFinancialSummaryHandler(rep *report.Reporter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, err := httpx.QueryDate(c, "from")
		if err != nil {
			return err
		}
		to, err := httpx.QueryDate(c, "to")
		if err != nil {
			return err
		}
		return respond(c, rep, report.SummaryQuery{Period: report.PeriodDaily, From: from, To: to})
	}
}

// GET /api/financial-summary/weekly?year=2024&week=10
func GetWeeklyFinancialSummaryHandler(rep *report.Reporter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return respond(c, rep, report.SummaryQuery{
			Period: report.PeriodWeekly,
			Year:   c.QueryInt("year"),
			Week:   c.QueryInt("week"),
		})
	}
}

// GET /api/financial-summary/monthly?year=2024&month=3
func GetMonthlyFinancialSummaryHandler(rep *report.Reporter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return respond(c, rep, report.SummaryQuery{
			Period: report.PeriodMonthly,
			Year:   c.QueryInt("year"),
			Month:  c.QueryInt("month"),
		})
	}
}
