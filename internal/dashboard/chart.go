// Package dashboard serves the sales and expense chart shown on the landing page.
package dashboard

import (
	"strconv"

	"fishledger-backend/internal/auth"
	"fishledger-backend/internal/report"

	"github.com/gofiber/fiber/v2"
)

// GET /api/dashboard/chart?period=daily&count=7
func ChartHandler(rep *report.Reporter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		period := report.Period(c.Query("period", string(report.PeriodDaily)))
		switch period {
		case report.PeriodDaily, report.PeriodWeekly, report.PeriodMonthly:
		default:
			return fiber.NewError(fiber.StatusBadRequest, "period must be daily, weekly or monthly")
		}

		count := 0
		if s := c.Query("count"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "invalid count")
			}
			count = n
		}

		chart, err := rep.DashboardChart(c.UserContext(), auth.CallerFromCtx(c), period, count)
		if err != nil {
			return err
		}
		return c.JSON(chart)
	}
}

func Register(r fiber.Router, rep *report.Reporter) {
	r.Get("/dashboard/chart", ChartHandler(rep))
}
