package report

import (
	"bytes"

	"fishledger-backend/internal/auth"
	"fishledger-backend/internal/httpx"

	"github.com/gofiber/fiber/v2"
)

// tabular is implemented by every report result.
type tabular interface {
	Table() Table
}

// SendTable renders t in format f as a download.
func SendTable(c *fiber.Ctx, f Format, t Table) error {
	var buf bytes.Buffer
	if err := t.Write(&buf, f); err != nil {
		return err
	}
	c.Attachment(t.FileName(f))
	c.Set(fiber.HeaderContentType, f.ContentType())
	return c.Send(buf.Bytes())
}

// reportHandler parses ?format= and either returns JSON or the exported table.
func reportHandler(build func(c *fiber.Ctx, caller auth.Caller) (tabular, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		format, err := ParseFormat(c.Query("format"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		out, err := build(c, auth.CallerFromCtx(c))
		if err != nil {
			return err
		}
		if format == FormatJSON {
			return c.JSON(out)
		}
		return SendTable(c, format, out.Table())
	}
}

// GET /api/reports/sales-summary?from=&to=&customer_id=&format=csv
func SalesSummaryHandler(r *Reporter) fiber.Handler {
	return reportHandler(func(c *fiber.Ctx, caller auth.Caller) (tabular, error) {
		rg, err := httpx.QueryRange(c)
		if err != nil {
			return nil, err
		}
		customerID, err := httpx.QueryUint(c, "customer_id")
		if err != nil {
			return nil, err
		}
		return r.SalesSummary(c.UserContext(), caller, rg, customerID)
	})
}

// GET /api/reports/purchase-profitability?from=&to=&supplier_id=
func PurchaseProfitabilityHandler(r *Reporter) fiber.Handler {
	return reportHandler(func(c *fiber.Ctx, caller auth.Caller) (tabular, error) {
		rg, err := httpx.QueryRange(c)
		if err != nil {
			return nil, err
		}
		supplierID, err := httpx.QueryUint(c, "supplier_id")
		if err != nil {
			return nil, err
		}
		return r.PurchaseProfitability(c.UserContext(), caller, rg, supplierID)
	})
}

// GET /api/reports/stock?all=true
func StockHandler(r *Reporter) fiber.Handler {
	return reportHandler(func(c *fiber.Ctx, caller auth.Caller) (tabular, error) {
		return r.Stock(c.UserContext(), caller, c.QueryBool("all"))
	})
}

// GET /api/reports/credit?as_of=2024-03-31
func CreditHandler(r *Reporter) fiber.Handler {
	return reportHandler(func(c *fiber.Ctx, caller auth.Caller) (tabular, error) {
		asOf, err := httpx.QueryDate(c, "as_of")
		if err != nil {
			return nil, err
		}
		return r.Credit(c.UserContext(), caller, asOf)
	})
}

// GET /api/reports/expenses?from=&to=
func ExpensesHandler(r *Reporter) fiber.Handler {
	return reportHandler(func(c *fiber.Ctx, caller auth.Caller) (tabular, error) {
		rg, err := httpx.QueryRange(c)
		if err != nil {
			return nil, err
		}
		return r.Expenses(c.UserContext(), caller, rg)
	})
}

// GET /api/reports/profit-and-loss?from=&to=
func ProfitAndLossHandler(r *Reporter) fiber.Handler {
	return reportHandler(func(c *fiber.Ctx, caller auth.Caller) (tabular, error) {
		rg, err := httpx.QueryRange(c)
		if err != nil {
			return nil, err
		}
		return r.ProfitAndLoss(c.UserContext(), caller, rg)
	})
}

func Register(router fiber.Router, r *Reporter) {
	router.Get("/reports/sales-summary", SalesSummaryHandler(r))
	router.Get("/reports/purchase-profitability", PurchaseProfitabilityHandler(r))
	router.Get("/reports/stock", StockHandler(r))
	router.Get("/reports/credit", CreditHandler(r))
	router.Get("/reports/expenses", ExpensesHandler(r))
	router.Get("/reports/profit-and-loss", ProfitAndLossHandler(r))
}
