// Package expense serves operating expenses, either linked to a purchase or general.
package expense

import (
	"fishledger-backend/internal/actions"
	"fishledger-backend/internal/auth"
	"fishledger-backend/internal/httpx"
	"fishledger-backend/internal/ledger"
	"fishledger-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/expenses?from=&to=&type=ice&purchase_id=4&general=true
func ListExpensesHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rg, err := httpx.QueryRange(c)
		if err != nil {
			return err
		}
		purchaseID, err := httpx.QueryUint(c, "purchase_id")
		if err != nil {
			return err
		}
		typ := models.ExpenseType(c.Query("type"))
		if typ != "" && !typ.Valid() {
			return ledger.NewValidationError("type", "must be one of shipping, ice, other")
		}
		general := c.QueryBool("general")
		if general && purchaseID != 0 {
			return ledger.NewValidationError("general", "cannot be combined with purchase_id")
		}

		list, err := svc.ListExpenses(c.UserContext(), auth.CallerFromCtx(c), actions.ExpenseFilter{
			Range:       rg,
			Type:        typ,
			PurchaseID:  purchaseID,
			GeneralOnly: general,
		})
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

// POST /api/expenses
func CreateExpenseHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body actions.ExpenseInput
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}
		e, err := svc.RecordExpense(c.UserContext(), auth.CallerFromCtx(c), body)
		if err != nil {
			return err
		}
		return httpx.Created(c, e)
	}
}

// PUT /api/expenses/:id
func UpdateExpenseHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body actions.ExpenseInput
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}
		e, err := svc.UpdateExpense(c.UserContext(), auth.CallerFromCtx(c), id, body)
		if err != nil {
			return err
		}
		return c.JSON(e)
	}
}

// DELETE /api/expenses/:id
func DeleteExpenseHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		if err := svc.DeleteExpense(c.UserContext(), auth.CallerFromCtx(c), id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func Register(r fiber.Router, svc *actions.Service) {
	r.Get("/expenses", ListExpensesHandler(svc))
	r.Post("/expenses", CreateExpenseHandler(svc))
	r.Put("/expenses/:id", UpdateExpenseHandler(svc))
	r.Delete("/expenses/:id", DeleteExpenseHandler(svc))
}
