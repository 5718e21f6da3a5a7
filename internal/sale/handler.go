// Package sale serves sales, their items and their receipts.
package sale

import (
	"fishledger-backend/internal/actions"
	"fishledger-backend/internal/auth"
	"fishledger-backend/internal/httpx"

	"github.com/gofiber/fiber/v2"
)

// GET /api/sales?from=&to=&customer_id=&credit=true&outstanding=true
func ListSalesHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rg, err := httpx.QueryRange(c)
		if err != nil {
			return err
		}
		customerID, err := httpx.QueryUint(c, "customer_id")
		if err != nil {
			return err
		}
		list, err := svc.ListSales(c.UserContext(), auth.CallerFromCtx(c), actions.SaleFilter{
			Range:           rg,
			CustomerID:      customerID,
			CreditOnly:      c.QueryBool("credit"),
			OutstandingOnly: c.QueryBool("outstanding"),
		})
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

// GET /api/sales/:id
func GetSaleHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		v, err := svc.GetSale(c.UserContext(), auth.CallerFromCtx(c), id)
		if err != nil {
			return err
		}
		return c.JSON(v)
	}
}

// POST /api/sales
func CreateSaleHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body actions.SaleInput
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}
		s, err := svc.RecordSale(c.UserContext(), auth.CallerFromCtx(c), body)
		if err != nil {
			return err
		}
		return httpx.Created(c, s)
	}
}

// PUT /api/sales/:id  (header and full item list)
func UpdateSaleHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body actions.SaleInput
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}
		s, err := svc.UpdateSale(c.UserContext(), auth.CallerFromCtx(c), id, body)
		if err != nil {
			return err
		}
		return c.JSON(s)
	}
}

// PUT /api/sales/:id/items/:itemId
func UpdateSaleItemHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		itemID, err := httpx.ParamID(c, "itemId")
		if err != nil {
			return err
		}
		var body actions.SaleItemInput
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}
		s, err := svc.UpdateSaleItem(c.UserContext(), auth.CallerFromCtx(c), id, itemID, body)
		if err != nil {
			return err
		}
		return c.JSON(s)
	}
}

// DELETE /api/sales/:id
func DeleteSaleHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		if err := svc.DeleteSale(c.UserContext(), auth.CallerFromCtx(c), id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func Register(r fiber.Router, svc *actions.Service) {
	r.Get("/sales", ListSalesHandler(svc))
	r.Get("/sales/:id", GetSaleHandler(svc))
	r.Post("/sales", CreateSaleHandler(svc))
	r.Put("/sales/:id", UpdateSaleHandler(svc))
	r.Put("/sales/:id/items/:itemId", UpdateSaleItemHandler(svc))
	r.Delete("/sales/:id", DeleteSaleHandler(svc))

	r.Get("/sales/:id/receipts", ListReceiptsHandler(svc))
	r.Post("/sales/:id/receipts", IssueReceiptHandler(svc))
	r.Get("/receipts/:id", GetReceiptHandler(svc))
	r.Get("/receipts/:id/pdf", ReceiptPDFHandler(svc))
	r.Post("/receipts/:id/void", VoidReceiptHandler(svc))
	r.Post("/receipts/:id/reissue", ReissueReceiptHandler(svc))
	r.Post("/receipts/:id/send", SendReceiptHandler(svc))
}
