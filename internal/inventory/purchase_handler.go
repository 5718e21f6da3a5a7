// Package inventory serves purchase batches, their documents and stock levels.
package inventory

import (
	"fishledger-backend/internal/actions"
	"fishledger-backend/internal/attachment"
	"fishledger-backend/internal/auth"
	"fishledger-backend/internal/httpx"
	"fishledger-backend/internal/ledger"

	"github.com/gofiber/fiber/v2"
)

// GET /api/purchases?from=2024-03-01&to=2024-03-31&supplier_id=1&in_stock=true
func ListPurchasesHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rg, err := httpx.QueryRange(c)
		if err != nil {
			return err
		}
		supplierID, err := httpx.QueryUint(c, "supplier_id")
		if err != nil {
			return err
		}
		list, err := svc.ListPurchases(c.UserContext(), auth.CallerFromCtx(c), actions.PurchaseFilter{
			Range:       rg,
			SupplierID:  supplierID,
			InStockOnly: c.QueryBool("in_stock"),
		})
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

// GET /api/purchases/:id
func GetPurchaseHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		v, err := svc.GetPurchase(c.UserContext(), auth.CallerFromCtx(c), id)
		if err != nil {
			return err
		}
		return c.JSON(v)
	}
}

// POST /api/purchases
func CreatePurchaseHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body actions.PurchaseInput
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}
		p, err := svc.RecordPurchase(c.UserContext(), auth.CallerFromCtx(c), body)
		if err != nil {
			return err
		}
		return httpx.Created(c, p)
	}
}

// PUT /api/purchases/:id
func UpdatePurchaseHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body actions.PurchaseInput
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}
		p, err := svc.UpdatePurchase(c.UserContext(), auth.CallerFromCtx(c), id, body)
		if err != nil {
			return err
		}
		return c.JSON(p)
	}
}

// DELETE /api/purchases/:id
func DeletePurchaseHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		if err := svc.DeletePurchase(c.UserContext(), auth.CallerFromCtx(c), id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/purchases/:id/documents/:kind  (multipart, field "file")
func UploadPurchaseDocumentHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		fh, err := c.FormFile("file")
		if err != nil {
			return ledger.NewValidationError("file", "is required")
		}
		if fh.Size > attachment.MaxSize {
			return ledger.NewValidationError("file", "must be at most 10 MB")
		}
		f, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "could not read uploaded file")
		}
		defer f.Close()

		p, err := svc.AttachPurchaseDocument(c.UserContext(), auth.CallerFromCtx(c), id, attachment.Kind(c.Params("kind")), fh.Filename, f)
		if err != nil {
			return err
		}
		return c.JSON(p)
	}
}

// GET /api/purchases/:id/documents/:kind
func DownloadPurchaseDocumentHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		path, name, err := svc.PurchaseDocument(c.UserContext(), auth.CallerFromCtx(c), id, attachment.Kind(c.Params("kind")))
		if err != nil {
			return err
		}
		store := svc.Attachments()
		if store == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "attachment storage is not configured")
		}
		f, err := store.Open(path)
		if err != nil {
			return &ledger.NotFoundError{Entity: "stored document of purchase", ID: id}
		}
		c.Attachment(name)
		return c.SendStream(f)
	}
}

func Register(r fiber.Router, svc *actions.Service) {
	r.Get("/purchases", ListPurchasesHandler(svc))
	r.Get("/purchases/:id", GetPurchaseHandler(svc))
	r.Post("/purchases", CreatePurchaseHandler(svc))
	r.Put("/purchases/:id", UpdatePurchaseHandler(svc))
	r.Delete("/purchases/:id", DeletePurchaseHandler(svc))
	r.Post("/purchases/:id/documents/:kind", UploadPurchaseDocumentHandler(svc))
	r.Get("/purchases/:id/documents/:kind", DownloadPurchaseDocumentHandler(svc))
}
