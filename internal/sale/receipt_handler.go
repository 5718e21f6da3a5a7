package sale

import (
	"errors"

	"fishledger-backend/internal/actions"
	"fishledger-backend/internal/auth"
	"fishledger-backend/internal/httpx"
	"fishledger-backend/internal/receipt"

	"github.com/gofiber/fiber/v2"
)

// GET /api/sales/:id/receipts
func ListReceiptsHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		list, err := svc.ListReceipts(c.UserContext(), auth.CallerFromCtx(c), id)
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

// POST /api/sales/:id/receipts
func IssueReceiptHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		r, err := svc.IssueReceipt(c.UserContext(), auth.CallerFromCtx(c), id)
		if err != nil {
			return err
		}
		return httpx.Created(c, r)
	}
}

// GET /api/receipts/:id
func GetReceiptHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		r, err := svc.GetReceipt(c.UserContext(), auth.CallerFromCtx(c), id)
		if err != nil {
			return err
		}
		return c.JSON(r)
	}
}

// GET /api/receipts/:id/pdf
func ReceiptPDFHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		doc, err := svc.ReceiptDocument(c.UserContext(), auth.CallerFromCtx(c), id)
		if err != nil {
			return err
		}
		data, err := receipt.RenderPDF(doc)
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, "application/pdf")
		c.Set(fiber.HeaderContentDisposition, `inline; filename="`+doc.FileName()+`"`)
		return c.Send(data)
	}
}

// POST /api/receipts/:id/void  {"reason": "..."}
func VoidReceiptHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body actions.VoidReceiptInput
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}
		r, err := svc.VoidReceipt(c.UserContext(), auth.CallerFromCtx(c), id, body)
		if err != nil {
			return err
		}
		return c.JSON(r)
	}
}

// POST /api/receipts/:id/reissue
func ReissueReceiptHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		r, err := svc.ReissueReceipt(c.UserContext(), auth.CallerFromCtx(c), id)
		if err != nil {
			return err
		}
		return httpx.Created(c, r)
	}
}

// POST /api/receipts/:id/send
func SendReceiptHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		err = svc.SendReceipt(c.UserContext(), auth.CallerFromCtx(c), id)
		var de *receipt.DeliveryError
		if errors.As(err, &de) {
			if errors.Is(de.Err, receipt.ErrMailerDisabled) {
				return fiber.NewError(fiber.StatusServiceUnavailable, de.Error())
			}
			if de.Err == nil {
				return fiber.NewError(fiber.StatusUnprocessableEntity, de.Error())
			}
			return fiber.NewError(fiber.StatusBadGateway, de.Error())
		}
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"sent": true})
	}
}
