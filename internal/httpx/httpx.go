// Package httpx holds the pieces every handler package shares: the error
// handler that turns ledger errors into responses and query/param parsing.
package httpx

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"fishledger-backend/internal/auth"
	"fishledger-backend/internal/config"
	"fishledger-backend/internal/ledger"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

// ErrorHandler maps errors to status codes:
// ValidationError 422, BusinessRuleViolation 409, NotFoundError 404,
// PermissionError 403, fiber.Error its own code, anything else 500.
func ErrorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var (
			ve *ledger.ValidationError
			bv *ledger.BusinessRuleViolation
			nf *ledger.NotFoundError
			pe *auth.PermissionError
			fe *fiber.Error
		)
		switch {
		case errors.As(err, &ve):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":  "validation failed",
				"fields": ve.Fields,
			})
		case errors.As(err, &bv):
			body := fiber.Map{
				"error":  bv.Reason,
				"rule":   bv.Rule,
				"entity": bv.Entity,
				"field":  bv.Field,
			}
			if bv.EntityID != 0 {
				body["entity_id"] = bv.EntityID
			}
			if bv.ItemIndex >= 0 {
				body["item_index"] = bv.ItemIndex
			}
			return c.Status(fiber.StatusConflict).JSON(body)
		case errors.As(err, &nf):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": nf.Error()})
		case errors.As(err, &pe):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "you are not allowed to perform this action"})
		case errors.As(err, &fe):
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}

		config.LogError(logger, "http", "ErrorHandler", c.Method()+" "+c.Path(), nil, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "unexpected server error"})
	}
}

// ParamID reads a positive numeric route parameter.
func ParamID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return uint(id), nil
}

// QueryUint reads an optional numeric query value; missing means 0.
func QueryUint(c *fiber.Ctx, name string) (uint, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, ledger.NewValidationError(name, "must be a positive number")
	}
	return uint(n), nil
}

// QueryDate reads an optional YYYY-MM-DD query value.
func QueryDate(c *fiber.Ctx, name string) (time.Time, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, ledger.NewValidationError(name, "must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

// QueryRange reads ?from=&to= into a DateRange.
func QueryRange(c *fiber.Ctx) (ledger.DateRange, error) {
	from, err := QueryDate(c, "from")
	if err != nil {
		return ledger.DateRange{}, err
	}
	to, err := QueryDate(c, "to")
	if err != nil {
		return ledger.DateRange{}, err
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return ledger.DateRange{}, ledger.NewValidationError("to", "must not be before from")
	}
	return ledger.DateRange{From: from, To: to}, nil
}

// Bind parses the JSON body into dst.
func Bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return nil
}

// Created writes v with status 201.
func Created(c *fiber.Ctx, v any) error {
	return c.Status(fiber.StatusCreated).JSON(v)
}
