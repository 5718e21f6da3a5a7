package httpx_test

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"fishledger-backend/internal/auth"
	"fishledger-backend/internal/httpx"
	"fishledger-backend/internal/ledger"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(handler fiber.Handler) *fiber.App {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	app := fiber.New(fiber.Config{ErrorHandler: httpx.ErrorHandler(logger)})
	app.Get("/x/:id", handler)
	return app
}

func call(t *testing.T, app *fiber.App, url string) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", url, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestErrorHandlerStatusCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"validation", ledger.NewValidationError("amount", "must be greater than 0"), fiber.StatusUnprocessableEntity},
		{"rule", ledger.NewViolation(ledger.RuleOverpayment, "sale", 3, "amount", "too much"), fiber.StatusConflict},
		{"not found", &ledger.NotFoundError{Entity: "sale", ID: 9}, fiber.StatusNotFound},
		{"permission", &auth.PermissionError{Permission: auth.PermReportRead}, fiber.StatusForbidden},
		{"fiber", fiber.NewError(fiber.StatusBadRequest, "bad"), fiber.StatusBadRequest},
		{"integrity", &ledger.IntegrityError{Op: "x", Err: io.ErrUnexpectedEOF}, fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.err
			app := newApp(func(c *fiber.Ctx) error { return err })
			code, _ := call(t, app, "/x/1")
			assert.Equal(t, tc.code, code)
		})
	}
}

func TestErrorHandlerViolationBody(t *testing.T) {
	app := newApp(func(c *fiber.Ctx) error {
		return &ledger.BusinessRuleViolation{
			Rule: ledger.RuleInsufficientStock, Entity: "purchase", EntityID: 4,
			Field: "items[1].quantity_kg", ItemIndex: 1, Reason: "only 5 kg available",
		}
	})
	code, body := call(t, app, "/x/1")
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Equal(t, "insufficient_stock", body["rule"])
	assert.Equal(t, "items[1].quantity_kg", body["field"])
	assert.EqualValues(t, 1, body["item_index"])
	assert.Equal(t, "only 5 kg available", body["error"])
}

func TestParamsAndQueries(t *testing.T) {
	app := newApp(func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		rg, err := httpx.QueryRange(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"id": id, "from": rg.From.Format("2006-01-02")})
	})

	code, body := call(t, app, "/x/7?from=2024-03-01")
	assert.Equal(t, fiber.StatusOK, code)
	assert.EqualValues(t, 7, body["id"])
	assert.Equal(t, "2024-03-01", body["from"])

	code, _ = call(t, app, "/x/abc")
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, body = call(t, app, "/x/1?from=2024-03-05&to=2024-03-01")
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)
	assert.Contains(t, body["fields"], "to")

	code, _ = call(t, app, "/x/1?from=yesterday")
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)
}
