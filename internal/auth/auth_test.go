package auth

import (
	"net/http/httptest"
	"testing"

	"fishledger-backend/internal/config"
	"fishledger-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestPermissionMatches(t *testing.T) {
	assert.True(t, PermAll.Matches(PermSaleWrite))
	assert.True(t, Permission("sale:*").Matches(PermSaleDelete))
	assert.False(t, Permission("sale:*").Matches(PermPaymentWrite))
	assert.True(t, Permission("*:read").Matches(PermReportRead))
	assert.False(t, PermSaleRead.Matches(PermSaleWrite))
}

func TestRolePermissions(t *testing.T) {
	clerk := NewCaller(1, "clerk", models.RoleClerk)
	assert.True(t, clerk.Can(PermSaleWrite))
	assert.True(t, clerk.Can(PermReceiptIssue))
	assert.False(t, clerk.Can(PermReceiptVoid))
	assert.False(t, clerk.Can(PermSaleDelete))
	assert.False(t, clerk.Can(PermReportRead))

	manager := NewCaller(2, "manager", models.RoleManager)
	assert.True(t, manager.Can(PermReceiptVoid))
	assert.True(t, manager.Can(PermPurchaseDelete))
	assert.False(t, manager.Can(PermUserManage))

	admin := NewCaller(3, "admin", models.RoleAdmin)
	assert.True(t, admin.Can(PermUserManage))

	assert.False(t, Caller{}.Can(PermSaleRead))
}

func TestTokenRoundTrip(t *testing.T) {
	user := &models.User{ID: 7, Name: "Ada", Email: "ada@example.com", Role: models.RoleManager}
	token, err := GenerateToken(testSecret, user)
	require.NoError(t, err)

	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, models.RoleManager, claims.Role)

	_, err = ParseToken("another-secret-another-secret-xx", token)
	assert.Error(t, err)
}

func TestMiddlewareEnforcesPermission(t *testing.T) {
	cfg := &config.Config{JWTSecret: testSecret}
	app := fiber.New()
	app.Get("/void", JWTMiddleware(cfg), RequirePermission(PermReceiptVoid), func(c *fiber.Ctx) error {
		return c.SendString(CallerFromCtx(c).Name)
	})

	call := func(role models.UserRole) int {
		token, err := GenerateToken(testSecret, &models.User{ID: 1, Name: "u", Role: role})
		require.NoError(t, err)
		req := httptest.NewRequest("GET", "/void", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusOK, call(models.RoleManager))
	assert.Equal(t, fiber.StatusForbidden, call(models.RoleClerk))

	resp, err := app.Test(httptest.NewRequest("GET", "/void", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
