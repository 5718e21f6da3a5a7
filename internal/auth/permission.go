package auth

import (
	"strings"

	"fishledger-backend/internal/models"
)

// Permission is a "resource:action" pair. Either side may be "*".
type Permission string

const (
	PermAll Permission = "*:*"

	PermPartyRead   Permission = "party:read"
	PermPartyWrite  Permission = "party:write"
	PermPartyDelete Permission = "party:delete"

	PermPurchaseRead   Permission = "purchase:read"
	PermPurchaseWrite  Permission = "purchase:write"
	PermPurchaseDelete Permission = "purchase:delete"

	PermSaleRead   Permission = "sale:read"
	PermSaleWrite  Permission = "sale:write"
	PermSaleDelete Permission = "sale:delete"

	PermExpenseRead   Permission = "expense:read"
	PermExpenseWrite  Permission = "expense:write"
	PermExpenseDelete Permission = "expense:delete"

	PermPaymentRead   Permission = "payment:read"
	PermPaymentWrite  Permission = "payment:write"
	PermPaymentDelete Permission = "payment:delete"

	PermReceiptRead  Permission = "receipt:read"
	PermReceiptIssue Permission = "receipt:issue"
	PermReceiptVoid  Permission = "receipt:void"

	PermReportRead Permission = "report:read"
	PermAuditRead  Permission = "audit:read"
	PermUserManage Permission = "user:manage"
)

func (p Permission) split() (string, string) {
	res, act, _ := strings.Cut(string(p), ":")
	return res, act
}

// Matches reports whether the granted permission p covers want.
func (p Permission) Matches(want Permission) bool {
	gr, ga := p.split()
	wr, wa := want.split()
	return (gr == "*" || gr == wr) && (ga == "*" || ga == wa)
}

var rolePermissions = map[models.UserRole][]Permission{
	models.RoleAdmin: {PermAll},
	models.RoleManager: {
		"party:*", "purchase:*", "sale:*", "expense:*", "payment:*", "receipt:*",
		PermReportRead, PermAuditRead,
	},
	models.RoleClerk: {
		PermPartyRead, PermPartyWrite,
		PermPurchaseRead, PermPurchaseWrite,
		PermSaleRead, PermSaleWrite,
		PermExpenseRead, PermExpenseWrite,
		PermPaymentRead, PermPaymentWrite,
		PermReceiptRead, PermReceiptIssue,
	},
}

// PermissionsForRole returns the permission set granted to a role.
func PermissionsForRole(role models.UserRole) []Permission {
	perms := rolePermissions[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// Caller identifies who is performing an action and what they may do. It is
// passed explicitly into every action rather than looked up from request state.
type Caller struct {
	UserID      uint
	Name        string
	Role        models.UserRole
	Permissions []Permission
}

// NewCaller builds a caller with the permissions of the user's role.
func NewCaller(userID uint, name string, role models.UserRole) Caller {
	return Caller{UserID: userID, Name: name, Role: role, Permissions: PermissionsForRole(role)}
}

// SystemCaller is used by seeders and tests that act outside a request.
func SystemCaller() Caller {
	return Caller{Name: "system", Role: models.RoleAdmin, Permissions: []Permission{PermAll}}
}

func (c Caller) Can(want Permission) bool {
	for _, p := range c.Permissions {
		if p.Matches(want) {
			return true
		}
	}
	return false
}

// PermissionError is returned by actions invoked by a caller lacking the
// required permission.
type PermissionError struct {
	Permission Permission
}

func (e *PermissionError) Error() string {
	return "permission denied: " + string(e.Permission)
}

// Require returns a PermissionError unless the caller holds want.
func (c Caller) Require(want Permission) error {
	if c.Can(want) {
		return nil
	}
	return &PermissionError{Permission: want}
}
