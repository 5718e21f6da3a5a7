// Package party serves supplier and customer endpoints.
package party

import (
	"fishledger-backend/internal/actions"
	"fishledger-backend/internal/auth"
	"fishledger-backend/internal/httpx"

	"github.com/gofiber/fiber/v2"
)

// GET /api/suppliers?search=harbour
func ListSuppliersHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := svc.ListSuppliers(c.UserContext(), auth.CallerFromCtx(c), c.Query("search"))
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

// GET /api/suppliers/:id
func GetSupplierHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		v, err := svc.GetSupplier(c.UserContext(), auth.CallerFromCtx(c), id)
		if err != nil {
			return err
		}
		return c.JSON(v)
	}
}

// POST /api/suppliers
func CreateSupplierHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body actions.SupplierInput
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}
		s, err := svc.CreateSupplier(c.UserContext(), auth.CallerFromCtx(c), body)
		if err != nil {
			return err
		}
		return httpx.Created(c, s)
	}
}

// PUT /api/suppliers/:id
func UpdateSupplierHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body actions.SupplierInput
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}
		s, err := svc.UpdateSupplier(c.UserContext(), auth.CallerFromCtx(c), id, body)
		if err != nil {
			return err
		}
		return c.JSON(s)
	}
}

// DELETE /api/suppliers/:id
func DeleteSupplierHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		if err := svc.DeleteSupplier(c.UserContext(), auth.CallerFromCtx(c), id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GET /api/customers?search=mama
func ListCustomersHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := svc.ListCustomers(c.UserContext(), auth.CallerFromCtx(c), c.Query("search"))
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

// GET /api/customers/:id
func GetCustomerHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		v, err := svc.GetCustomer(c.UserContext(), auth.CallerFromCtx(c), id)
		if err != nil {
			return err
		}
		return c.JSON(v)
	}
}

// POST /api/customers
func CreateCustomerHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body actions.CustomerInput
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}
		cust, err := svc.CreateCustomer(c.UserContext(), auth.CallerFromCtx(c), body)
		if err != nil {
			return err
		}
		return httpx.Created(c, cust)
	}
}

// PUT /api/customers/:id
func UpdateCustomerHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body actions.CustomerInput
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}
		cust, err := svc.UpdateCustomer(c.UserContext(), auth.CallerFromCtx(c), id, body)
		if err != nil {
			return err
		}
		return c.JSON(cust)
	}
}

// DELETE /api/customers/:id
func DeleteCustomerHandler(svc *actions.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		if err := svc.DeleteCustomer(c.UserContext(), auth.CallerFromCtx(c), id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// Register mounts the party routes on r.
func Register(r fiber.Router, svc *actions.Service) {
	r.Get("/suppliers", ListSuppliersHandler(svc))
	r.Get("/suppliers/:id", GetSupplierHandler(svc))
	r.Post("/suppliers", CreateSupplierHandler(svc))
	r.Put("/suppliers/:id", UpdateSupplierHandler(svc))
	r.Delete("/suppliers/:id", DeleteSupplierHandler(svc))

	r.Get("/customers", ListCustomersHandler(svc))
	r.Get("/customers/:id", GetCustomerHandler(svc))
	r.Post("/customers", CreateCustomerHandler(svc))
	r.Put("/customers/:id", UpdateCustomerHandler(svc))
	r.Delete("/customers/:id", DeleteCustomerHandler(svc))
}
