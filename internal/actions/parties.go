package actions

import (
	"context"
	"fmt"
	"strings"

	"fishledger-backend/internal/auth"
	"fishledger-backend/internal/ledger"
	"fishledger-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SupplierInput struct {
	Name    string `json:"name" validate:"required,max=200"`
	Phone   string `json:"phone" validate:"max=50"`
	Email   string `json:"email" validate:"omitempty,email,max=100"`
	Address string `json:"address" validate:"max=255"`
	Notes   string `json:"notes" validate:"max=500"`
}

func (in SupplierInput) apply(s *models.Supplier) {
	s.Name = strings.TrimSpace(in.Name)
	s.Phone = strings.TrimSpace(in.Phone)
	s.Email = strings.TrimSpace(in.Email)
	s.Address = in.Address
	s.Notes = in.Notes
}

type SupplierView struct {
	models.Supplier
	PurchaseCount  int64           `json:"purchase_count"`
	RemainingStock decimal.Decimal `json:"remaining_stock"`
}

type CustomerInput struct {
	Name    string              `json:"name" validate:"required,max=200"`
	Phone   string              `json:"phone" validate:"max=50"`
	Email   string              `json:"email" validate:"omitempty,email,max=100"`
	Address string              `json:"address" validate:"max=255"`
	Type    models.CustomerType `json:"type" validate:"omitempty,oneof=retail wholesale"`
}

func (in CustomerInput) apply(c *models.Customer) {
	c.Name = strings.TrimSpace(in.Name)
	c.Phone = strings.TrimSpace(in.Phone)
	c.Email = strings.TrimSpace(in.Email)
	c.Address = in.Address
	c.Type = in.Type
	if c.Type == "" {
		c.Type = models.CustomerTypeRetail
	}
}

type CustomerView struct {
	models.Customer
	SaleCount   int64           `json:"sale_count"`
	Outstanding decimal.Decimal `json:"outstanding_balance"`
}

func (s *Service) CreateSupplier(ctx context.Context, caller auth.Caller, in SupplierInput) (models.Supplier, error) {
	var sup models.Supplier
	if err := ledger.Validate(in); err != nil {
		return sup, err
	}
	in.apply(&sup)
	err := s.mutate(ctx, caller, auth.PermPartyWrite, "CreateSupplier", func(tx *gorm.DB) error {
		if err := tx.Create(&sup).Error; err != nil {
			return err
		}
		return writeAudit(tx, caller, "supplier", sup.ID, models.AuditActionCreate,
			fmt.Sprintf("supplier %q created", sup.Name), nil, sup)
	})
	return sup, err
}

func (s *Service) UpdateSupplier(ctx context.Context, caller auth.Caller, id uint, in SupplierInput) (models.Supplier, error) {
	var sup models.Supplier
	if err := ledger.Validate(in); err != nil {
		return sup, err
	}
	err := s.mutate(ctx, caller, auth.PermPartyWrite, "UpdateSupplier", func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&sup, id).Error; err != nil {
			return ledger.Wrap(err, "load supplier", "supplier", id)
		}
		before := sup
		in.apply(&sup)
		if err := tx.Save(&sup).Error; err != nil {
			return err
		}
		return writeAudit(tx, caller, "supplier", sup.ID, models.AuditActionUpdate,
			fmt.Sprintf("supplier %q updated", sup.Name), before, sup)
	})
	return sup, err
}

// DeleteSupplier refuses while the supplier still has purchases.
func (s *Service) DeleteSupplier(ctx context.Context, caller auth.Caller, id uint) error {
	return s.mutate(ctx, caller, auth.PermPartyDelete, "DeleteSupplier", func(tx *gorm.DB) error {
		var sup models.Supplier
		if err := lockForUpdate(tx).First(&sup, id).Error; err != nil {
			return ledger.Wrap(err, "load supplier", "supplier", id)
		}
		var count int64
		if err := tx.Model(&models.Purchase{}).Where("supplier_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ledger.NewViolation(ledger.RuleHasDependents, "supplier", id, "", fmt.Sprintf("supplier has %d purchases and cannot be deleted", count))
		}
		if err := tx.Delete(&sup).Error; err != nil {
			return err
		}
		return writeAudit(tx, caller, "supplier", id, models.AuditActionDelete,
			fmt.Sprintf("supplier %q deleted", sup.Name), sup, nil)
	})
}

func (s *Service) GetSupplier(ctx context.Context, caller auth.Caller, id uint) (SupplierView, error) {
	var view SupplierView
	err := s.read(ctx, caller, auth.PermPartyRead, "GetSupplier", func(db *gorm.DB) error {
		if err := db.First(&view.Supplier, id).Error; err != nil {
			return ledger.Wrap(err, "load supplier", "supplier", id)
		}
		if err := db.Model(&models.Purchase{}).Where("supplier_id = ?", id).Count(&view.PurchaseCount).Error; err != nil {
			return err
		}
		remaining, err := ledger.SupplierRemainingStock(db, id)
		view.RemainingStock = remaining
		return err
	})
	return view, err
}

func (s *Service) ListSuppliers(ctx context.Context, caller auth.Caller, search string) ([]SupplierView, error) {
	var out []SupplierView
	err := s.read(ctx, caller, auth.PermPartyRead, "ListSuppliers", func(db *gorm.DB) error {
		q := db.Order("name asc")
		if search = strings.TrimSpace(search); search != "" {
			q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
		}
		var suppliers []models.Supplier
		if err := q.Find(&suppliers).Error; err != nil {
			return err
		}
		stocks, err := ledger.StockBySupplier(db)
		if err != nil {
			return err
		}
		bySupplier := make(map[uint]decimal.Decimal, len(stocks))
		for _, st := range stocks {
			bySupplier[st.SupplierID] = st.RemainingKg
		}
		type countRow struct {
			SupplierID uint
			N          int64
		}
		var counts []countRow
		if err := db.Model(&models.Purchase{}).Select("supplier_id, COUNT(*) AS n").Group("supplier_id").Scan(&counts).Error; err != nil {
			return err
		}
		countBy := make(map[uint]int64, len(counts))
		for _, c := range counts {
			countBy[c.SupplierID] = c.N
		}

		out = make([]SupplierView, 0, len(suppliers))
		for _, sup := range suppliers {
			remaining, ok := bySupplier[sup.ID]
			if !ok {
				remaining = decimal.Zero
			}
			out = append(out, SupplierView{Supplier: sup, PurchaseCount: countBy[sup.ID], RemainingStock: remaining})
		}
		return nil
	})
	return out, err
}

func (s *Service) CreateCustomer(ctx context.Context, caller auth.Caller, in CustomerInput) (models.Customer, error) {
	var cust models.Customer
	if err := ledger.Validate(in); err != nil {
		return cust, err
	}
	in.apply(&cust)
	err := s.mutate(ctx, caller, auth.PermPartyWrite, "CreateCustomer", func(tx *gorm.DB) error {
		if err := tx.Create(&cust).Error; err != nil {
			return err
		}
		return writeAudit(tx, caller, "customer", cust.ID, models.AuditActionCreate,
			fmt.Sprintf("customer %q created", cust.Name), nil, cust)
	})
	return cust, err
}

func (s *Service) UpdateCustomer(ctx context.Context, caller auth.Caller, id uint, in CustomerInput) (models.Customer, error) {
	var cust models.Customer
	if err := ledger.Validate(in); err != nil {
		return cust, err
	}
	err := s.mutate(ctx, caller, auth.PermPartyWrite, "UpdateCustomer", func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&cust, id).Error; err != nil {
			return ledger.Wrap(err, "load customer", "customer", id)
		}
		before := cust
		in.apply(&cust)
		if err := tx.Save(&cust).Error; err != nil {
			return err
		}
		return writeAudit(tx, caller, "customer", cust.ID, models.AuditActionUpdate,
			fmt.Sprintf("customer %q updated", cust.Name), before, cust)
	})
	return cust, err
}

// DeleteCustomer refuses while the customer still has sales.
func (s *Service) DeleteCustomer(ctx context.Context, caller auth.Caller, id uint) error {
	return s.mutate(ctx, caller, auth.PermPartyDelete, "DeleteCustomer", func(tx *gorm.DB) error {
		var cust models.Customer
		if err := lockForUpdate(tx).First(&cust, id).Error; err != nil {
			return ledger.Wrap(err, "load customer", "customer", id)
		}
		var count int64
		if err := tx.Model(&models.Sale{}).Where("customer_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ledger.NewViolation(ledger.RuleHasDependents, "customer", id, "", fmt.Sprintf("customer has %d sales and cannot be deleted", count))
		}
		if err := tx.Delete(&cust).Error; err != nil {
			return err
		}
		return writeAudit(tx, caller, "customer", id, models.AuditActionDelete,
			fmt.Sprintf("customer %q deleted", cust.Name), cust, nil)
	})
}

func (s *Service) GetCustomer(ctx context.Context, caller auth.Caller, id uint) (CustomerView, error) {
	var view CustomerView
	err := s.read(ctx, caller, auth.PermPartyRead, "GetCustomer", func(db *gorm.DB) error {
		if err := db.First(&view.Customer, id).Error; err != nil {
			return ledger.Wrap(err, "load customer", "customer", id)
		}
		var sales []models.Sale
		if err := db.Where("customer_id = ?", id).Find(&sales).Error; err != nil {
			return err
		}
		view.SaleCount = int64(len(sales))
		statuses, err := ledger.CreditStatuses(db, sales, s.now())
		if err != nil {
			return err
		}
		view.Outstanding = decimal.Zero
		for _, st := range statuses {
			view.Outstanding = view.Outstanding.Add(st.Outstanding)
		}
		return nil
	})
	return view, err
}

func (s *Service) ListCustomers(ctx context.Context, caller auth.Caller, search string) ([]models.Customer, error) {
	var out []models.Customer
	err := s.read(ctx, caller, auth.PermPartyRead, "ListCustomers", func(db *gorm.DB) error {
		q := db.Order("name asc")
		if search = strings.TrimSpace(search); search != "" {
			q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
		}
		return q.Find(&out).Error
	})
	return out, err
}
