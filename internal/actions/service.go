// Package actions is the only place ledger rows are written. Every operation
// checks the caller's permission, validates input, enforces stock and credit
// rules against locked rows and writes its audit entry in one transaction.
package actions

import (
	"context"
	"errors"
	"strings"
	"time"

	"fishledger-backend/internal/attachment"
	"fishledger-backend/internal/audit"
	"fishledger-backend/internal/auth"
	"fishledger-backend/internal/config"
	"fishledger-backend/internal/ledger"
	"fishledger-backend/internal/models"
	"fishledger-backend/internal/receipt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const dateLayout = "2006-01-02"

// ChangeListener is told after every committed mutation. The report cache
// uses it to invalidate cached results.
type ChangeListener interface {
	LedgerChanged(ctx context.Context)
}

type Service struct {
	db          *gorm.DB
	logger      *logrus.Logger
	attachments *attachment.Store
	mailer      receipt.Mailer
	business    receipt.Business
	listeners   []ChangeListener
	now         func() time.Time
}

type Option func(*Service)

func WithAttachments(store *attachment.Store) Option {
	return func(s *Service) { s.attachments = store }
}

// WithReceipts sets the business header printed on receipts and the mailer
// used to send them.
func WithReceipts(business receipt.Business, mailer receipt.Mailer) Option {
	return func(s *Service) {
		s.business = business
		s.mailer = mailer
	}
}

func WithListener(l ChangeListener) Option {
	return func(s *Service) { s.listeners = append(s.listeners, l) }
}

// WithClock overrides time.Now, used for issued_at and days outstanding.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(db *gorm.DB, logger *logrus.Logger, opts ...Option) *Service {
	s := &Service{db: db, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) DB() *gorm.DB { return s.db }

// mutate runs fn in a transaction after checking perm. Errors that are not
// already typed become IntegrityErrors and are logged.
func (s *Service) mutate(ctx context.Context, caller auth.Caller, perm auth.Permission, funcName string, fn func(tx *gorm.DB) error) error {
	if err := caller.Require(perm); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(fn)
	if err != nil {
		return s.fail(funcName, caller, err)
	}
	for _, l := range s.listeners {
		l.LedgerChanged(ctx)
	}
	return nil
}

// read checks perm and runs fn outside a transaction.
func (s *Service) read(ctx context.Context, caller auth.Caller, perm auth.Permission, funcName string, fn func(db *gorm.DB) error) error {
	if err := caller.Require(perm); err != nil {
		return err
	}
	if err := fn(s.db.WithContext(ctx)); err != nil {
		return s.fail(funcName, caller, err)
	}
	return nil
}

func (s *Service) fail(funcName string, caller auth.Caller, err error) error {
	if !ledger.IsLedgerError(err) {
		err = &ledger.IntegrityError{Op: funcName, Err: err}
	}
	var ie *ledger.IntegrityError
	if errors.As(err, &ie) {
		config.LogError(s.logger, "actions", funcName, "transaction failed", logrus.Fields{"user_id": caller.UserID}, err)
	}
	return err
}

func writeAudit(tx *gorm.DB, caller auth.Caller, entity string, id uint, action models.AuditAction, desc string, before, after any) error {
	return audit.WriteLog(tx, audit.LogOptions{
		Caller:      caller,
		EntityType:  entity,
		EntityID:    id,
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	})
}

func lockForUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, ledger.NewValidationError(field, "must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

// requireRef turns a missing referenced row into a field validation error.
func requireRef(tx *gorm.DB, model any, id uint, field string) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ledger.NewValidationError(field, "does not exist")
	}
	return nil
}
