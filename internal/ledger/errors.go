package ledger

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// Business rule codes carried by BusinessRuleViolation.
const (
	RuleInsufficientStock   = "insufficient_stock"
	RuleQuantityBelowSold   = "quantity_below_sold"
	RuleOverpayment         = "overpayment"
	RuleNotCreditSale       = "not_credit_sale"
	RuleHasDependents       = "has_dependents"
	RuleReceiptState        = "receipt_state"
	RuleActiveReceiptExists = "active_receipt_exists"
	RulePaymentsExceedTotal = "payments_exceed_total"
)

// ValidationError reports malformed or missing input, one message per field.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// BusinessRuleViolation is returned when input is well formed but the ledger
// state forbids the change (insufficient stock, overpayment, bad receipt state).
type BusinessRuleViolation struct {
	Rule     string
	Entity   string
	EntityID uint
	Field    string
	// ItemIndex points at the offending sale item, -1 when not item specific
	ItemIndex int
	Reason    string
}

func (e *BusinessRuleViolation) Error() string {
	return e.Reason
}

// NewViolation builds a violation that is not tied to a sale item.
func NewViolation(rule, entity string, id uint, field, reason string) *BusinessRuleViolation {
	return &BusinessRuleViolation{Rule: rule, Entity: entity, EntityID: id, Field: field, ItemIndex: -1, Reason: reason}
}

// NotFoundError reports a missing row addressed by id.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// IntegrityError wraps unexpected persistence failures. These are logged and
// never shown to the user verbatim.
type IntegrityError struct {
	Op  string
	Err error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IntegrityError) Unwrap() error { return e.Err }

// Wrap translates a persistence error. Record-not-found becomes NotFoundError,
// already typed ledger errors pass through, anything else is an IntegrityError.
func Wrap(err error, op, entity string, id uint) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Entity: entity, ID: id}
	}
	if IsLedgerError(err) {
		return err
	}
	return &IntegrityError{Op: op, Err: err}
}

// IsLedgerError reports whether err is one of the typed errors above.
func IsLedgerError(err error) bool {
	var (
		ve *ValidationError
		bv *BusinessRuleViolation
		nf *NotFoundError
		ie *IntegrityError
	)
	return errors.As(err, &ve) || errors.As(err, &bv) || errors.As(err, &nf) || errors.As(err, &ie)
}
