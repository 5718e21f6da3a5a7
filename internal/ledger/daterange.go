package ledger

import (
	"time"

	"gorm.io/gorm"
)

// DateRange filters list and report queries. Zero values are open ends and
// To covers its whole day.
type DateRange struct {
	From time.Time
	To   time.Time
}

func (r DateRange) Apply(q *gorm.DB, column string) *gorm.DB {
	if !r.From.IsZero() {
		q = q.Where(column+" >= ?", r.From)
	}
	if !r.To.IsZero() {
		q = q.Where(column+" < ?", r.To.AddDate(0, 0, 1))
	}
	return q
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && !t.Before(r.To.AddDate(0, 0, 1)) {
		return false
	}
	return true
}
