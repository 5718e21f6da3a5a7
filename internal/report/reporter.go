// Package report builds read-only business reports over the ledger. Every
// figure comes from the ledger engines, so list views and reports agree.
package report

import (
	"context"
	"time"

	"fishledger-backend/internal/auth"
	"fishledger-backend/internal/config"
	"fishledger-backend/internal/ledger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// Reporter runs read-only reports over the ledger, optionally through the cache.
type Reporter struct {
	db     *gorm.DB
	logger *logrus.Logger
	cache  *Cache
	now    func() time.Time
}

type Option func(*Reporter)

func WithCache(c *Cache) Option {
	return func(r *Reporter) { r.cache = c }
}

func WithClock(now func() time.Time) Option {
	return func(r *Reporter) { r.now = now }
}

func NewReporter(db *gorm.DB, logger *logrus.Logger, opts ...Option) *Reporter {
	r := &Reporter{db: db, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// run checks report permission, then serves name+params from the cache or
// computes it.
func run[T any](ctx context.Context, r *Reporter, caller auth.Caller, name string, params []string, compute func(db *gorm.DB) (T, error)) (T, error) {
	var zero T
	if err := caller.Require(auth.PermReportRead); err != nil {
		return zero, err
	}
	started := time.Now()
	out, err := cached(ctx, r.cache, name, params, func() (T, error) {
		return compute(r.db.WithContext(ctx))
	})
	if err != nil {
		if !ledger.IsLedgerError(err) {
			err = &ledger.IntegrityError{Op: name, Err: err}
		}
		config.LogError(r.logger, "report", name, "report failed", logrus.Fields{"params": params}, err)
		return zero, err
	}
	r.logger.WithFields(logrus.Fields{
		"report": name,
		"ms":     time.Since(started).Milliseconds(),
	}).Debug("report built")
	return out, nil
}

func rangeParams(rg ledger.DateRange) []string {
	return []string{formatDate(rg.From), formatDate(rg.To)}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
