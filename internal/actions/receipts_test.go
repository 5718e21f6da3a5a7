package actions

import (
	"context"
	"testing"
	"time"

	"fishledger-backend/internal/config"
	"fishledger-backend/internal/ledger"
	"fishledger-backend/internal/models"
	"fishledger-backend/internal/receipt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoidAndReissueReceipt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.purchase(t, "100", "10")
	sale, err := f.svc.RecordSale(ctx, f.clerk, f.saleInput(false, line(p.ID, "10", "12")))
	require.NoError(t, err)

	first, err := f.svc.IssueReceipt(ctx, f.clerk, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, "RCT-000001", first.ReceiptNumber)
	assert.Equal(t, models.ReceiptStatusActive, first.Status)

	_, err = f.svc.IssueReceipt(ctx, f.clerk, sale.ID)
	requireViolation(t, err, ledger.RuleActiveReceiptExists)

	_, err = f.svc.ReissueReceipt(ctx, f.clerk, first.ID)
	requireViolation(t, err, ledger.RuleReceiptState)

	// clerks may issue but not void
	_, err = f.svc.VoidReceipt(ctx, f.clerk, first.ID, VoidReceiptInput{Reason: "typo"})
	require.Error(t, err)

	_, err = f.svc.VoidReceipt(ctx, f.admin, first.ID, VoidReceiptInput{Reason: "  "})
	var ve *ledger.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "reason")

	voided, err := f.svc.VoidReceipt(ctx, f.admin, first.ID, VoidReceiptInput{Reason: "wrong price"})
	require.NoError(t, err)
	assert.Equal(t, models.ReceiptStatusVoided, voided.Status)

	_, err = f.svc.VoidReceipt(ctx, f.admin, first.ID, VoidReceiptInput{Reason: "again"})
	requireViolation(t, err, ledger.RuleReceiptState)

	second, err := f.svc.ReissueReceipt(ctx, f.clerk, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "RCT-000002", second.ReceiptNumber)
	require.NotNil(t, second.ReissuedFromID)
	assert.Equal(t, first.ID, *second.ReissuedFromID)

	_, err = f.svc.ReissueReceipt(ctx, f.clerk, first.ID)
	requireViolation(t, err, ledger.RuleActiveReceiptExists)

	original, err := f.svc.GetReceipt(ctx, f.clerk, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReceiptStatusVoided, original.Status)
	require.NotNil(t, original.VoidReason)
	assert.Equal(t, "wrong price", *original.VoidReason)

	all, err := f.svc.ListReceipts(ctx, f.clerk, sale.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	var voidLogs int64
	require.NoError(t, f.db.Model(&models.AuditLog{}).Where("entity_type = ? AND action = ?", "receipt", models.AuditActionVoid).Count(&voidLogs).Error)
	assert.Equal(t, int64(1), voidLogs)
}

type stubMailer struct{ sent []receipt.Message }

func (m *stubMailer) Send(_ context.Context, msg receipt.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

func TestReceiptDocumentAndSend(t *testing.T) {
	f := newFixture(t)
	mailer := &stubMailer{}
	f.svc = NewService(f.db, config.NewLogger("error"),
		WithReceipts(receipt.Business{Name: "Harbour Fish"}, mailer),
		WithClock(func() time.Time { return testNow }))
	ctx := context.Background()
	p := f.purchase(t, "100", "10")
	sale, err := f.svc.RecordSale(ctx, f.clerk, f.saleInput(true, line(p.ID, "20", "12")))
	require.NoError(t, err)
	_, err = f.svc.RecordPayment(ctx, f.clerk, PaymentInput{SaleID: sale.ID, PaymentDate: "2024-03-05", Amount: dec("40")})
	require.NoError(t, err)
	r, err := f.svc.IssueReceipt(ctx, f.clerk, sale.ID)
	require.NoError(t, err)

	doc, err := f.svc.ReceiptDocument(ctx, f.clerk, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Harbour Fish", doc.Business.Name)
	require.Len(t, doc.Lines, 1)
	assert.Contains(t, doc.Lines[0].Description, "Harbour Co")
	assertDecimal(t, "200", doc.Outstanding)

	err = f.svc.SendReceipt(ctx, f.clerk, r.ID)
	var de *receipt.DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Empty(t, mailer.sent)

	require.NoError(t, f.db.Model(&models.Customer{}).Where("id = ?", f.customer.ID).Update("email", "mama@example.com").Error)
	require.NoError(t, f.svc.SendReceipt(ctx, f.clerk, r.ID))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "mama@example.com", mailer.sent[0].To)
}
