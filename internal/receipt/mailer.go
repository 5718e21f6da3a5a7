package receipt

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
)

type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

type Message struct {
	To          string
	Subject     string
	Body        string
	Attachments []Attachment
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// DeliveryError reports that a receipt could not be handed to the customer.
type DeliveryError struct {
	Receipt string
	Reason  string
	Err     error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("receipt %s not delivered: %s: %v", e.Receipt, e.Reason, e.Err)
	}
	return fmt.Sprintf("receipt %s not delivered: %s", e.Receipt, e.Reason)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

var ErrMailerDisabled = errors.New("mail delivery is not configured")

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPMailer struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if m.cfg.Host == "" {
		return ErrMailerDisabled
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := buildMIME(m.cfg.From, msg)
	if err != nil {
		return err
	}
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := m.cfg.Host + ":" + strconv.Itoa(m.cfg.Port)
	return m.send(addr, auth, m.cfg.From, []string{msg.To}, raw)
}

func buildMIME(from string, msg Message) ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", w.Boundary())

	body, err := w.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain; charset=utf-8"}})
	if err != nil {
		return nil, err
	}
	if _, err := body.Write([]byte(msg.Body)); err != nil {
		return nil, err
	}

	for _, a := range msg.Attachments {
		part, err := w.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {a.ContentType},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", a.Name)},
		})
		if err != nil {
			return nil, err
		}
		enc := base64.StdEncoding.EncodeToString(a.Data)
		for len(enc) > 76 {
			part.Write([]byte(enc[:76] + "\r\n"))
			enc = enc[76:]
		}
		part.Write([]byte(enc + "\r\n"))
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Deliver renders the receipt and mails it to the customer's address.
func Deliver(ctx context.Context, mailer Mailer, doc Document) error {
	if strings.TrimSpace(doc.CustomerEmail) == "" {
		return &DeliveryError{Receipt: doc.Number, Reason: "customer has no email address"}
	}
	if mailer == nil {
		return &DeliveryError{Receipt: doc.Number, Reason: "mailer unavailable", Err: ErrMailerDisabled}
	}
	data, err := RenderPDF(doc)
	if err != nil {
		return &DeliveryError{Receipt: doc.Number, Reason: "render failed", Err: err}
	}
	msg := Message{
		To:      doc.CustomerEmail,
		Subject: fmt.Sprintf("%s receipt %s", doc.Business.Name, doc.Number),
		Body: fmt.Sprintf("Hello %s,\r\n\r\nPlease find attached receipt %s for sale #%d, total %s.\r\n\r\n%s\r\n",
			doc.CustomerName, doc.Number, doc.SaleID, money(doc.Total), doc.Business.Name),
		Attachments: []Attachment{{Name: doc.FileName(), ContentType: "application/pdf", Data: data}},
	}
	if err := mailer.Send(ctx, msg); err != nil {
		return &DeliveryError{Receipt: doc.Number, Reason: "send failed", Err: err}
	}
	return nil
}
