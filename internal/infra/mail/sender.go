// Package mail e-mails the sales team when a lead is captured.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/e5digital/leads-bfa-go/internal/domain"
	"github.com/e5digital/leads-bfa-go/internal/format"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

var tracer = otel.Tracer("mail")

//go:embed templates/*.html
var templatesFS embed.FS

var newLeadTmpl = template.Must(template.ParseFS(templatesFS, "templates/new_lead.html"))

// Dialer sends composed messages. *gomail.Dialer satisfies it.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// NewLeadEmailData feeds templates/new_lead.html.
type NewLeadEmailData struct {
	Name         string
	Phone        string
	Email        string
	Segment      string
	RegisteredAt string
	WhatsAppURL  string
}

// Sender implements port.LeadNotifier over SMTP.
type Sender struct {
	dialer Dialer
	from   string
	to     []string
	loc    *time.Location
	logger *zap.Logger
}

// NewSMTPDialer returns a gomail dialer for the given server.
func NewSMTPDialer(host string, port int, user, password string) *gomail.Dialer {
	return gomail.NewDialer(host, port, user, password)
}

// NewSender creates a sender that mails every address in to.
func NewSender(dialer Dialer, from string, to []string, loc *time.Location, logger *zap.Logger) *Sender {
	return &Sender{dialer: dialer, from: from, to: to, loc: loc, logger: logger}
}

// NotifyNewLead sends the new-lead e-mail. gomail has no context support,
// so ctx only carries the trace.
func (s *Sender) NotifyNewLead(ctx context.Context, lead *domain.Lead) error {
	_, span := tracer.Start(ctx, "Mail.NotifyNewLead")
	defer span.End()

	if len(s.to) == 0 {
		return nil
	}

	m, err := s.compose(lead)
	if err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send new lead e-mail: %w", err)
	}

	s.logger.Debug("new lead e-mail sent", zap.String("lead_id", lead.ID), zap.Int("recipients", len(s.to)))
	return nil
}

func (s *Sender) compose(lead *domain.Lead) (*gomail.Message, error) {
	body, err := s.render(lead)
	if err != nil {
		return nil, err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", s.to...)
	m.SetHeader("Subject", fmt.Sprintf("Novo lead: %s (%s)", lead.Name, lead.Segment))
	m.SetHeader("Reply-To", lead.Email)
	m.SetBody("text/html", body)
	return m, nil
}

func (s *Sender) render(lead *domain.Lead) (string, error) {
	data := NewLeadEmailData{
		Name:         lead.Name,
		Phone:        lead.Phone,
		Email:        lead.Email,
		Segment:      lead.Segment,
		RegisteredAt: format.DateTime(lead.RegisteredAt, s.loc),
		WhatsAppURL:  format.WhatsAppURL(lead.Phone),
	}

	var body bytes.Buffer
	if err := newLeadTmpl.Execute(&body, data); err != nil {
		return "", fmt.Errorf("render new lead e-mail: %w", err)
	}
	return body.String(), nil
}

// Noop drops notifications. Used when SMTP_HOST is not set.
type Noop struct{}

// NotifyNewLead does nothing.
func (Noop) NotifyNewLead(context.Context, *domain.Lead) error { return nil }
