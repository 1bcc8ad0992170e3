package notification

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"alpha-clothing/internal/config"
	"alpha-clothing/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

var confirmationTemplate = template.Must(
	template.New("order_confirmation.html").
		Funcs(template.FuncMap{
			"money": func(d decimal.Decimal) string { return "$" + d.StringFixed(2) },
			"date":  func(t time.Time) string { return t.UTC().Format("January 2, 2006") },
		}).
		ParseFS(templateFS, "templates/order_confirmation.html"),
)

// Sender delivers order confirmations to a customer
type Sender interface {
	SendOrderConfirmation(ctx context.Context, recipient string, order *domain.Order) error
}

// LogSender writes confirmations to the log instead of sending them.
// It is used when no SMTP relay is configured.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a sender that only logs
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendOrderConfirmation(_ context.Context, recipient string, order *domain.Order) error {
	s.logger.Info("Order confirmation (not sent, SMTP disabled)",
		zap.String("to", recipient),
		zap.String("subject", confirmationSubject(order)),
		zap.String("order_number", order.OrderNumber),
		zap.String("total", order.TotalAmount.StringFixed(2)),
		zap.Int("items", len(order.Items)),
	)
	return nil
}

// SMTPSender sends HTML confirmations through an SMTP relay
type SMTPSender struct {
	client *mail.Client
	from   string
	logger *zap.Logger
}

// NewSMTPSender creates a sender for the configured relay
func NewSMTPSender(cfg config.MailConfig, logger *zap.Logger) (*SMTPSender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(10 * time.Second),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	if cfg.SSL {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	return &SMTPSender{client: client, from: cfg.From, logger: logger}, nil
}

// SendOrderConfirmation renders and sends the confirmation for order
func (s *SMTPSender) SendOrderConfirmation(ctx context.Context, recipient string, order *domain.Order) error {
	msg, err := buildConfirmation(s.from, recipient, order)
	if err != nil {
		return err
	}

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send order confirmation: %w", err)
	}

	s.logger.Info("Order confirmation sent",
		zap.String("to", recipient),
		zap.String("order_number", order.OrderNumber),
	)
	return nil
}

func buildConfirmation(from, recipient string, order *domain.Order) (*mail.Msg, error) {
	body, err := renderConfirmation(order)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(recipient); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(confirmationSubject(order))
	msg.SetBodyString(mail.TypeTextHTML, body)
	return msg, nil
}

func confirmationSubject(order *domain.Order) string {
	return "Order Confirmation - " + order.OrderNumber
}

func renderConfirmation(order *domain.Order) (string, error) {
	var buf bytes.Buffer
	if err := confirmationTemplate.Execute(&buf, order); err != nil {
		return "", fmt.Errorf("failed to render order confirmation: %w", err)
	}
	return buf.String(), nil
}
