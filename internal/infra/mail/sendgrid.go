package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"erent/internal/app/policies"
)

const defaultHost = "https://api.sendgrid.com"

var ErrRecipientRequired = errors.New("mail: recipient address is required")

// SendGrid delivers mail through the SendGrid v3 API.
type SendGrid struct {
	apiKey    string
	host      string
	fromEmail string
	fromName  string
}

func NewSendGrid(apiKey, fromEmail, fromName string) *SendGrid {
	return &SendGrid{apiKey: apiKey, host: defaultHost, fromEmail: fromEmail, fromName: fromName}
}

// WithHost points the client at another API host.
func (s *SendGrid) WithHost(host string) *SendGrid {
	out := *s
	out.host = strings.TrimRight(host, "/")
	return &out
}

func (s *SendGrid) Send(ctx context.Context, msg policies.Email) error {
	if strings.TrimSpace(msg.ToAddr) == "" {
		return ErrRecipientRequired
	}
	from := sgmail.NewEmail(s.fromName, s.fromEmail)
	to := sgmail.NewEmail(msg.ToName, msg.ToAddr)
	message := sgmail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)

	request := sendgrid.GetRequest(s.apiKey, "/v3/mail/send", s.host)
	request.Method = "POST"
	request.Body = sgmail.GetRequestBody(message)
	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("mail: send: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("mail: sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	return nil
}

// Log writes mail to the logger instead of delivering it.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Send(ctx context.Context, msg policies.Email) error {
	if strings.TrimSpace(msg.ToAddr) == "" {
		return ErrRecipientRequired
	}
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "mail not delivered, no provider configured", "to", msg.ToAddr, "subject", msg.Subject)
	return nil
}

var (
	_ policies.Mailer = (*SendGrid)(nil)
	_ policies.Mailer = Log{}
)
