package identity

import (
	"context"
	"fmt"
	"io"
	"net/smtp"
	"os"
	"strings"
)

// SMTPConfig carries the credentials for the outbound mail gateway. The
// values are opaque to the flows; they only see NotificationGateway.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPGateway delivers notifications over SMTP with PLAIN auth. There are no
// retries here; if the dispatch matters, the caller owns the retry policy.
type SMTPGateway struct {
	cfg    SMTPConfig
	logger Logger
}

var _ NotificationGateway = (*SMTPGateway)(nil)

func NewSMTPGateway(cfg SMTPConfig) *SMTPGateway {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &SMTPGateway{cfg: cfg, logger: defLogger{}}
}

func (g *SMTPGateway) WithLogger(logger Logger) *SMTPGateway {
	if logger != nil {
		g.logger = logger
	}
	return g
}

func (g *SMTPGateway) Send(ctx context.Context, recipient, subject, body string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	addr := fmt.Sprintf("%s:%d", g.cfg.Host, g.cfg.Port)
	auth := smtp.PlainAuth("", g.cfg.Username, g.cfg.Password, g.cfg.Host)

	msg := strings.Join([]string{
		"From: " + g.cfg.From,
		"To: " + recipient,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(addr, auth, g.cfg.From, []string{recipient}, []byte(msg)); err != nil {
		g.logger.Error("SMTP send failed", "recipient", recipient, "error", err)
		return err
	}

	return nil
}

// WriterGateway writes notifications to an io.Writer. It stands in for a
// real mail transport during development and in tests.
type WriterGateway struct {
	w io.Writer
}

var _ NotificationGateway = (*WriterGateway)(nil)

func NewWriterGateway(w io.Writer) *WriterGateway {
	if w == nil {
		w = os.Stdout
	}
	return &WriterGateway{w: w}
}

func (g *WriterGateway) Send(_ context.Context, recipient, subject, body string) error {
	fmt.Fprintln(g.w, "====== SENDING EMAIL NOTIFICATION =======")
	fmt.Fprintf(g.w, "to: %s\n", recipient)
	fmt.Fprintf(g.w, "subject: %s\n", subject)
	fmt.Fprintf(g.w, "body: %s\n", body)
	return nil
}
