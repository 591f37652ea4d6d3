package mailbox

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"mailtriage/internal/formatter"
	"mailtriage/pkg/config"
	"mailtriage/pkg/logger"
	"mailtriage/pkg/util"
)

// SMTPSender delivers replies through an authenticated SMTP submission
// server.
type SMTPSender struct {
	cfg    config.SMTPConfig
	from   string
	logger *zap.Logger
	dial   func(addr string, tlsConfig *tls.Config) (*smtp.Client, error)
	now    func() time.Time
}

// NewSMTPSender sends as from, the operator's own address.
func NewSMTPSender(cfg config.SMTPConfig, from string, logger *zap.Logger) *SMTPSender {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	dial := smtp.DialStartTLS
	if cfg.TLS {
		dial = smtp.DialTLS
	}
	return &SMTPSender{cfg: cfg, from: from, logger: logger, dial: dial, now: time.Now}
}

func (s *SMTPSender) Send(ctx context.Context, subject, to, from, body string) bool {
	if from == "" {
		from = s.from
	}
	return s.deliver(ctx, "Re: "+formatter.CleanText(subject), to, from, body)
}

func (s *SMTPSender) Draft(ctx context.Context, subject, ownMailbox, body string) bool {
	return s.deliver(ctx, "Draft: Re: "+formatter.CleanText(subject), ownMailbox, s.from, body)
}

func (s *SMTPSender) deliver(ctx context.Context, subject, to, from, body string) bool {
	log := logger.WithTrace(ctx, s.logger).With(zap.String("to", to), zap.String("subject", subject))

	msg, err := compose(subject, to, from, body, s.now())
	if err == nil {
		err = s.submit(ctx, from, to, msg)
	}
	if err != nil {
		_, kind := util.ClassifyError(err)
		log.Error("Failed to send email", zap.String("error_type", kind), zap.Error(err))
		return false
	}

	log.Info("Email sent")
	return true
}

func (s *SMTPSender) submit(ctx context.Context, from, to string, msg []byte) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	client, err := s.dial(addr, &tls.Config{ServerName: s.cfg.Host})
	if err != nil {
		return fmt.Errorf("dial SMTP %s: %w", addr, err)
	}
	defer client.Close()

	if deadline, ok := ctx.Deadline(); ok {
		client.CommandTimeout = time.Until(deadline)
		client.SubmissionTimeout = time.Until(deadline)
	}

	if s.cfg.Username != "" {
		if err := client.Auth(sasl.NewPlainClient("", s.cfg.Username, s.cfg.Password)); err != nil {
			return fmt.Errorf("SMTP auth: %w", err)
		}
	}

	if err := client.SendMail(from, []string{to}, bytes.NewReader(msg)); err != nil {
		return fmt.Errorf("SMTP send: %w", err)
	}
	return client.Quit()
}

// compose builds a single-part text/plain message.
func compose(subject, to, from, body string, date time.Time) ([]byte, error) {
	var h mail.Header
	h.SetDate(date)
	h.SetSubject(subject)
	h.SetAddressList("From", []*mail.Address{{Address: from}})
	h.SetAddressList("To", []*mail.Address{{Address: to}})
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("generate message id: %w", err)
	}
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("create message writer: %w", err)
	}
	if _, err := w.Write([]byte(body)); err != nil {
		return nil, fmt.Errorf("write message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close message writer: %w", err)
	}
	return buf.Bytes(), nil
}
