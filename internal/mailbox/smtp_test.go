package mailbox

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailtriage/pkg/config"
)

type delivery struct {
	from string
	to   []string
	data []byte
}

// recordingBackend is an in-process SMTP server that keeps every message.
type recordingBackend struct {
	mu         sync.Mutex
	deliveries []delivery
	reject     bool
}

func (b *recordingBackend) NewSession(*smtp.Conn) (smtp.Session, error) {
	return &recordingSession{backend: b}, nil
}

func (b *recordingBackend) all() []delivery {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]delivery(nil), b.deliveries...)
}

type recordingSession struct {
	backend *recordingBackend
	current delivery
}

func (s *recordingSession) Mail(from string, _ *smtp.MailOptions) error {
	s.current.from = from
	return nil
}

func (s *recordingSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	if s.backend.reject {
		return &smtp.SMTPError{Code: 550, Message: "mailbox unavailable"}
	}
	s.current.to = append(s.current.to, to)
	return nil
}

func (s *recordingSession) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.current.data = data
	s.backend.mu.Lock()
	s.backend.deliveries = append(s.backend.deliveries, s.current)
	s.backend.mu.Unlock()
	return nil
}

func (s *recordingSession) Reset()        { s.current = delivery{} }
func (s *recordingSession) Logout() error { return nil }

func startSMTPServer(t *testing.T, backend *recordingBackend) (string, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := smtp.NewServer(backend)
	srv.Domain = "localhost"
	srv.AllowInsecureAuth = true
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Close() })

	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	return host, p
}

func newTestSender(host string, port int) *SMTPSender {
	s := NewSMTPSender(config.SMTPConfig{Host: host, Port: port}, "ops@example.com", zap.NewNop())
	s.dial = func(addr string, _ *tls.Config) (*smtp.Client, error) { return smtp.Dial(addr) }
	s.now = func() time.Time { return time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC) }
	return s
}

func readMessage(t *testing.T, data []byte) (*mail.Reader, string) {
	t.Helper()
	mr, err := mail.CreateReader(bytes.NewReader(data))
	require.NoError(t, err)
	part, err := mr.NextPart()
	require.NoError(t, err)
	body, err := io.ReadAll(part.Body)
	require.NoError(t, err)
	return mr, string(body)
}

func TestSMTPSender_Send(t *testing.T) {
	backend := &recordingBackend{}
	host, port := startSMTPServer(t, backend)
	s := newTestSender(host, port)

	ok := s.Send(context.Background(), "Order  status", "james@example.com", "", "Hi James,\n\nShipped.\n\nBest regards,\nBot")
	require.True(t, ok)

	got := backend.all()
	require.Len(t, got, 1)
	assert.Equal(t, "ops@example.com", got[0].from)
	assert.Equal(t, []string{"james@example.com"}, got[0].to)

	mr, body := readMessage(t, got[0].data)
	subject, err := mr.Header.Subject()
	require.NoError(t, err)
	assert.Equal(t, "Re: Order status", subject)
	assert.Equal(t, "Hi James,\n\nShipped.\n\nBest regards,\nBot", strings.ReplaceAll(body, "\r\n", "\n"))
}

func TestSMTPSender_Draft(t *testing.T) {
	backend := &recordingBackend{}
	host, port := startSMTPServer(t, backend)
	s := newTestSender(host, port)

	require.True(t, s.Draft(context.Background(), "Order status", "drafts@example.com", "body"))

	got := backend.all()
	require.Len(t, got, 1)
	assert.Equal(t, []string{"drafts@example.com"}, got[0].to)
	mr, _ := readMessage(t, got[0].data)
	subject, _ := mr.Header.Subject()
	assert.Equal(t, "Draft: Re: Order status", subject)
}

func TestSMTPSender_FailureReturnsFalse(t *testing.T) {
	backend := &recordingBackend{reject: true}
	host, port := startSMTPServer(t, backend)

	assert.False(t, newTestSender(host, port).Send(context.Background(), "s", "x@example.com", "", "b"))
	assert.Empty(t, backend.all())
}

func TestSMTPSender_UnreachableServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().(*net.TCPAddr)
	require.NoError(t, ln.Close())

	assert.False(t, newTestSender("127.0.0.1", addr.Port).Draft(context.Background(), "s", "d@example.com", "b"))
}
