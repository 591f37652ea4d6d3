package util

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/emersion/go-smtp"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyError(t *testing.T) {
	var syntaxErr error
	syntaxErr = json.Unmarshal([]byte("{"), &struct{}{})

	tests := []struct {
		name          string
		err           error
		wantTransient bool
		wantType      string
	}{
		{"nil", nil, false, ""},
		{"deadline", fmt.Errorf("wrap: %w", context.DeadlineExceeded), true, "timeout"},
		{"canceled", context.Canceled, false, "context_canceled"},
		{"json", syntaxErr, false, "json_decode_error"},
		{"smtp temporary", &smtp.SMTPError{Code: 421, Message: "try later"}, true, "smtp_temporary"},
		{"smtp auth", &smtp.SMTPError{Code: 535, Message: "bad credentials"}, false, "smtp_auth"},
		{"smtp permanent", &smtp.SMTPError{Code: 550, Message: "no such user"}, false, "smtp_permanent"},
		{"pg duplicate", &pgconn.PgError{Code: "23505"}, false, "duplicate_key"},
		{"pg other", &pgconn.PgError{Code: "42P01"}, false, "db_error"},
		{"net timeout", fmt.Errorf("dial: %w", timeoutErr{}), true, "network_timeout"},
		{"auth text", errors.New("IMAP authentication failed"), false, "auth_error"},
		{"refused text", errors.New("dial tcp: connection refused"), true, "connection_error"},
		{"unknown", errors.New("weird"), false, "unknown_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transient, kind := ClassifyError(tt.err)
			assert.Equal(t, tt.wantTransient, transient)
			assert.Equal(t, tt.wantType, kind)
		})
	}
}
