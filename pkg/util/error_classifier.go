package util

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/url"
	"strings"

	"github.com/emersion/go-smtp"
	"github.com/jackc/pgx/v5/pgconn"
)

// ClassifyError 返回错误类别标签，用于日志与指标
// Returns: (isTransient, errorType)
func ClassifyError(err error) (bool, string) {
	if err == nil {
		return false, ""
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true, "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return false, "context_canceled"
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return false, "json_decode_error"
	}

	// SMTP 回复码：4xx 临时失败，5xx 永久失败
	var smtpErr *smtp.SMTPError
	if errors.As(err, &smtpErr) {
		if smtpErr.Temporary() {
			return true, "smtp_temporary"
		}
		if smtpErr.Code == 535 || smtpErr.Code == 534 {
			return false, "smtp_auth"
		}
		return false, "smtp_permanent"
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			return false, "duplicate_key"
		}
		return false, "db_error"
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true, "network_timeout"
		}
		return true, "network_error"
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true, "network_timeout"
		}
		return true, "network_error"
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "authentication failed"), strings.Contains(errStr, "invalid credentials"):
		return false, "auth_error"
	case strings.Contains(errStr, "connection refused"), strings.Contains(errStr, "connection reset"):
		return true, "connection_error"
	}

	return false, "unknown_error"
}
