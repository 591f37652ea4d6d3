// Package audit persists one record per processed email.
package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mailtriage/internal/model"
	"mailtriage/pkg/metrics"
)

// Sink is an append-only audit backend. Init must be idempotent.
type Sink interface {
	Name() string
	Init(ctx context.Context) error
	Append(ctx context.Context, rec model.AuditRecord) error
	Close() error
}

// Multi fans a record out to every configured sink. A failing sink does not
// stop the others.
type Multi struct {
	sinks  []Sink
	logger *zap.Logger
}

func NewMulti(logger *zap.Logger, sinks ...Sink) *Multi {
	return &Multi{sinks: sinks, logger: logger}
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) Init(ctx context.Context) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Init(ctx); err != nil {
			errs = append(errs, fmt.Errorf("init %s sink: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) Append(ctx context.Context, rec model.AuditRecord) error {
	var errs []error
	for _, s := range m.sinks {
		start := time.Now()
		err := s.Append(ctx, rec)
		status := "success"
		if err != nil {
			status = "error"
			m.logger.Error("Failed to append audit record",
				zap.String("sink", s.Name()),
				zap.Int("sr_no", rec.SRNo),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s sink: %w", s.Name(), err))
		}
		metrics.RecordAuditAppend(s.Name(), status, time.Since(start))
	}
	if len(errs) == 0 {
		m.logger.Info("Logged audit record",
			zap.Int("sr_no", rec.SRNo),
			zap.String("sender_email", rec.SenderEmail),
		)
	}
	return errors.Join(errs...)
}

func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
