package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"mailtriage/contracts/mq"
	"mailtriage/pkg/logger"
)

// TriagedHandler consumes email.triaged events and surfaces the replies that
// wait for a human.
type TriagedHandler struct {
	logger   *zap.Logger
	onReview func(mq.EmailTriagedPayload)
}

// NewTriagedHandler calls onReview for every event flagged for review.
func NewTriagedHandler(logger *zap.Logger, onReview func(mq.EmailTriagedPayload)) *TriagedHandler {
	return &TriagedHandler{logger: logger, onReview: onReview}
}

func (h *TriagedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p mq.EmailTriagedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("decode email.triaged payload: %w", err)
	}
	if p.EmailID == "" {
		return fmt.Errorf("email.triaged payload without email_id")
	}

	log := logger.WithTrace(ctx, h.logger).With(
		zap.String("email_id", p.EmailID),
		zap.Int("sr_no", p.SRNo),
		zap.String("classification", p.Classification),
		zap.String("response_status", p.ResponseStatus),
	)
	if p.ProcessingError != "" {
		log.Warn("Email triaged with error", zap.String("processing_error", p.ProcessingError))
	} else {
		log.Info("Email triaged")
	}

	if p.RequiresHumanReview && h.onReview != nil {
		h.onReview(p)
	}
	return nil
}
