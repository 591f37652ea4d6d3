package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"mailtriage/internal/model"
)

// PostgresSink stores records in the audit_records table.
type PostgresSink struct {
	db *pgxpool.Pool
}

func NewPostgresSink(db *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{db: db}
}

func (s *PostgresSink) Name() string { return "postgres" }

func (s *PostgresSink) Init(ctx context.Context) error {
	query := `
        CREATE TABLE IF NOT EXISTS audit_records (
            id                    BIGSERIAL PRIMARY KEY,
            sr_no                 INTEGER NOT NULL,
            email_id              TEXT NOT NULL,
            timestamp             TEXT NOT NULL,
            sender_email          TEXT NOT NULL,
            sender_name           TEXT NOT NULL,
            recipient_email       TEXT NOT NULL,
            original_subject      TEXT NOT NULL,
            original_content      TEXT NOT NULL,
            classification        TEXT NOT NULL,
            summary               TEXT NOT NULL,
            generated_response    TEXT NOT NULL,
            requires_human_review BOOLEAN NOT NULL,
            response_status       TEXT NOT NULL,
            processing_error      TEXT NOT NULL,
            record_save_time      TEXT NOT NULL,
            created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )
    `
	if _, err := s.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("creating audit_records table: %w", err)
	}
	return nil
}

// Append inserts one record. The table is created once by Init.
func (s *PostgresSink) Append(ctx context.Context, rec model.AuditRecord) error {
	query := `
        INSERT INTO audit_records (
            sr_no, email_id, timestamp, sender_email, sender_name, recipient_email,
            original_subject, original_content, classification, summary,
            generated_response, requires_human_review, response_status,
            processing_error, record_save_time
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
    `
	_, err := s.db.Exec(ctx, query,
		rec.SRNo,
		rec.EmailID,
		rec.Timestamp,
		rec.SenderEmail,
		rec.SenderName,
		rec.RecipientEmail,
		rec.OriginalSubject,
		rec.OriginalContent,
		rec.Classification,
		rec.Summary,
		rec.GeneratedResponse,
		rec.RequiresHumanReview,
		string(rec.ResponseStatus),
		rec.ProcessingError,
		rec.RecordSaveTime,
	)
	if err != nil {
		return fmt.Errorf("inserting audit record: %w", err)
	}
	return nil
}

func (s *PostgresSink) Close() error {
	s.db.Close()
	return nil
}
