package audit

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"mailtriage/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS audit_records (
	id                    INTEGER PRIMARY KEY AUTOINCREMENT,
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
	requires_human_review INTEGER NOT NULL,
	response_status       TEXT NOT NULL,
	processing_error      TEXT NOT NULL,
	record_save_time      TEXT NOT NULL
)`

const insertAuditRecord = `
INSERT INTO audit_records (
	sr_no, email_id, timestamp, sender_email, sender_name, recipient_email,
	original_subject, original_content, classification, summary,
	generated_response, requires_human_review, response_status,
	processing_error, record_save_time
) VALUES (
	:sr_no, :email_id, :timestamp, :sender_email, :sender_name, :recipient_email,
	:original_subject, :original_content, :classification, :summary,
	:generated_response, :requires_human_review, :response_status,
	:processing_error, :record_save_time
)`

// SQLiteSink stores records in a local SQLite database.
type SQLiteSink struct {
	db *sqlx.DB
}

// NewSQLiteSink opens (or creates) the database at path.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Name() string { return "sqlite" }

func (s *SQLiteSink) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("creating audit_records table: %w", err)
	}
	return nil
}

func (s *SQLiteSink) Append(ctx context.Context, rec model.AuditRecord) error {
	if err := s.Init(ctx); err != nil {
		return err
	}
	if _, err := s.db.NamedExecContext(ctx, insertAuditRecord, rec); err != nil {
		return fmt.Errorf("inserting audit record: %w", err)
	}
	return nil
}

// Records returns all stored records in insertion order.
func (s *SQLiteSink) Records(ctx context.Context) ([]model.AuditRecord, error) {
	var out []model.AuditRecord
	err := s.db.SelectContext(ctx, &out, `
		SELECT sr_no, email_id, timestamp, sender_email, sender_name, recipient_email,
			original_subject, original_content, classification, summary,
			generated_response, requires_human_review, response_status,
			processing_error, record_save_time
		FROM audit_records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying audit records: %w", err)
	}
	return out, nil
}

func (s *SQLiteSink) Close() error { return s.db.Close() }
