package audit

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"mailtriage/internal/model"
)

// DefaultCSVPath is used when no path is configured.
const DefaultCSVPath = "records/records.csv"

// CSVSink appends records to a CSV file with a fixed header row.
type CSVSink struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

func NewCSVSink(path string, logger *zap.Logger) *CSVSink {
	if path == "" {
		path = DefaultCSVPath
	}
	return &CSVSink{path: path, logger: logger}
}

func (s *CSVSink) Name() string { return "csv" }

// Init creates the file and its header row if the file is missing or empty.
func (s *CSVSink) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.init()
}

func (s *CSVSink) init() error {
	if info, err := os.Stat(s.path); err == nil && info.Size() > 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create records dir: %w", err)
	}
	if err := s.write(model.AuditColumns); err != nil {
		return err
	}
	s.logger.Info("Initialized audit CSV with headers", zap.String("path", s.path))
	return nil
}

func (s *CSVSink) Append(ctx context.Context, rec model.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.init(); err != nil {
		return err
	}
	return s.write(rec.Row())
}

func (s *CSVSink) write(row []string) error {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(row); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	w.Flush()
	return w.Error()
}

func (s *CSVSink) Close() error { return nil }
