package mailbox

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"mailtriage/internal/model"
)

const (
	DefaultFixturePath = "data/sample_emails.json"
	unknownSender      = model.UnknownSender
)

// FixtureFetcher serves emails from a JSON array on disk.
type FixtureFetcher struct {
	path   string
	logger *zap.Logger
}

func NewFixtureFetcher(path string, logger *zap.Logger) *FixtureFetcher {
	if path == "" {
		path = DefaultFixturePath
	}
	return &FixtureFetcher{path: path, logger: logger}
}

// Fetch loads the fixture. A missing or malformed file is logged and yields
// an empty batch. markAsSeen has no meaning here.
func (f *FixtureFetcher) Fetch(_ context.Context, limit int, _ bool) ([]model.Email, error) {
	emails, err := f.load()
	if err != nil {
		f.logger.Error("Failed to load simulated emails", zap.String("path", f.path), zap.Error(err))
		return nil, nil
	}

	if limit > 0 && len(emails) > limit {
		emails = emails[:limit]
	}
	f.logger.Info("Loaded simulated emails", zap.String("path", f.path), zap.Int("count", len(emails)))
	return emails, nil
}

func (f *FixtureFetcher) load() ([]model.Email, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, err
	}

	var emails []model.Email
	if err := json.Unmarshal(data, &emails); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}

	for i := range emails {
		normalize(&emails[i], i)
	}
	return emails, nil
}

// normalize fills fields a fixture may leave out.
func normalize(e *model.Email, index int) {
	if e.ID == "" {
		e.ID = fmt.Sprintf("simulated_%d", index+1)
	}
	if e.SenderEmail == "" {
		e.SenderEmail = unknownSender
	}
	if e.SenderName == "" {
		e.SenderName = ExtractName(e.SenderEmail)
	}
	if e.Subject == "" {
		e.Subject = model.DefaultSubject
	}
}
