package audit

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailtriage/contracts/mq"
	"mailtriage/internal/model"
	"mailtriage/internal/workflow"
)

var fixedNow = time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)

func sampleRecord(srNo int) model.AuditRecord {
	return model.AuditRecord{
		SRNo:                srNo,
		EmailID:             "e1",
		Timestamp:           "2026-03-02T09:00:00",
		SenderEmail:         "james.liu@example.com",
		SenderName:          "James Liu",
		RecipientEmail:      "ops@example.com",
		OriginalSubject:     "Order status",
		OriginalContent:     "Where is my order, again?",
		Classification:      "negative",
		Summary:             "Customer asks about an order.",
		GeneratedResponse:   "Subject: Re: Order status\n\nHi James,\n\nShipped.\n\nBest regards,\nBot",
		RequiresHumanReview: true,
		ResponseStatus:      model.StatusDrafted,
		RecordSaveTime:      fixedNow.Format(TimestampLayout),
	}
}

func TestBuildRecord(t *testing.T) {
	ts := "2026-03-01T08:00:00"
	email := model.Email{ID: "e1", Subject: "Hello", Body: "Body", SenderName: "Ann", SenderEmail: "ann@example.com", Timestamp: &ts}
	state := workflow.CriticalState(email, errors.New("boom"))

	rec := BuildRecord(3, state, "ops@example.com", model.StatusCriticalError, fixedNow)

	assert.Equal(t, 3, rec.SRNo)
	assert.Equal(t, "e1", rec.EmailID)
	assert.Equal(t, ts, rec.Timestamp)
	assert.Equal(t, "Ann", rec.SenderName)
	assert.Equal(t, "ops@example.com", rec.RecipientEmail)
	assert.Equal(t, "error", rec.Classification)
	assert.Equal(t, "Processing failed due to critical error.", rec.Summary)
	assert.Equal(t, "Critical error: boom", rec.ProcessingError)
	assert.Equal(t, model.StatusCriticalError, rec.ResponseStatus)
	assert.Equal(t, "2026-03-02T10:30:00.000000", rec.RecordSaveTime)
}

func TestBuildRecord_TimestampFallsBackToNow(t *testing.T) {
	state := workflow.NewState(model.Email{ID: "e2"})

	rec := BuildRecord(1, state, "ops@example.com", model.StatusSkippedNoResponse, fixedNow)

	assert.Equal(t, rec.RecordSaveTime, rec.Timestamp)
	assert.Empty(t, rec.Classification)
	assert.Empty(t, rec.ProcessingError)
}

func TestCSVSink_HeadersWrittenOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records", "records.csv")
	sink := NewCSVSink(path, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, sink.Init(ctx))
	require.NoError(t, sink.Init(ctx))
	require.NoError(t, sink.Append(ctx, sampleRecord(1)))
	require.NoError(t, sink.Append(ctx, sampleRecord(2)))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, model.AuditColumns, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "2", rows[2][0])
	assert.Equal(t, "Where is my order, again?", rows[1][6])
	assert.Equal(t, "True", rows[1][10])
	assert.Equal(t, "Drafted", rows[1][11])
}

func TestCSVSink_AppendInitializesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	sink := NewCSVSink(path, zap.NewNop())

	require.NoError(t, sink.Append(context.Background(), sampleRecord(1)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestSQLiteSink_RoundTrip(t *testing.T) {
	sink, err := NewSQLiteSink(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	defer sink.Close()
	ctx := context.Background()

	require.NoError(t, sink.Init(ctx))
	require.NoError(t, sink.Append(ctx, sampleRecord(1)))
	second := sampleRecord(2)
	second.RequiresHumanReview = false
	second.ResponseStatus = model.StatusSentDirectly
	require.NoError(t, sink.Append(ctx, second))

	got, err := sink.Records(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, sampleRecord(1), got[0])
	assert.Equal(t, model.StatusSentDirectly, got[1].ResponseStatus)
	assert.False(t, got[1].RequiresHumanReview)
}

type recordingPublisher struct {
	keys     []string
	payloads []any
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, payload any) error {
	p.keys = append(p.keys, key)
	p.payloads = append(p.payloads, payload)
	return p.err
}

func TestEventSink_PublishesTriagedEvent(t *testing.T) {
	pub := &recordingPublisher{}
	sink := NewEventSink(pub)
	sink.now = func() time.Time { return fixedNow }

	require.NoError(t, sink.Append(context.Background(), sampleRecord(4)))

	require.Equal(t, []string{RoutingKeyEmailTriaged}, pub.keys)
	payload := pub.payloads[0].(mq.EmailTriagedPayload)
	assert.Equal(t, "e1", payload.EmailID)
	assert.Equal(t, 4, payload.SRNo)
	assert.Equal(t, "Drafted", payload.ResponseStatus)
	assert.True(t, payload.RequiresHumanReview)
	assert.Equal(t, fixedNow, payload.TriagedAt)
}

type failingSink struct{ appended int }

func (s *failingSink) Name() string               { return "failing" }
func (s *failingSink) Init(context.Context) error { return errors.New("init down") }
func (s *failingSink) Close() error               { return nil }
func (s *failingSink) Append(context.Context, model.AuditRecord) error {
	s.appended++
	return errors.New("append down")
}

func TestMulti_FailingSinkDoesNotBlockOthers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	bad := &failingSink{}
	multi := NewMulti(zap.NewNop(), bad, NewCSVSink(path, zap.NewNop()))
	ctx := context.Background()

	assert.ErrorContains(t, multi.Init(ctx), "init failing sink")
	err := multi.Append(ctx, sampleRecord(1))
	assert.ErrorContains(t, err, "append down")

	assert.Equal(t, 1, bad.appended)
	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Contains(t, string(data), "james.liu@example.com")
	assert.NoError(t, multi.Close())
}
