package service

import (
	"context"
	"errors"
	"sync"

	"mailtriage/internal/model"
	"mailtriage/internal/workflow"
)

type fakeFetcher struct {
	emails   []model.Email
	err      error
	limit    int
	markSeen bool
	calls    int
}

func (f *fakeFetcher) Fetch(_ context.Context, limit int, markAsSeen bool) ([]model.Email, error) {
	f.calls++
	f.limit, f.markSeen = limit, markAsSeen
	if f.err != nil {
		return nil, f.err
	}
	if limit > 0 && limit < len(f.emails) {
		return f.emails[:limit], nil
	}
	return f.emails, nil
}

type sentMessage struct {
	draft   bool
	subject string
	to      string
	from    string
	body    string
}

type fakeSender struct {
	sent []sentMessage
	fail bool
}

func (s *fakeSender) Send(_ context.Context, subject, to, from, body string) bool {
	s.sent = append(s.sent, sentMessage{subject: subject, to: to, from: from, body: body})
	return !s.fail
}

func (s *fakeSender) Draft(_ context.Context, subject, ownMailbox, body string) bool {
	s.sent = append(s.sent, sentMessage{draft: true, subject: subject, to: ownMailbox, body: body})
	return !s.fail
}

type memorySink struct {
	mu        sync.Mutex
	inits     int
	records   []model.AuditRecord
	appendErr error
}

func (s *memorySink) Name() string { return "memory" }

func (s *memorySink) Init(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inits++
	return nil
}

func (s *memorySink) Append(_ context.Context, rec model.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return s.appendErr
}

func (s *memorySink) Close() error { return nil }

// memoryGuard behaves like the Redis deduper without a server.
type memoryGuard struct {
	held     map[string]bool
	released []string
}

func newMemoryGuard() *memoryGuard { return &memoryGuard{held: make(map[string]bool)} }

func (g *memoryGuard) AcquireOnce(_ context.Context, handler, emailID string) bool {
	key := handler + ":" + emailID
	if g.held[key] {
		return false
	}
	g.held[key] = true
	return true
}

func (g *memoryGuard) Release(_ context.Context, handler, emailID string) {
	delete(g.held, handler+":"+emailID)
	g.released = append(g.released, emailID)
}

type fakeReviewer struct {
	edit string
	err  error
	seen []string
}

func (r *fakeReviewer) Review(_ context.Context, _ model.Email, message string) (string, error) {
	r.seen = append(r.seen, message)
	if r.err != nil {
		return "", r.err
	}
	return r.edit, nil
}

type runnerFunc func(ctx context.Context, email model.Email, recipientName string) *workflow.State

func (f runnerFunc) Run(ctx context.Context, email model.Email, recipientName string) *workflow.State {
	return f(ctx, email, recipientName)
}

var errFetch = errors.New("imap unavailable")
