package mailbox

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"mailtriage/internal/model"
	"mailtriage/pkg/config"
	"mailtriage/pkg/util"
)

// IMAPFetcher reads unseen messages from an IMAP mailbox.
type IMAPFetcher struct {
	cfg    config.IMAPConfig
	logger *zap.Logger
}

func NewIMAPFetcher(cfg config.IMAPConfig, logger *zap.Logger) *IMAPFetcher {
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	if cfg.Port == 0 {
		cfg.Port = 993
	}
	return &IMAPFetcher{cfg: cfg, logger: logger}
}

func (f *IMAPFetcher) connect() (*imapclient.Client, error) {
	addr := fmt.Sprintf("%s:%d", f.cfg.Host, f.cfg.Port)

	var (
		client *imapclient.Client
		err    error
	)
	if f.cfg.TLS {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(f.cfg.Username, f.cfg.Password).Wait(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("IMAP authentication failed for %s: %w", f.cfg.Username, err)
	}
	return client, nil
}

// Fetch returns the newest limit unseen messages. Messages are read with
// BODY.PEEK so they stay unseen unless markAsSeen is set. A message that
// cannot be parsed is logged and skipped.
func (f *IMAPFetcher) Fetch(ctx context.Context, limit int, markAsSeen bool) ([]model.Email, error) {
	log := f.logger.With(zap.String("server", f.cfg.Host), zap.String("mailbox", f.cfg.Mailbox))

	client, err := f.connect()
	if err != nil {
		_, kind := util.ClassifyError(err)
		log.Error("IMAP connection failed", zap.String("error_type", kind), zap.Error(err))
		return nil, err
	}
	defer func() {
		if err := client.Logout().Wait(); err != nil {
			log.Warn("IMAP logout failed", zap.Error(err))
		}
		_ = client.Close()
	}()

	if _, err := client.Select(f.cfg.Mailbox, nil).Wait(); err != nil {
		return nil, fmt.Errorf("selecting %s: %w", f.cfg.Mailbox, err)
	}

	searchData, err := client.UIDSearch(&imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
	}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching unseen messages: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		log.Info("No unread emails found")
		return nil, nil
	}
	if limit > 0 && len(uids) > limit {
		uids = uids[len(uids)-limit:]
	}

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchCmd := client.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:         true,
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	})
	defer fetchCmd.Close()

	var (
		emails []model.Email
		seen   []imap.UID
	)
	for {
		if ctx.Err() != nil {
			break
		}
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			log.Warn("Failed to collect message", zap.Error(err))
			continue
		}

		id := messageID(buf)
		email, err := parseMessage(id, buf.FindBodySection(bodySection))
		if err != nil {
			log.Error("Failed to parse message", zap.String("email_id", id), zap.Error(err))
			continue
		}
		emails = append(emails, email)
		seen = append(seen, buf.UID)
	}
	if err := fetchCmd.Close(); err != nil {
		return emails, fmt.Errorf("fetching messages: %w", err)
	}

	if markAsSeen && len(seen) > 0 {
		storeCmd := client.Store(imap.UIDSetNum(seen...), &imap.StoreFlags{
			Op:     imap.StoreFlagsAdd,
			Silent: true,
			Flags:  []imap.Flag{imap.FlagSeen},
		}, nil)
		if err := storeCmd.Close(); err != nil {
			log.Warn("Failed to mark messages as seen", zap.Error(err))
		}
	}

	log.Info("Fetched unread emails", zap.Int("count", len(emails)))
	return emails, nil
}

// messageID derives a stable id from the Message-ID header, falling back to
// the UID when the header is absent.
func messageID(buf *imapclient.FetchMessageBuffer) string {
	if buf.Envelope != nil && buf.Envelope.MessageID != "" {
		return StableID(buf.Envelope.MessageID)
	}
	return "uid-" + strconv.FormatUint(uint64(buf.UID), 10)
}

// StableID hashes a Message-ID into a short hex id.
func StableID(messageID string) string {
	sum := blake2b.Sum256([]byte(strings.Trim(strings.TrimSpace(messageID), "<>")))
	return hex.EncodeToString(sum[:12])
}
