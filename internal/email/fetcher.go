// Package email reads PDF newsletters from an IMAP inbox and mails the
// resulting ministore digest.
package email

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	jemail "github.com/jordan-wright/email"
	"go.uber.org/zap"

	"ministore/internal/logging"
)

// Message is an email carrying at least one PDF attachment.
type Message struct {
	UID         uint32
	Subject     string
	From        string
	Date        time.Time
	Attachments []Attachment
}

// Attachment is a decoded file attached to an email.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// FetcherConfig holds IMAP settings.
type FetcherConfig struct {
	Server   string
	Port     int
	Username string
	Password string
	Folder   string

	// Since is how far back to look; defaults to 24 hours.
	Since time.Duration
}

// Fetcher reads messages over IMAP.
type Fetcher struct {
	config FetcherConfig
	logger *zap.Logger
}

// NewFetcher creates a Fetcher.
func NewFetcher(config FetcherConfig, logger *zap.Logger) *Fetcher {
	if config.Folder == "" {
		config.Folder = "INBOX"
	}
	if config.Since <= 0 {
		config.Since = 24 * time.Hour
	}
	return &Fetcher{config: config, logger: logging.OrNop(logger)}
}

// FetchPDFEmails returns the recent messages that carry PDF attachments.
func (f *Fetcher) FetchPDFEmails(ctx context.Context) ([]Message, error) {
	addr := fmt.Sprintf("%s:%d", f.config.Server, f.config.Port)
	f.logger.Info("connecting to IMAP server", zap.String("addr", addr))

	c, err := client.DialTLS(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IMAP server: %w", err)
	}
	defer c.Logout()

	if err := c.Login(f.config.Username, f.config.Password); err != nil {
		return nil, fmt.Errorf("failed to login: %w", err)
	}
	if _, err := c.Select(f.config.Folder, true); err != nil {
		return nil, fmt.Errorf("failed to select mailbox %s: %w", f.config.Folder, err)
	}

	since := time.Now().Add(-f.config.Since)
	criteria := imap.NewSearchCriteria()
	criteria.Since = since
	uids, err := c.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search emails: %w", err)
	}
	if len(uids) == 0 {
		f.logger.Info("no emails found", zap.Time("since", since))
		return []Message{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.logger.Info("found emails", zap.Int("count", len(uids)), zap.Time("since", since))

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqset, items, messages)
	}()

	var out []Message
	for msg := range messages {
		m, err := f.convert(msg, section)
		if err != nil {
			f.logger.Warn("skipping message", zap.Uint32("uid", msg.Uid), zap.Error(err))
			continue
		}
		if len(m.Attachments) > 0 {
			out = append(out, m)
		}
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	f.logger.Info("fetched emails with PDF attachments", zap.Int("count", len(out)))
	return out, nil
}

func (f *Fetcher) convert(msg *imap.Message, section *imap.BodySectionName) (Message, error) {
	m := Message{UID: msg.Uid}
	if msg.Envelope != nil {
		m.Subject = msg.Envelope.Subject
		m.From = formatAddress(msg.Envelope.From)
		m.Date = msg.Envelope.Date
	}

	body := msg.GetBody(section)
	if body == nil {
		return m, fmt.Errorf("message body not available")
	}
	attachments, err := PDFAttachments(body)
	if err != nil {
		return m, err
	}
	for _, a := range attachments {
		f.logger.Debug("found PDF attachment", zap.Uint32("uid", msg.Uid), zap.String("filename", a.Filename))
	}
	m.Attachments = attachments
	return m, nil
}

// PDFAttachments parses a raw RFC 822 message and returns its PDF
// attachments with transfer encodings decoded.
func PDFAttachments(r io.Reader) ([]Attachment, error) {
	parsed, err := jemail.NewEmailFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	var out []Attachment
	for _, a := range parsed.Attachments {
		if !isPDF(a.ContentType, a.Filename) {
			continue
		}
		name := a.Filename
		if name == "" {
			name = "attachment.pdf"
		}
		out = append(out, Attachment{Filename: name, ContentType: a.ContentType, Data: a.Content})
	}
	return out, nil
}

func isPDF(contentType, filename string) bool {
	if strings.Contains(strings.ToLower(contentType), "application/pdf") {
		return true
	}
	return strings.EqualFold(path.Ext(filename), ".pdf")
}

func formatAddress(addresses []*imap.Address) string {
	if len(addresses) == 0 {
		return ""
	}
	addr := addresses[0]
	if addr.PersonalName != "" {
		return fmt.Sprintf("%s <%s>", addr.PersonalName, addr.Address())
	}
	return addr.Address()
}
