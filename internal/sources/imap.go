package sources

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	id "github.com/emersion/go-imap-id"
	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
)

const (
	// maxThreadFetch caps how many messages one window fetch will pull
	maxThreadFetch = 200
	// fetchBatchSize is how many messages are fetched per IMAP round trip
	fetchBatchSize = 10
	// snippetLength is how much body text is kept per thread
	snippetLength = 200
)

// IMAPConfig holds the connection settings for one mailbox
type IMAPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	UseSSL   bool
	Mailbox  string
}

// IMAPSource is an EmailSource backed by an IMAP mailbox
type IMAPSource struct {
	cfg IMAPConfig
}

// NewIMAPSource creates an IMAPSource for the given mailbox
func NewIMAPSource(cfg IMAPConfig) *IMAPSource {
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	return &IMAPSource{cfg: cfg}
}

// FetchThreads fetches messages received within the last hoursBack hours
// and maps them to raw threads. Messages are fetched newest-last, capped
// at maxThreadFetch.
func (s *IMAPSource) FetchThreads(ctx context.Context, hoursBack int) ([]RawThread, error) {
	c, err := s.connect()
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	if _, err := c.Select(s.cfg.Mailbox, true); err != nil {
		return nil, fmt.Errorf("%w: select %s: %v", ErrSourceFetch, s.cfg.Mailbox, err)
	}

	criteria := imap.NewSearchCriteria()
	since := time.Now().Add(-time.Duration(hoursBack) * time.Hour)
	// IMAP SINCE is date-granular, so widen to the start of that day and
	// let the parse step's date carry the precise cutoff downstream.
	criteria.Since = time.Date(since.Year(), since.Month(), since.Day(), 0, 0, 0, 0, time.UTC)

	seqNums, err := c.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", ErrSourceFetch, err)
	}
	if len(seqNums) == 0 {
		return []RawThread{}, nil
	}
	if len(seqNums) > maxThreadFetch {
		seqNums = seqNums[len(seqNums)-maxThreadFetch:]
	}

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchUid, imap.FetchEnvelope, imap.FetchFlags, section.FetchItem()}

	var threads []RawThread
	for i := 0; i < len(seqNums); i += fetchBatchSize {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSourceFetch, err)
		}

		end := i + fetchBatchSize
		if end > len(seqNums) {
			end = len(seqNums)
		}

		seqSet := new(imap.SeqSet)
		seqSet.AddNum(seqNums[i:end]...)

		messages := make(chan *imap.Message, fetchBatchSize)
		done := make(chan error, 1)
		go func() {
			done <- c.Fetch(seqSet, items, messages)
		}()

		for msg := range messages {
			if msg == nil || msg.Envelope == nil {
				continue
			}
			threads = append(threads, s.toRawThread(msg))
		}
		if err := <-done; err != nil {
			return nil, fmt.Errorf("%w: fetch: %v", ErrSourceFetch, err)
		}
	}

	return threads, nil
}

// connect establishes and authenticates the IMAP session
func (s *IMAPSource) connect() (*client.Client, error) {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	dialer := &net.Dialer{Timeout: 10 * time.Second}

	var conn net.Conn
	var err error
	if s.cfg.UseSSL {
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: s.cfg.Host})
	} else {
		conn, err = dialer.Dial("tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrSourceFetch, addr, err)
	}

	c, err := client.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrSourceFetch, err)
	}
	c.Timeout = 2 * time.Minute

	// Some providers require client identification before login
	if ok, _ := c.Support("ID"); ok {
		idClient := id.NewClient(c)
		_, _ = idClient.ID(id.ID{
			id.FieldName:    "Dayspark",
			id.FieldVersion: "1.0.0",
		})
	}

	if err := c.Login(s.cfg.Username, s.cfg.Password); err != nil {
		c.Logout()
		return nil, fmt.Errorf("%w: login: %v", ErrSourceFetch, err)
	}

	return c, nil
}

// toRawThread maps a fetched IMAP message to a raw thread
func (s *IMAPSource) toRawThread(msg *imap.Message) RawThread {
	env := msg.Envelope

	messageID := env.MessageId
	if messageID == "" {
		messageID = fmt.Sprintf("uid:%d", msg.Uid)
	}

	raw := RawThread{
		ID:      messageID,
		Subject: env.Subject,
		Date:    env.Date.Format(time.RFC3339),
		Unread:  true,
	}

	if len(env.From) > 0 {
		raw.From = imapAddress(env.From[0])
	}
	for _, addr := range env.From {
		raw.Participants = append(raw.Participants, imapAddress(addr))
	}
	for _, addr := range env.To {
		raw.Participants = append(raw.Participants, imapAddress(addr))
	}

	for _, flag := range msg.Flags {
		switch flag {
		case imap.SeenFlag:
			raw.Unread = false
		case imap.FlaggedFlag:
			raw.Important = true
		}
	}

	for _, literal := range msg.Body {
		content, err := io.ReadAll(literal)
		if err != nil || len(content) == 0 {
			continue
		}
		if snippet := extractSnippet(content); snippet != "" {
			raw.Snippet = snippet
			break
		}
	}

	return raw
}

// imapAddress formats an IMAP address as a bare addr-spec
func imapAddress(addr *imap.Address) string {
	return fmt.Sprintf("%s@%s", addr.MailboxName, addr.HostName)
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// extractSnippet pulls the first chunk of plain text out of a raw message
func extractSnippet(raw []byte) string {
	entity, err := message.Read(bytes.NewReader(raw))
	if err != nil {
		return ""
	}
	text := firstTextPart(entity)
	text = whitespaceRun.ReplaceAllString(strings.TrimSpace(text), " ")
	if len(text) > snippetLength {
		text = text[:snippetLength]
	}
	return text
}

// firstTextPart walks the MIME tree for the first text/plain body
func firstTextPart(entity *message.Entity) string {
	mediaType, _, _ := entity.Header.ContentType()

	if strings.HasPrefix(mediaType, "multipart/") {
		mr := entity.MultipartReader()
		for {
			part, err := mr.NextPart()
			if err != nil {
				return ""
			}
			if text := firstTextPart(part); text != "" {
				return text
			}
		}
	}

	if mediaType == "text/plain" || mediaType == "" {
		body, _ := io.ReadAll(entity.Body)
		return string(body)
	}
	return ""
}
