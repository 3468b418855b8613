package mail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spigell/job-assistant/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const (
	user          = "me"
	unreadLabel   = "UNREAD"
	DefaultMaxMsg = 50
)

var (
	DefaultSenders = []string{
		"linkedin.com",
		"indeed.com",
		"glassdoor.com",
		"ziprecruiter.com",
		"monster.com",
	}
	DefaultSubjectKeywords = []string{"job", "position", "opportunity"}
)

// Message is an alert email reduced to what the extractor needs.
type Message struct {
	ID         string
	Subject    string
	From       string
	Body       string
	ReceivedAt time.Time
}

type messagesAPI interface {
	list(ctx context.Context, query string, max int64) ([]string, error)
	get(ctx context.Context, id string) (*gmail.Message, error)
	markRead(ctx context.Context, id string) error
}

// Config selects which unread messages count as job alerts.
type Config struct {
	Senders         []string
	SubjectKeywords []string
}

// Client reads job alerts from a Gmail inbox.
type Client struct {
	api    messagesAPI
	query  string
	logger *zap.Logger
}

// New builds a Gmail client authorised by ts.
func New(ctx context.Context, ts oauth2.TokenSource, cfg Config, logger *zap.Logger) (*Client, error) {
	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return newClient(&gmailAPI{svc: svc}, cfg, logger), nil
}

func newClient(api messagesAPI, cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		api:    api,
		query:  BuildQuery(cfg.Senders, cfg.SubjectKeywords),
		logger: logger,
	}
}

// BuildQuery returns the Gmail search for unread alerts. Empty lists fall
// back to the default senders and subject keywords.
func BuildQuery(senders, subjectKeywords []string) string {
	if len(senders) == 0 {
		senders = DefaultSenders
	}
	if len(subjectKeywords) == 0 {
		subjectKeywords = DefaultSubjectKeywords
	}

	terms := make([]string, 0, len(senders)+len(subjectKeywords))
	for _, s := range senders {
		if s = strings.TrimSpace(s); s != "" {
			terms = append(terms, "from:"+s)
		}
	}
	for _, k := range subjectKeywords {
		if k = strings.TrimSpace(k); k != "" {
			terms = append(terms, fmt.Sprintf("subject:%q", k))
		}
	}
	return "is:unread (" + strings.Join(terms, " OR ") + ")"
}

// UnreadAlerts lists at most max unread alert emails. A message that cannot
// be fetched is logged and skipped; it stays unread for the next run.
func (c *Client) UnreadAlerts(ctx context.Context, max int) ([]Message, error) {
	if max <= 0 {
		max = DefaultMaxMsg
	}

	ids, err := c.api.list(ctx, c.query, int64(max))
	if err != nil {
		return nil, fmt.Errorf("list unread messages: %w", err)
	}
	c.logger.Debug("unread alert messages", zap.Int("count", len(ids)), zap.String("query", c.query))

	messages := make([]Message, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return messages, err
		}
		raw, err := c.api.get(ctx, id)
		if err != nil {
			c.logger.Warn("fetching message", zap.String("message_id", id), zap.Error(err))
			continue
		}
		messages = append(messages, toMessage(raw))
	}
	return messages, nil
}

// MarkRead removes the UNREAD label.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	if err := c.api.markRead(ctx, id); err != nil {
		return fmt.Errorf("mark message %s read: %w", id, err)
	}
	return nil
}

func toMessage(m *gmail.Message) Message {
	msg := Message{ID: m.Id}
	if m.InternalDate > 0 {
		msg.ReceivedAt = time.UnixMilli(m.InternalDate).UTC()
	}
	if m.Payload == nil {
		return msg
	}
	msg.Subject = header(m.Payload, "Subject")
	msg.From = header(m.Payload, "From")
	msg.Body = messageBody(m.Payload)
	return msg
}

func header(p *gmail.MessagePart, name string) string {
	for _, h := range p.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// messageBody prefers text/plain parts and converts HTML parts otherwise.
func messageBody(p *gmail.MessagePart) string {
	var plain, html []string
	collectParts(p, &plain, &html)
	if len(plain) > 0 {
		return strings.TrimSpace(strings.Join(plain, "\n"))
	}
	texts := make([]string, 0, len(html))
	for _, h := range html {
		texts = append(texts, utils.StringHTMLToText(h))
	}
	return strings.TrimSpace(strings.Join(texts, "\n"))
}

func collectParts(p *gmail.MessagePart, plain, html *[]string) {
	if p == nil {
		return
	}
	if len(p.Parts) > 0 {
		for _, part := range p.Parts {
			collectParts(part, plain, html)
		}
		return
	}
	if p.Body == nil || p.Body.Data == "" {
		return
	}
	data, err := decodeBody(p.Body.Data)
	if err != nil {
		return
	}
	switch {
	case strings.HasPrefix(p.MimeType, "text/html"):
		*html = append(*html, data)
	case strings.HasPrefix(p.MimeType, "text/plain"), p.MimeType == "":
		*plain = append(*plain, data)
	}
}

func decodeBody(data string) (string, error) {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		var rawErr error
		decoded, rawErr = base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
		if rawErr != nil {
			return "", errors.Join(err, rawErr)
		}
	}
	return strings.ToValidUTF8(string(decoded), ""), nil
}

type gmailAPI struct {
	svc *gmail.Service
}

func (g *gmailAPI) list(ctx context.Context, query string, max int64) ([]string, error) {
	resp, err := g.svc.Users.Messages.List(user).Q(query).MaxResults(max).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

func (g *gmailAPI) get(ctx context.Context, id string) (*gmail.Message, error) {
	return g.svc.Users.Messages.Get(user, id).Format("full").Context(ctx).Do()
}

func (g *gmailAPI) markRead(ctx context.Context, id string) error {
	_, err := g.svc.Users.Messages.Modify(user, id, &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{unreadLabel},
	}).Context(ctx).Do()
	return err
}
