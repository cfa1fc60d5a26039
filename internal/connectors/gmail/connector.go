package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jhillyerd/enmime"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"woldo/internal"
	"woldo/internal/config"
)

const provider = "gmail"

type Connector struct {
	service *gmail.Service
}

func NewConnector(cfg config.Config) (*Connector, error) {
	for name, value := range map[string]string{
		"GMAIL_CLIENT_ID":     cfg.GmailClientID,
		"GMAIL_CLIENT_SECRET": cfg.GmailClientSecret,
		"GMAIL_REFRESH_TOKEN": cfg.GmailRefreshToken,
	} {
		if err := cfg.Require(name, value); err != nil {
			return nil, err
		}
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.GmailClientID,
		ClientSecret: cfg.GmailClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.GmailRedirectURI,
		Scopes:       []string{gmail.GmailReadonlyScope},
	}

	ctx := context.Background()
	tokenSource := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.GmailRefreshToken})
	svc, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, errors.Wrap(err, "gmail service")
	}

	return &Connector{service: svc}, nil
}

// FetchInbox lists messages with attachments, optionally from one sender,
// and downloads them in raw RFC 822 form. Headers are read from the raw
// message, so each mail costs one API call.
func (c *Connector) FetchInbox(label string, max int, from string) ([]internal.FetchedMailMessage, error) {
	listResp, err := c.service.Users.Messages.List("me").
		LabelIds(label).
		Q(searchQuery(from)).
		MaxResults(int64(max)).
		Do()
	if err != nil {
		return nil, errors.Wrap(err, "list messages")
	}

	out := make([]internal.FetchedMailMessage, 0, len(listResp.Messages))
	for _, ref := range listResp.Messages {
		if ref.Id == "" {
			continue
		}
		msg, err := c.service.Users.Messages.Get("me", ref.Id).Format("raw").Do()
		if err != nil {
			return nil, errors.Wrapf(err, "get message %s", ref.Id)
		}
		if msg.Raw == "" {
			continue
		}
		raw, err := decodeBase64URL(msg.Raw)
		if err != nil {
			return nil, err
		}
		out = append(out, fromRaw(ref.Id, raw, msg.InternalDate))
	}

	return out, nil
}

// fromRaw fills message metadata from the raw headers. The Gmail id stands
// in for a missing Message-ID and the internal date for a missing Date.
func fromRaw(gmailID string, raw []byte, internalDateMs int64) internal.FetchedMailMessage {
	msg := internal.FetchedMailMessage{Provider: provider, MessageID: gmailID, Raw: raw}

	received := time.Now().UTC()
	if internalDateMs > 0 {
		received = time.UnixMilli(internalDateMs).UTC()
	}

	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err == nil {
		msg.Subject = env.GetHeader("Subject")
		msg.From = env.GetHeader("From")
		if id := strings.TrimSpace(env.GetHeader("Message-ID")); id != "" {
			msg.MessageID = id
		}
		if date, err := mail.ParseDate(env.GetHeader("Date")); err == nil {
			received = date.UTC()
		}
	}
	msg.ReceivedAt = received.Format(time.RFC3339)
	return msg
}

func searchQuery(from string) string {
	q := "has:attachment"
	if from = strings.TrimSpace(from); from != "" {
		q += fmt.Sprintf(" from:(%s)", from)
	}
	return q
}

func decodeBase64URL(input string) ([]byte, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(input)
	if err == nil {
		return decoded, nil
	}
	decoded, err = base64.URLEncoding.DecodeString(input)
	if err == nil {
		return decoded, nil
	}
	return nil, errors.Wrap(err, "decode gmail raw payload")
}
