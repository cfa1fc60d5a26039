package connectors

import (
	"strings"

	"github.com/cockroachdb/errors"

	"woldo/internal"
	"woldo/internal/config"
	gmailconnector "woldo/internal/connectors/gmail"
	imapconnector "woldo/internal/connectors/imap"
)

// MailConnector fetches recent mails from one mailbox. A non-empty from
// restricts the fetch to that sender.
type MailConnector interface {
	FetchInbox(label string, max int, from string) ([]internal.FetchedMailMessage, error)
}

func New(provider string, cfg config.Config) (MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gmail":
		return gmailconnector.NewConnector(cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, errors.WithHint(errors.Newf("unsupported mail provider: %s", provider), "use gmail or imap")
	}
}
