package connectors

import (
	"woldo/internal/logger"
	"woldo/internal/storage"
)

type FetchService struct {
	db        *storage.DB
	connector MailConnector
	store     *MailStoreService
	from      string
}

type FetchResult struct {
	Fetched int
	Stored  int
}

// NewFetchService stores mails from supplierFrom (any sender when empty)
// under rawMailDir.
func NewFetchService(db *storage.DB, rawMailDir, supplierFrom string, connector MailConnector) *FetchService {
	return &FetchService{
		db:        db,
		connector: connector,
		store:     NewMailStoreService(db, rawMailDir),
		from:      supplierFrom,
	}
}

func (s *FetchService) FetchAndStore(label string, max int) (FetchResult, error) {
	messages, err := s.connector.FetchInbox(label, max, s.from)
	if err != nil {
		return FetchResult{}, err
	}

	stored := 0
	for _, msg := range messages {
		row, err := s.store.Store(msg)
		if err != nil {
			return FetchResult{}, err
		}
		logger.Logger.Debugw("mail stored", "email", row.ID, "provider", row.Provider, "subject", row.Subject)
		stored++
	}

	return FetchResult{Fetched: len(messages), Stored: stored}, nil
}
