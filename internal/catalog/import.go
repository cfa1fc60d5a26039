package catalog

import (
	"time"

	"github.com/cockroachdb/errors"

	"woldo/internal"
	"woldo/internal/logger"
	"woldo/internal/storage"
	"woldo/internal/table"
)

const (
	metaSource     = "catalog.source"
	metaImportedAt = "catalog.imported_at"
)

// ImportService keeps the current catalog snapshot in storage.
type ImportService struct {
	db *storage.DB
}

func NewImportService(db *storage.DB) *ImportService {
	return &ImportService{db: db}
}

// Import loads a catalog spreadsheet and replaces the stored snapshot with it.
func (s *ImportService) Import(path string) (int, error) {
	sheet, err := table.LoadFile(path)
	if err != nil {
		return 0, err
	}
	rows, err := table.Catalog(sheet)
	if err != nil {
		return 0, errors.Wrapf(err, "catalog %s", path)
	}
	if err := s.db.ReplaceCatalog(rows); err != nil {
		return 0, errors.Wrap(err, "store catalog")
	}
	if err := s.db.SetMetadata(metaSource, path); err != nil {
		return 0, errors.Wrap(err, "store catalog source")
	}
	if err := s.db.SetMetadata(metaImportedAt, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return 0, errors.Wrap(err, "store catalog import time")
	}

	logger.Logger.Infow("catalog imported", "path", path, "rows", len(rows), "format", sheet.Format)
	return len(rows), nil
}

// Current returns the stored snapshot and the file it was imported from.
func (s *ImportService) Current() ([]internal.CatalogRow, string, error) {
	rows, err := s.db.ListCatalog()
	if err != nil {
		return nil, "", err
	}
	if len(rows) == 0 {
		return nil, "", errors.WithHint(errors.New("no catalog imported"), "run catalog:import --file <catalog.xlsx> or pass --catalog")
	}
	source := ""
	if v, err := s.db.GetMetadata(metaSource); err == nil && v != nil {
		source = *v
	}
	return rows, source, nil
}

// Rows returns the catalog at path, or the stored snapshot when path is empty.
func (s *ImportService) Rows(path string) ([]internal.CatalogRow, string, error) {
	if path == "" {
		return s.Current()
	}
	sheet, err := table.LoadFile(path)
	if err != nil {
		return nil, "", err
	}
	rows, err := table.Catalog(sheet)
	if err != nil {
		return nil, "", errors.Wrapf(err, "catalog %s", path)
	}
	return rows, path, nil
}
