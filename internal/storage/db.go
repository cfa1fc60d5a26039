package storage

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"

	"woldo/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "init schema")
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  ordersPath TEXT NOT NULL,
  catalogPath TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'open',
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status);

CREATE TABLE IF NOT EXISTS session_rows (
  sessionId TEXT NOT NULL,
  orderRow INTEGER NOT NULL,
  kind TEXT NOT NULL,
  optionInfo TEXT NOT NULL,
  orderJson TEXT NOT NULL,
  candidatesJson TEXT NOT NULL,
  selected INTEGER,
  PRIMARY KEY(sessionId, orderRow),
  FOREIGN KEY(sessionId) REFERENCES sessions(id)
);

CREATE TABLE IF NOT EXISTS catalog_rows (
  rowIndex INTEGER PRIMARY KEY,
  seq TEXT NOT NULL,
  productNo TEXT NOT NULL,
  productName TEXT NOT NULL,
  optionNo TEXT NOT NULL,
  optionName TEXT NOT NULL,
  shippingTerms TEXT NOT NULL,
  salePrice TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS emails (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  provider TEXT NOT NULL,
  messageId TEXT NOT NULL,
  subject TEXT,
  sender TEXT,
  receivedAt TEXT,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'fetched',
  rawRef TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(provider, messageId)
);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  kind TEXT NOT NULL,
  sessionId TEXT,
  emailId INTEGER,
  timingsJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// CreateSession stores a new open session and supersedes any session still
// open, so pending state never carries over into a new run.
func (d *DB) CreateSession(meta internal.SessionMeta, rows []internal.SessionRow) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`UPDATE sessions SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE status = ?`,
		string(internal.SessionSuperseded), string(internal.SessionOpen)); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT INTO sessions (id, ordersPath, catalogPath, status) VALUES (?, ?, ?, ?)`,
		meta.ID, meta.OrdersPath, meta.CatalogPath, string(internal.SessionOpen)); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
INSERT INTO session_rows (sessionId, orderRow, kind, optionInfo, orderJson, candidatesJson, selected)
VALUES (?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		orderJSON, err := json.Marshal(r.Order)
		if err != nil {
			return err
		}
		candidatesJSON, err := json.Marshal(r.Candidates)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(meta.ID, r.OrderRow, string(r.Kind), r.OptionInfo, string(orderJSON), string(candidatesJSON), r.Selected); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) GetSession(id string) (*internal.SessionMeta, error) {
	var meta internal.SessionMeta
	var status string
	err := d.conn.QueryRow(`
SELECT id, ordersPath, catalogPath, status, createdAt FROM sessions WHERE id = ?
`, id).Scan(&meta.ID, &meta.OrdersPath, &meta.CatalogPath, &status, &meta.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	meta.Status = internal.SessionStatus(status)
	return &meta, nil
}

func (d *DB) LatestOpenSession() (*internal.SessionMeta, error) {
	var id string
	err := d.conn.QueryRow(`
SELECT id FROM sessions WHERE status = ? ORDER BY createdAt DESC, rowid DESC LIMIT 1
`, string(internal.SessionOpen)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d.GetSession(id)
}

// MustSession is GetSession with a missing session reported as ErrSessionNotFound.
func (d *DB) MustSession(id string) (internal.SessionMeta, error) {
	meta, err := d.GetSession(id)
	if err != nil {
		return internal.SessionMeta{}, err
	}
	if meta == nil {
		return internal.SessionMeta{}, errors.Wrapf(internal.ErrSessionNotFound, "session %s", id)
	}
	return *meta, nil
}

func (d *DB) ListSessionRows(id string) ([]internal.SessionRow, error) {
	rows, err := d.conn.Query(`
SELECT orderRow, kind, optionInfo, orderJson, candidatesJson, selected
FROM session_rows WHERE sessionId = ? ORDER BY orderRow ASC
`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.SessionRow
	for rows.Next() {
		var r internal.SessionRow
		var kind, orderJSON, candidatesJSON string
		var selected sql.NullInt64
		if err := rows.Scan(&r.OrderRow, &kind, &r.OptionInfo, &orderJSON, &candidatesJSON, &selected); err != nil {
			return nil, err
		}
		r.Kind = internal.DecisionKind(kind)
		if err := json.Unmarshal([]byte(orderJSON), &r.Order); err != nil {
			return nil, errors.Wrapf(err, "decode order row %d", r.OrderRow)
		}
		if err := json.Unmarshal([]byte(candidatesJSON), &r.Candidates); err != nil {
			return nil, errors.Wrapf(err, "decode candidates of order row %d", r.OrderRow)
		}
		if selected.Valid {
			v := int(selected.Int64)
			r.Selected = &v
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) SaveSelection(sessionID string, orderRow, choice int) error {
	res, err := d.conn.Exec(`
UPDATE session_rows SET selected = ? WHERE sessionId = ? AND orderRow = ? AND kind = ?
`, choice, sessionID, orderRow, string(internal.DecisionPending))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.Wrapf(internal.ErrUnknownSelection, "session %s has no pending order row %d", sessionID, orderRow)
	}
	_, err = d.conn.Exec(`UPDATE sessions SET updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, sessionID)
	return err
}

func (d *DB) UpdateSessionStatus(id string, status internal.SessionStatus) error {
	_, err := d.conn.Exec(`UPDATE sessions SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, string(status), id)
	return err
}

// ReplaceCatalog swaps the stored catalog snapshot for rows.
func (d *DB) ReplaceCatalog(rows []internal.CatalogRow) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM catalog_rows`); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
INSERT INTO catalog_rows (rowIndex, seq, productNo, productName, optionNo, optionName, shippingTerms, salePrice)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(r.RowIndex, r.Seq, r.ProductNo, r.ProductName, r.OptionNo, r.OptionName, r.ShippingTerms, r.SalePrice); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListCatalog() ([]internal.CatalogRow, error) {
	rows, err := d.conn.Query(`
SELECT rowIndex, seq, productNo, productName, optionNo, optionName, shippingTerms, salePrice
FROM catalog_rows ORDER BY rowIndex ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.CatalogRow
	for rows.Next() {
		var r internal.CatalogRow
		if err := rows.Scan(&r.RowIndex, &r.Seq, &r.ProductNo, &r.ProductName, &r.OptionNo, &r.OptionName, &r.ShippingTerms, &r.SalePrice); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) UpsertEmail(provider, messageID, subject, sender, receivedAt, hash, rawRef, status string) (internal.EmailRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO emails (provider, messageId, subject, sender, receivedAt, hash, status, rawRef)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, messageId) DO UPDATE SET
  subject=excluded.subject,
  sender=excluded.sender,
  receivedAt=excluded.receivedAt,
  hash=excluded.hash,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, provider, messageID, subject, sender, receivedAt, hash, status, rawRef)
	if err != nil {
		return internal.EmailRow{}, err
	}

	row, err := d.GetEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.EmailRow{}, err
	}
	if row == nil {
		return internal.EmailRow{}, errors.New("failed to upsert email")
	}
	return *row, nil
}

func (d *DB) GetEmailByProviderMessageID(provider, messageID string) (*internal.EmailRow, error) {
	return d.scanEmail(d.conn.QueryRow(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM emails WHERE provider = ? AND messageId = ?
`, provider, messageID))
}

func (d *DB) GetEmailByID(id int) (*internal.EmailRow, error) {
	return d.scanEmail(d.conn.QueryRow(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM emails WHERE id = ?
`, id))
}

func (d *DB) scanEmail(row *sql.Row) (*internal.EmailRow, error) {
	var e internal.EmailRow
	err := row.Scan(&e.ID, &e.Provider, &e.MessageID, &e.Subject, &e.Sender, &e.ReceivedAt, &e.Hash, &e.Status, &e.RawRef)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (d *DB) ListEmailsByStatus(status string, limit int) ([]internal.EmailRow, error) {
	rows, err := d.conn.Query(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM emails WHERE status = ? ORDER BY receivedAt ASC LIMIT ?
`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.EmailRow
	for rows.Next() {
		var row internal.EmailRow
		if err := rows.Scan(&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateEmailStatus(emailID int, status string) error {
	_, err := d.conn.Exec(`UPDATE emails SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, emailID)
	return err
}

func (d *DB) MustEmailByProviderMessageID(provider, messageID string) (internal.EmailRow, error) {
	row, err := d.GetEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.EmailRow{}, err
	}
	if row == nil {
		return internal.EmailRow{}, errors.Newf("email not found: provider=%s messageId=%s", provider, messageID)
	}
	return *row, nil
}

type Run struct {
	TraceID   string
	Kind      string
	SessionID string
	EmailID   int
	Timings   map[string]float64
	Counts    map[string]int
}

func (d *DB) InsertRun(run Run) error {
	timingsJSON, _ := json.Marshal(run.Timings)
	countsJSON, _ := json.Marshal(run.Counts)
	var sessionID any
	if run.SessionID != "" {
		sessionID = run.SessionID
	}
	var emailID any
	if run.EmailID != 0 {
		emailID = run.EmailID
	}
	_, err := d.conn.Exec(`INSERT INTO runs (traceId, kind, sessionId, emailId, timingsJson, countsJson) VALUES (?, ?, ?, ?, ?, ?)`,
		run.TraceID, run.Kind, sessionID, emailID, string(timingsJSON), string(countsJSON))
	return err
}

func (d *DB) ListRuns(kind string, limit int) ([]Run, error) {
	rows, err := d.conn.Query(`
SELECT traceId, kind, COALESCE(sessionId, ''), COALESCE(emailId, 0), timingsJson, countsJson
FROM runs WHERE kind = ? ORDER BY id DESC LIMIT ?
`, kind, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var timingsJSON, countsJSON string
		if err := rows.Scan(&r.TraceID, &r.Kind, &r.SessionID, &r.EmailID, &timingsJSON, &countsJSON); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(timingsJSON), &r.Timings)
		_ = json.Unmarshal([]byte(countsJSON), &r.Counts)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
