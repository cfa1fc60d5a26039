package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"woldo/internal"
	"woldo/internal/catalog"
	"woldo/internal/config"
	"woldo/internal/logger"
	"woldo/internal/storage"
	"woldo/internal/table"
)

const (
	RunPropose  = "propose"
	RunFinalize = "finalize"
	RunInvoice  = "invoice"
	RunMail     = "mail"
)

type ProcessingService struct {
	db      *storage.DB
	cfg     config.Config
	catalog *catalog.ImportService
	now     func() time.Time
}

func NewProcessingService(db *storage.DB, cfg config.Config) *ProcessingService {
	return &ProcessingService{db: db, cfg: cfg, catalog: catalog.NewImportService(db), now: time.Now}
}

type ProposeResult struct {
	SessionID     string
	CatalogSource string
	Proposal      Proposal
}

// ProposeFiles runs the first phase over an order file and a catalog (the
// stored snapshot when catalogPath is empty) and persists the session.
func (s *ProcessingService) ProposeFiles(ordersPath, catalogPath string) (ProposeResult, error) {
	start := time.Now()
	orders, err := loadOrders(ordersPath, false)
	if err != nil {
		return ProposeResult{}, err
	}
	rows, source, err := s.catalog.Rows(catalogPath)
	if err != nil {
		return ProposeResult{}, err
	}

	p := Propose(orders, rows)
	sess := NewSession(uuid.NewString(), p)
	if abs, err := filepath.Abs(ordersPath); err == nil {
		ordersPath = abs
	}
	meta := internal.SessionMeta{ID: sess.ID, OrdersPath: ordersPath, CatalogPath: source}
	if err := s.db.CreateSession(meta, sess.Rows()); err != nil {
		return ProposeResult{}, errors.Wrap(err, "store session")
	}

	counts := map[string]int{"orders": p.Orders, "auto": len(p.AutoRows), "pending": len(p.Pending), "unmatched": len(p.Unmatched)}
	s.recordRun(storage.Run{Kind: RunPropose, SessionID: sess.ID, Counts: counts}, start)
	logger.Logger.Infow("proposal ready", "session", sess.ID, "orders", p.Orders, "auto", len(p.AutoRows), "pending", len(p.Pending), "unmatched", len(p.Unmatched))

	return ProposeResult{SessionID: sess.ID, CatalogSource: source, Proposal: p}, nil
}

// Session loads a stored session. An empty id means the latest open one.
func (s *ProcessingService) Session(id string) (*Session, internal.SessionMeta, error) {
	if id == "" {
		latest, err := s.db.LatestOpenSession()
		if err != nil {
			return nil, internal.SessionMeta{}, err
		}
		if latest == nil {
			return nil, internal.SessionMeta{}, errors.WithHint(
				errors.Wrap(internal.ErrSessionNotFound, "no open session"),
				"run order:propose first",
			)
		}
		id = latest.ID
	}

	meta, err := s.db.MustSession(id)
	if err != nil {
		return nil, internal.SessionMeta{}, err
	}
	rows, err := s.db.ListSessionRows(id)
	if err != nil {
		return nil, internal.SessionMeta{}, err
	}
	return RestoreSession(meta.ID, rows), meta, nil
}

func (s *ProcessingService) openSession(id string) (*Session, internal.SessionMeta, error) {
	sess, meta, err := s.Session(id)
	if err != nil {
		return nil, meta, err
	}
	if meta.Status != internal.SessionOpen {
		return nil, meta, errors.Wrapf(internal.ErrSessionClosed, "session %s is %s", meta.ID, meta.Status)
	}
	return sess, meta, nil
}

// Select records a 0-based choice for a pending order row and returns the
// chosen candidate.
func (s *ProcessingService) Select(id string, orderRow, choice int) (internal.Candidate, error) {
	sess, meta, err := s.openSession(id)
	if err != nil {
		return internal.Candidate{}, err
	}
	if err := sess.Select(orderRow, choice); err != nil {
		return internal.Candidate{}, err
	}
	if err := s.db.SaveSelection(meta.ID, orderRow, choice); err != nil {
		return internal.Candidate{}, err
	}

	picked := sess.pending[orderRow].Candidates[choice]
	logger.Logger.Debugw("selection saved", "session", meta.ID, "orderRow", orderRow, "catalogRow", picked.RowIndex)
	return picked, nil
}

type FinalizeResult struct {
	SessionID  string
	OutputPath string
	Records    []internal.OutputRecord
	Unresolved []int
	Summary    Summary
}

// FinalizeSession builds and exports the supplier order sheet from the orders
// stored with the session; the order file is not read again. Unresolved
// pending rows fail the run unless partial is set or strict mode is off.
func (s *ProcessingService) FinalizeSession(id, outputPath string, partial bool) (FinalizeResult, error) {
	start := time.Now()
	sess, meta, err := s.openSession(id)
	if err != nil {
		return FinalizeResult{}, err
	}
	strict := s.cfg.FinalizeStrict && !partial
	records, err := sess.Finalize(s.cfg.Sender(), strict)
	if err != nil {
		return FinalizeResult{}, errors.WithHintf(err, "pick candidates with order:select --session %s, or finalize with --partial", meta.ID)
	}

	if outputPath == "" {
		outputPath = filepath.Join(s.cfg.OutputDir, DefaultOrderFileName(s.now()))
	}
	if err := ExportOrdersToXLSX(records, outputPath); err != nil {
		return FinalizeResult{}, errors.Wrapf(err, "export %s", outputPath)
	}
	if err := s.db.UpdateSessionStatus(meta.ID, internal.SessionFinalized); err != nil {
		return FinalizeResult{}, err
	}

	res := FinalizeResult{
		SessionID:  meta.ID,
		OutputPath: outputPath,
		Records:    records,
		Unresolved: sess.Unresolved(),
		Summary:    Summarize(records),
	}
	counts := map[string]int{"records": len(records), "unresolved": len(res.Unresolved), "unpriced": res.Summary.Unpriced}
	s.recordRun(storage.Run{Kind: RunFinalize, SessionID: meta.ID, Counts: counts}, start)
	logger.Logger.Infow("order sheet exported", "session", meta.ID, "path", outputPath, "records", len(records), "total", res.Summary.Total.String())

	return res, nil
}

// RunOrders proposes and finalizes in one step. With pickTop every pending
// row takes its first-ranked candidate.
func (s *ProcessingService) RunOrders(ordersPath, catalogPath, outputPath string, pickTop, partial bool) (FinalizeResult, error) {
	proposed, err := s.ProposeFiles(ordersPath, catalogPath)
	if err != nil {
		return FinalizeResult{}, err
	}
	if pickTop {
		for _, a := range proposed.Proposal.Pending {
			if _, err := s.Select(proposed.SessionID, a.OrderRow, 0); err != nil {
				return FinalizeResult{}, err
			}
		}
	}
	return s.FinalizeSession(proposed.SessionID, outputPath, partial)
}

type InvoiceRunResult struct {
	OutputPath string
	Result     InvoiceResult
}

// InvoiceFiles matches a supplier invoice sheet to marketplace orders and
// exports the marketplace upload file.
func (s *ProcessingService) InvoiceFiles(ordersPath, invoicePath, outputPath string) (InvoiceRunResult, error) {
	start := time.Now()
	orders, err := loadOrders(ordersPath, true)
	if err != nil {
		return InvoiceRunResult{}, err
	}
	sheet, err := table.LoadFile(invoicePath)
	if err != nil {
		return InvoiceRunResult{}, err
	}
	invoices, err := table.Invoices(sheet)
	if err != nil {
		return InvoiceRunResult{}, errors.Wrapf(err, "invoice %s", invoicePath)
	}

	res := MatchInvoices(invoices, orders)
	if outputPath == "" {
		outputPath = filepath.Join(s.cfg.OutputDir, DefaultInvoiceFileName(s.now()))
	}
	if err := ExportInvoicesToXLSX(res.Records, outputPath); err != nil {
		return InvoiceRunResult{}, errors.Wrapf(err, "export %s", outputPath)
	}

	s.recordRun(storage.Run{Kind: RunInvoice, Counts: map[string]int{"invoices": len(invoices), "matched": len(res.Records), "unmatched": len(res.Unmatched)}}, start)
	logUnmatchedInvoices(invoicePath, res.Unmatched)
	return InvoiceRunResult{OutputPath: outputPath, Result: res}, nil
}

type MailResult struct {
	EmailID   int
	Detected  bool
	Matched   int
	Unmatched int
	Outputs   []string
}

func (s *ProcessingService) ProcessByProviderMessageID(provider, messageID string) (MailResult, error) {
	email, err := s.db.MustEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return MailResult{}, err
	}
	return s.ProcessInvoiceMail(email)
}

// ProcessPending handles fetched mails oldest first and returns how many
// mails were processed and how many invoice rows were matched.
func (s *ProcessingService) ProcessPending(limit int, provider string) (int, int, error) {
	pending, err := s.db.ListEmailsByStatus(internal.EmailFetched, limit)
	if err != nil {
		return 0, 0, err
	}
	processedEmails := 0
	matchedRows := 0
	for _, email := range pending {
		if provider != "" && email.Provider != provider {
			continue
		}
		res, err := s.ProcessInvoiceMail(email)
		if err != nil {
			_ = s.db.UpdateEmailStatus(email.ID, internal.EmailFailed)
			return processedEmails, matchedRows, errors.Wrapf(err, "email %d", email.ID)
		}
		processedEmails++
		matchedRows += res.Matched
	}
	return processedEmails, matchedRows, nil
}

// ProcessInvoiceMail runs the invoice pipeline over the spreadsheet
// attachments of one supplier mail against the configured order file.
func (s *ProcessingService) ProcessInvoiceMail(email internal.EmailRow) (MailResult, error) {
	start := time.Now()
	res := MailResult{EmailID: email.ID}

	raw, err := os.ReadFile(email.RawRef)
	if err != nil {
		return res, err
	}
	content, err := ExtractMail(raw)
	if err != nil {
		return res, err
	}

	detect := DetectInvoiceMail(firstNonEmpty(content.Subject, email.Subject), content.Text, content.HTML, content.AttachmentNames)
	sheets, loadErrs := InvoiceSheets(content)
	for _, e := range loadErrs {
		logger.Logger.Warnw("attachment skipped", "email", email.ID, "error", e)
	}
	if !detect.IsInvoice || len(sheets) == 0 {
		_ = s.db.UpdateEmailStatus(email.ID, internal.EmailSkipped)
		s.recordRun(storage.Run{Kind: RunMail, EmailID: email.ID, Counts: map[string]int{"sheets": len(sheets)}}, start)
		logger.Logger.Infow("mail skipped", "email", email.ID, "reason", detect.Reason, "score", detect.Score, "sheets", len(sheets))
		return res, nil
	}
	res.Detected = true

	if err := s.cfg.Require("MAIL_LISTENER_ORDERS_PATH", s.cfg.MailListenerOrdersPath); err != nil {
		return res, err
	}
	orders, err := loadOrders(s.cfg.MailListenerOrdersPath, true)
	if err != nil {
		return res, err
	}

	for _, sheet := range sheets {
		invoices, err := table.Invoices(sheet)
		if err != nil {
			logger.Logger.Warnw("attachment skipped", "email", email.ID, "attachment", sheet.Name, "error", err)
			continue
		}
		matched := MatchInvoices(invoices, orders)
		res.Matched += len(matched.Records)
		res.Unmatched += len(matched.Unmatched)
		logUnmatchedInvoices(sheet.Name, matched.Unmatched)

		if !s.cfg.MailListenerAutoExport {
			continue
		}
		outputPath := filepath.Join(s.cfg.OutputDir, "listener", fmt.Sprintf("%d_%s.xlsx", email.ID, baseName(sheet.Name)))
		if err := ExportInvoicesToXLSX(matched.Records, outputPath); err != nil {
			return res, errors.Wrapf(err, "export %s", outputPath)
		}
		res.Outputs = append(res.Outputs, outputPath)
	}

	status := internal.EmailProcessed
	if len(res.Outputs) > 0 {
		status = internal.EmailExported
	}
	if err := s.db.UpdateEmailStatus(email.ID, status); err != nil {
		return res, err
	}
	s.recordRun(storage.Run{Kind: RunMail, EmailID: email.ID, Counts: map[string]int{"sheets": len(sheets), "matched": res.Matched, "unmatched": res.Unmatched}}, start)
	return res, nil
}

func (s *ProcessingService) recordRun(run storage.Run, start time.Time) {
	run.TraceID = uuid.NewString()
	run.Timings = map[string]float64{"totalMs": float64(time.Since(start).Milliseconds())}
	if err := s.db.InsertRun(run); err != nil {
		logger.Logger.Warnw("run not recorded", "kind", run.Kind, "error", err)
	}
}

func loadOrders(path string, requireOrderID bool) ([]internal.OrderRecord, error) {
	sheet, err := table.LoadFile(path)
	if err != nil {
		return nil, err
	}
	orders, err := table.Orders(sheet, requireOrderID)
	if err != nil {
		return nil, errors.Wrapf(err, "orders %s", path)
	}
	return orders, nil
}

func logUnmatchedInvoices(source string, rows []int) {
	if len(rows) == 0 {
		return
	}
	logger.Logger.Warnw("invoice rows without a matching order", "source", source, "rows", rows)
}

func baseName(name string) string {
	return strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
