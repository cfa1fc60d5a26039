package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"

	"woldo/internal"
	"woldo/internal/catalog"
	"woldo/internal/config"
	"woldo/internal/connectors"
	"woldo/internal/listener"
	"woldo/internal/logger"
	"woldo/internal/pipeline"
	"woldo/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)
	must(logger.Initialize(cfg.LogJSON, cfg.LogLevel))
	defer logger.Sync()

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	processor := pipeline.NewProcessingService(db, cfg)

	cmd := os.Args[1]
	switch cmd {
	case "catalog:import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "catalog spreadsheet path")
		_ = fs.Parse(os.Args[2:])
		required("--file", *file)
		count, err := catalog.NewImportService(db).Import(*file)
		must(err)
		fmt.Printf("catalog imported rows=%d file=%s\n", count, *file)
	case "order:propose":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		orders := fs.String("orders", "", "marketplace order export")
		catalogPath := fs.String("catalog", "", "catalog spreadsheet (default: imported snapshot)")
		_ = fs.Parse(os.Args[2:])
		required("--orders", *orders)
		res, err := processor.ProposeFiles(*orders, *catalogPath)
		must(err)
		p := res.Proposal
		fmt.Printf("session=%s catalog=%s\n", res.SessionID, res.CatalogSource)
		fmt.Printf("orders=%d auto=%d pending=%d unmatched=%d\n", p.Orders, len(p.AutoRows), len(p.Pending), len(p.Unmatched))
		printPending(p.Pending, nil)
		if len(p.Unmatched) > 0 {
			fmt.Printf("unmatched order rows: %v\n", p.Unmatched)
		}
	case "order:pending":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		session := fs.String("session", "", "session id (default: latest open)")
		_ = fs.Parse(os.Args[2:])
		sess, meta, err := processor.Session(*session)
		must(err)
		fmt.Printf("session=%s status=%s orders=%s\n", meta.ID, meta.Status, meta.OrdersPath)
		printPending(sess.Pending(), sess)
		fmt.Printf("unresolved=%d\n", len(sess.Unresolved()))
	case "order:select":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		session := fs.String("session", "", "session id (default: latest open)")
		row := fs.Int("row", -1, "order row index")
		choice := fs.Int("choice", 0, "candidate number as listed (1-based)")
		_ = fs.Parse(os.Args[2:])
		if *row < 0 || *choice < 1 {
			must(errors.New("--row and --choice are required"))
		}
		picked, err := processor.Select(*session, *row, *choice-1)
		must(err)
		fmt.Printf("order row %d -> %s\n", *row, picked.Label())
	case "order:finalize":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		session := fs.String("session", "", "session id (default: latest open)")
		out := fs.String("out", "", "output xlsx path")
		partial := fs.Bool("partial", false, "leave unresolved rows out instead of failing")
		_ = fs.Parse(os.Args[2:])
		res, err := processor.FinalizeSession(*session, *out, *partial)
		must(err)
		report(cfg, res)
	case "order:run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		orders := fs.String("orders", "", "marketplace order export")
		catalogPath := fs.String("catalog", "", "catalog spreadsheet (default: imported snapshot)")
		out := fs.String("out", "", "output xlsx path")
		pickTop := fs.Bool("pick-top", false, "resolve ambiguities with the first-ranked candidate")
		partial := fs.Bool("partial", false, "leave unresolved rows out instead of failing")
		_ = fs.Parse(os.Args[2:])
		required("--orders", *orders)
		res, err := processor.RunOrders(*orders, *catalogPath, *out, *pickTop, *partial)
		must(err)
		report(cfg, res)
	case "invoice:match":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		orders := fs.String("orders", "", "marketplace order export")
		invoice := fs.String("invoice", "", "supplier invoice sheet")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		required("--orders", *orders)
		required("--invoice", *invoice)
		res, err := processor.InvoiceFiles(*orders, *invoice, *out)
		must(err)
		fmt.Printf("총 %d건의 송장이 매칭되었습니다\n", len(res.Result.Records))
		if len(res.Result.Unmatched) > 0 {
			fmt.Printf("unmatched invoice rows: %v\n", res.Result.Unmatched)
		}
		fmt.Printf("output=%s\n", res.OutputPath)
	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.MailListenerProvider, "gmail|imap")
		label := fs.String("label", cfg.MailListenerLabel, "mailbox/label")
		max := fs.Int("max", 50, "max messages")
		_ = fs.Parse(os.Args[2:])
		conn, err := connectors.New(*provider, cfg)
		must(err)
		fetch := connectors.NewFetchService(db, cfg.RawMailDir, cfg.SupplierFrom, conn)
		result, err := fetch.FetchAndStore(*label, *max)
		must(err)
		fmt.Printf("mail fetch done provider=%s fetched=%d stored=%d\n", *provider, result.Fetched, result.Stored)
	case "mail:process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", "", "gmail|imap (default: all)")
		messageID := fs.String("messageId", "", "specific message-id")
		batch := fs.Int("batch", cfg.MailListenerProcessBatch, "batch size")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*messageID) != "" {
			required("--provider", *provider)
			res, err := processor.ProcessByProviderMessageID(*provider, *messageID)
			must(err)
			fmt.Printf("processed email id=%d invoice=%t matched=%d unmatched=%d outputs=%v\n", res.EmailID, res.Detected, res.Matched, res.Unmatched, res.Outputs)
			return
		}
		processedEmails, matched, err := processor.ProcessPending(*batch, *provider)
		must(err)
		fmt.Printf("processed pending emails=%d matched=%d\n", processedEmails, matched)
	case "mail:listen":
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		must(listener.NewService(db, cfg).Run(ctx))
	default:
		usage()
		os.Exit(1)
	}
}

func printPending(pending []pipeline.Ambiguity, sess *pipeline.Session) {
	for _, a := range pending {
		fmt.Printf("row %d: %s\n", a.OrderRow, a.OptionInfo)
		chosen := -1
		if sess != nil {
			if c, ok := sess.Selection(a.OrderRow); ok {
				chosen = c
			}
		}
		for i, label := range a.Labels() {
			mark := " "
			if i == chosen {
				mark = "*"
			}
			fmt.Printf("  %s%d. %s\n", mark, i+1, label)
		}
	}
}

func report(cfg config.Config, res pipeline.FinalizeResult) {
	fmt.Printf("총 %d건의 상품이 매칭되었습니다\n", len(res.Records))
	if len(res.Unresolved) > 0 {
		fmt.Printf("left out unresolved order rows: %v\n", res.Unresolved)
	}
	fmt.Printf("total=%s unpriced=%d\n", res.Summary.Total.StringFixed(0), res.Summary.Unpriced)

	preview := pipeline.Preview(res.Records, cfg.PreviewRows)
	if len(preview) > 0 {
		fmt.Println(strings.Join(internal.OutputColumns, " | "))
		for _, r := range preview {
			fmt.Println(strings.Join(r.Values(), " | "))
		}
	}
	fmt.Printf("output=%s\n", res.OutputPath)
}

func required(flagName, value string) {
	if strings.TrimSpace(value) == "" {
		must(errors.Newf("%s is required", flagName))
	}
}

func usage() {
	fmt.Println("usage: woldo <command>")
	fmt.Println("commands:")
	fmt.Println("  catalog:import --file=catalog.xlsx")
	fmt.Println("  order:propose --orders=orders.xlsx [--catalog=catalog.xlsx]")
	fmt.Println("  order:pending [--session=ID]")
	fmt.Println("  order:select [--session=ID] --row=N --choice=K")
	fmt.Println("  order:finalize [--session=ID] [--out=...xlsx] [--partial]")
	fmt.Println("  order:run --orders=orders.xlsx [--catalog=catalog.xlsx] [--out=...xlsx] [--pick-top|--partial]")
	fmt.Println("  invoice:match --orders=orders.xlsx --invoice=invoice.xlsx [--out=...xlsx]")
	fmt.Println("  mail:fetch --provider=gmail|imap --label=INBOX --max=50")
	fmt.Println("  mail:process [--provider=gmail|imap] [--messageId=...] [--batch=20]")
	fmt.Println("  mail:listen")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	if hint := errors.FlattenHints(err); hint != "" {
		fmt.Fprintf(os.Stderr, "hint: %s\n", hint)
	}
	os.Exit(1)
}
