package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/catalog"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/config"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/pipeline"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/quote"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/storage"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/syncer"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cmd := os.Args[1]
	switch cmd {
	case "catalog:sync":
		svc := catalog.NewSyncService(db, cfg)
		count, err := svc.Sync(context.Background())
		must(err)
		fmt.Printf("catalog sync complete: %d items\n", count)
	case "catalog:import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "price list path (.xlsx or .html)")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*file) == "" {
			must(fmt.Errorf("--file is required"))
		}
		count, err := catalog.ImportFile(db, *file)
		must(err)
		fmt.Printf("imported %d items from %s\n", count, *file)
	case "sync:run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		channelName := fs.String("channel", "inquiry", "inquiry|order")
		_ = fs.Parse(os.Args[2:])
		channel, err := parseChannel(*channelName)
		must(err)

		mailSvc, err := syncer.MakeConnector(cfg)
		must(err)

		controller := syncer.NewController()
		controller.Subscribe(func(ch internal.SyncChannel, p internal.SyncProgress) {
			if p.Total > 0 {
				fmt.Printf("%s %s success=%d failed=%d\n", ch, p.Label(), p.Success, p.Failed)
			}
		})
		controller.Start(channel)

		p := pipeline.New(db, mailSvc, syncer.MakeExtractor(cfg), controller, cfg, log)
		result, err := p.Run(context.Background(), channel)
		if errors.Is(err, pipeline.ErrNoMessages) {
			fmt.Println("nothing found")
			return
		}
		must(err)
		fmt.Printf("sync done total=%d success=%d failed=%d\n", result.Total, result.Success, result.Failed)
	case "quote:export":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		number := fs.String("number", "", "quotation number")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*number) == "" || strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--number and --out are required"))
		}
		q, err := db.GetQuotationByNumber(*number)
		must(err)
		if q == nil {
			must(fmt.Errorf("quotation %s not found", *number))
		}
		must(quote.ExportXLSX(q, cfg.QuoteVATRate, *out))
		fmt.Printf("exported %s to %s\n", *number, *out)
	default:
		usage()
		os.Exit(1)
	}
}

func parseChannel(name string) (internal.SyncChannel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "inquiry":
		return internal.ChannelInquiry, nil
	case "order", "purchase_order":
		return internal.ChannelPurchaseOrder, nil
	default:
		return "", fmt.Errorf("unknown channel: %s", name)
	}
}

func usage() {
	fmt.Println("usage: quotation <command>")
	fmt.Println("commands:")
	fmt.Println("  catalog:sync")
	fmt.Println("  catalog:import --file=./pricelist.xlsx")
	fmt.Println("  sync:run --channel=inquiry|order")
	fmt.Println("  quote:export --number=QTN-000001 --out=./out/qtn.xlsx")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
