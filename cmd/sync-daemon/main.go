package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/config"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/storage"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/syncer"
)

func main() {
	cfg, err := config.Load()
	must(err)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	controller := syncer.NewController()
	svc := syncer.NewService(db, cfg, controller, log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
