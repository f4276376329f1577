package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/Kristiina602/collecting-stock/internal/amqp"
	"github.com/Kristiina602/collecting-stock/internal/cli"
	"github.com/Kristiina602/collecting-stock/internal/config"
	"github.com/Kristiina602/collecting-stock/internal/log"
	"github.com/Kristiina602/collecting-stock/internal/services"
	gsheet "github.com/Kristiina602/collecting-stock/internal/sheets/google"
	"github.com/Kristiina602/collecting-stock/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig((*config.Config).ValidateWorker)
	logger := cli.SetupLogger(cfg)

	logger.Info("Starting stock-worker")

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	res := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if res.Cleanup == nil {
			return
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	sheetsClient, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		RecordsSheet:    cfg.RecordsSheetName,
		SummarySheet:    cfg.SummarySheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	w := worker.NewSyncWorker(res.Store, services.NewAggregator(res.Store), sheetsClient, sheetsClient, logger)

	// Catch up on events published while the worker was down.
	logger.Info("Performing startup sync")
	if err := w.StartupSync(ctx); err != nil {
		logger.Error("Failed startup sync", log.FieldError, err)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	scheduler, err := worker.NewScheduler(cfg.SummaryCronSchedule, w.ExportSummary, logger)
	if err != nil {
		logger.Error("Failed to create summary scheduler", log.FieldError, err, "schedule", cfg.SummaryCronSchedule)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeRecordEvents(gctx, w.HandleRecordEvent)
	})
	g.Go(func() error {
		scheduler.Start()
		logger.Info("Summary export scheduled", "schedule", cfg.SummaryCronSchedule, "next_run", scheduler.Next())
		<-gctx.Done()
		scheduler.Stop()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
