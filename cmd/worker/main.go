package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tavs-coelho/aprendizadodemaquina/internal/bootstrap"
	"github.com/tavs-coelho/aprendizadodemaquina/internal/config"
	"github.com/tavs-coelho/aprendizadodemaquina/internal/observability/logging"
	"github.com/tavs-coelho/aprendizadodemaquina/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("auditor-worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close(context.Background())

	workerMetrics := metrics.NewWorkerMetrics("auditor-worker")
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", workerMetrics.Handler())
		slog.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := http.ListenAndServe(":"+cfg.WorkerMetricsPort, mux); err != nil && err != http.ErrServerClosed {
			slog.Error("worker metrics server failed", "error", err)
		}
	}()

	slog.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeIngestRequested(ctx, func(handlerCtx context.Context, year int) error {
		ingestCtx, cancel := context.WithTimeout(handlerCtx, 30*time.Minute)
		defer cancel()

		workerMetrics.StartIngest()
		start := time.Now()
		report, err := app.Ingestor.IngestYear(ingestCtx, year)
		workerMetrics.FinishIngest("auditor-worker", time.Since(start), report.Expenses, report.Skipped, err)
		if err != nil {
			return err
		}

		slog.Info("ingest completed",
			"year", report.Year,
			"deputies", report.Deputies,
			"expenses", report.Expenses,
			"skipped", report.Skipped,
		)
		return nil
	})
	if err != nil {
		slog.Error("worker subscribe failed", "error", err)
		os.Exit(1)
	}
}
