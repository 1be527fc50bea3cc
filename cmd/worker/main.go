package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"budgetpipe/internal/analytics"
	"budgetpipe/internal/classify"
	"budgetpipe/internal/config"
	"budgetpipe/internal/expense"
	"budgetpipe/internal/jobs"
	"budgetpipe/internal/jobs/inmemory"
	"budgetpipe/internal/logger"
	"budgetpipe/internal/pipeline"
	"budgetpipe/internal/store"
	mongostore "budgetpipe/internal/store/mongo"
)

func main() {
	cfg := config.Load()
	log := logger.NewService("worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mongoStore, mongoClient, err := mongostore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(ctx)

	var mirror analytics.Mirror = analytics.Discard{}
	if cfg.BigQuery.ProjectID != "" {
		bqMirror, err := analytics.NewBigQueryMirror(ctx, cfg.BigQuery.ProjectID, cfg.BigQuery.Dataset, cfg.BigQuery.Table)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery mirror")
		}
		defer bqMirror.Close()
		mirror = bqMirror
	}

	transactions := store.NewMirroredTransactionStore(mongoStore.Transactions(), mirror)

	expenseClient := expense.NewHTTPClient(cfg.Expense.BaseURL, nil)

	model, err := classify.NewGenAIModel(ctx, cfg.Model.Name)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create model client")
	}

	backoff := pipeline.Backoff{
		Initial:  cfg.Pipeline.PollInitial,
		Factor:   1.5,
		Max:      cfg.Pipeline.PollMax,
		Deadline: cfg.Pipeline.PollDeadline,
	}
	extractor := pipeline.NewExtractor(expenseClient, transactions, cfg.GCS.Bucket, backoff, nil, cfg.Pipeline.PurgeOnReprocess, log)
	engine := classify.NewEngine(mongoStore.Categories(), transactions, model, log)
	runner := pipeline.NewRunner(extractor, engine, mongoStore.Statements(), log)

	// In production, this would be replaced with Cloud Tasks or Pub/Sub
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	log.Info().Msg("Starting worker service")

	handler := func(ctx context.Context, job jobs.Job) error {
		ingestJob, ok := job.(*jobs.IngestStatementJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", ingestJob.JobID).
			Str("statement_id", ingestJob.StatementID).
			Str("user_id", ingestJob.UserID).
			Msg("Processing ingestion job")

		req := pipeline.Request{
			UserID:      ingestJob.UserID,
			StatementID: ingestJob.StatementID,
			DocumentKey: ingestJob.DocumentKey,
			Issuer:      ingestJob.Issuer,
			CardLast4:   ingestJob.CardLast4,
		}

		result, err := runner.Run(ctx, req)
		if err != nil {
			log.Error().
				Err(err).
				Str("job_id", ingestJob.JobID).
				Str("statement_id", ingestJob.StatementID).
				Msg("Pipeline run failed to finalize")
			return err
		}

		log.Info().
			Str("job_id", ingestJob.JobID).
			Str("statement_id", ingestJob.StatementID).
			Bool("success", result.Success).
			Str("final_state", string(result.FinalState)).
			Int("line_items", result.LineItemCount).
			Int("classified", result.ClassifiedCount).
			Msg("Pipeline run finished")

		return nil
	}

	if err := jobQueue.Start(ctx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Msg("Worker service started, waiting for jobs...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	log.Info().Msg("Worker service exited")
}
