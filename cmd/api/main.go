package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"budgetpipe/internal/analytics"
	"budgetpipe/internal/api/handlers"
	"budgetpipe/internal/api/middleware"
	"budgetpipe/internal/classify"
	"budgetpipe/internal/config"
	"budgetpipe/internal/expense"
	"budgetpipe/internal/gcs"
	"budgetpipe/internal/jobs"
	"budgetpipe/internal/jobs/inmemory"
	"budgetpipe/internal/logger"
	"budgetpipe/internal/pipeline"
	"budgetpipe/internal/store"
	mongostore "budgetpipe/internal/store/mongo"
)

func main() {
	cfg := config.Load()
	log := logger.NewService("api")

	ctx := context.Background()

	// Operational store
	mongoStore, mongoClient, err := mongostore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(ctx)

	if err := mongoStore.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure indexes")
	}

	// Analytics change feed
	var mirror analytics.Mirror = analytics.Discard{}
	if cfg.BigQuery.ProjectID != "" {
		bqMirror, err := analytics.NewBigQueryMirror(ctx, cfg.BigQuery.ProjectID, cfg.BigQuery.Dataset, cfg.BigQuery.Table)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery mirror")
		}
		defer bqMirror.Close()
		mirror = bqMirror
	} else {
		log.Warn().Msg("No BigQuery project configured - change feed disabled")
	}

	transactions := store.NewMirroredTransactionStore(mongoStore.Transactions(), mirror)

	// Statement document bucket
	var gcsClient *gcs.Client
	if cfg.GCS.Bucket != "" {
		gcsClient, err = gcs.NewClient(ctx, cfg.GCS.Bucket)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create storage client")
		}
		defer gcsClient.Close()
	} else {
		log.Warn().Msg("No GCS bucket configured - document uploads will be disabled")
	}

	// Extraction and classification
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

	// Job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job jobs.Job) error {
		ingestJob, ok := job.(*jobs.IngestStatementJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}
		return runIngestJob(ctx, runner, ingestJob, log)
	}

	go func() {
		log.Info().Msg("Starting job worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	// Handlers
	statementsHandler := handlers.NewStatementsHandler(mongoStore.Statements(), jobQueue, log)
	uploadsHandler := handlers.NewUploadsHandler(gcsClient, log)
	transactionsHandler := handlers.NewTransactionsHandler(transactions, log)
	categoriesHandler := handlers.NewCategoriesHandler(mongoStore.Categories(), log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	// Router
	mux := http.NewServeMux()

	mux.HandleFunc("/api/statements/ingest", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			statementsHandler.Ingest(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/statements/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			statementID := strings.TrimPrefix(r.URL.Path, "/api/statements/")
			if statementID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Statement ID is required")
				return
			}
			statementsHandler.GetStatement(w, r, statementID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/uploads/url", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			uploadsHandler.CreateUploadURL(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			transactionsHandler.ListTransactions(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions/label", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			transactionsHandler.UpdateLabel(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/categories", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			categoriesHandler.ListCategories(w, r)
		case http.MethodPost:
			categoriesHandler.CreateCategory(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/categories/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPatch {
			name := strings.TrimPrefix(r.URL.Path, "/api/categories/")
			if name == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Category name is required")
				return
			}
			categoriesHandler.UpdateCategory(w, r, name)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(
					middleware.Auth(mux),
				),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}

// runIngestJob adapts a queued job to a pipeline run. A failed run finalizes
// the statement as FAILED and is not a job error; only infrastructure
// failures surface for retry.
func runIngestJob(ctx context.Context, runner *pipeline.Runner, job *jobs.IngestStatementJob, log zerolog.Logger) error {
	req := pipeline.Request{
		UserID:      job.UserID,
		StatementID: job.StatementID,
		DocumentKey: job.DocumentKey,
		Issuer:      job.Issuer,
		CardLast4:   job.CardLast4,
	}

	result, err := runner.Run(ctx, req)
	if err != nil {
		log.Error().
			Err(err).
			Str("job_id", job.JobID).
			Str("statement_id", job.StatementID).
			Msg("Pipeline run failed to finalize")
		return err
	}

	log.Info().
		Str("job_id", job.JobID).
		Str("statement_id", job.StatementID).
		Bool("success", result.Success).
		Str("final_state", string(result.FinalState)).
		Int("line_items", result.LineItemCount).
		Int("classified", result.ClassifiedCount).
		Msg("Pipeline run finished")

	return nil
}
