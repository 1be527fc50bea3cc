// Package handlers implements the HTTP API: statement ingestion, transaction
// queries and manual labeling, category management, upload URLs and job
// status.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"budgetpipe/internal/api/middleware"
	"budgetpipe/internal/domain"
	"budgetpipe/internal/gcs"
	"budgetpipe/internal/jobs"
	"budgetpipe/internal/pipeline"
	"budgetpipe/internal/store"
)

// StatementsHandler handles statement-related endpoints.
type StatementsHandler struct {
	statements store.StatementStore
	publisher  jobs.Publisher
	log        zerolog.Logger
}

// NewStatementsHandler creates a new statements handler.
func NewStatementsHandler(statements store.StatementStore, publisher jobs.Publisher, log zerolog.Logger) *StatementsHandler {
	return &StatementsHandler{
		statements: statements,
		publisher:  publisher,
		log:        log,
	}
}

// Ingest handles POST /api/statements/ingest
//
// Creates the PENDING statement record and enqueues the ingestion job. The
// job id doubles as the run id returned to the client.
func (h *StatementsHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req pipeline.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.StatementID == "" {
		req.StatementID = uuid.NewString()
	}

	if v := pipeline.ValidateRequest(req); !v.Valid {
		middleware.WriteError(w, http.StatusBadRequest, v.Reason)
		return
	}

	st := domain.NewStatement(req.UserID, req.StatementID, req.DocumentKey, req.Issuer, req.CardLast4, time.Now())
	if err := h.statements.Put(ctx, st); err != nil {
		h.log.Error().Err(err).Str("statement_id", req.StatementID).Msg("Failed to create statement record")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create statement record")
		return
	}

	job := &jobs.IngestStatementJob{
		UserID:      req.UserID,
		StatementID: req.StatementID,
		DocumentKey: req.DocumentKey,
		Issuer:      req.Issuer,
		CardLast4:   req.CardLast4,
	}
	if err := h.publisher.PublishIngestStatement(ctx, job); err != nil {
		h.log.Error().Err(err).Str("statement_id", req.StatementID).Msg("Failed to enqueue ingestion job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue ingestion job")
		return
	}

	h.log.Info().
		Str("job_id", job.JobID).
		Str("statement_id", req.StatementID).
		Str("user_id", req.UserID).
		Msg("Ingestion job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"run_id":       job.JobID,
		"statement_id": req.StatementID,
		"status":       string(job.Status),
	})
}

// GetStatement handles GET /api/statements/{statementId}?userId=
func (h *StatementsHandler) GetStatement(w http.ResponseWriter, r *http.Request, statementID string) {
	ctx := r.Context()

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "userId is required")
		return
	}

	st, err := h.statements.Get(ctx, userID, statementID)
	if err != nil {
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			middleware.WriteError(w, http.StatusNotFound, "Statement not found")
			return
		}
		h.log.Error().Err(err).Str("statement_id", statementID).Msg("Failed to get statement")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get statement")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, st)
}

// UploadsHandler issues signed upload URLs for statement documents.
type UploadsHandler struct {
	gcs *gcs.Client
	log zerolog.Logger
}

// NewUploadsHandler creates a new uploads handler. gcs may be nil when no
// bucket is configured; upload URLs are then disabled.
func NewUploadsHandler(gcsClient *gcs.Client, log zerolog.Logger) *UploadsHandler {
	return &UploadsHandler{gcs: gcsClient, log: log}
}

// CreateUploadURL handles POST /api/uploads/url
//
// Mints a fresh object key under uploads/ so client-supplied names never
// reach the bucket, and signs a PUT URL for it.
func (h *UploadsHandler) CreateUploadURL(w http.ResponseWriter, r *http.Request) {
	if h.gcs == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Uploads are not configured")
		return
	}

	key := fmt.Sprintf("uploads/%s.pdf", uuid.NewString())

	uploadURL, err := h.gcs.SignedUploadURL(key, "application/pdf", time.Hour)
	if err != nil {
		h.log.Error().Err(err).Str("key", key).Msg("Failed to sign upload URL")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create upload URL")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"upload_url": uploadURL,
		"key":        key,
		"bucket":     h.gcs.Bucket(),
	})
}

// TransactionsHandler handles transaction-related endpoints.
type TransactionsHandler struct {
	transactions store.TransactionStore
	log          zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(transactions store.TransactionStore, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		transactions: transactions,
		log:          log,
	}
}

// ListTransactions handles GET /api/transactions?userId=&statementId=
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	userID := query.Get("userId")
	if userID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "userId is required")
		return
	}

	txns, err := h.transactions.ListByUser(ctx, userID, query.Get("statementId"))
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	if txns == nil {
		txns = []*domain.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txns,
		"count":        len(txns),
	})
}

// UpdateLabel handles POST /api/transactions/label
//
// A manual label is written with full confidence and marks the record as
// human-edited, which permanently excludes it from automatic
// reclassification.
func (h *TransactionsHandler) UpdateLabel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		UserID   string `json:"userId"`
		SK       string `json:"sk"`
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.UserID == "" || req.SK == "" || req.Category == "" {
		middleware.WriteError(w, http.StatusBadRequest, "userId, sk and category are required")
		return
	}
	if !domain.ValidTransactionSK(req.SK) {
		middleware.WriteError(w, http.StatusBadRequest, "sk is not a transaction key")
		return
	}
	if !domain.ValidCategoryName(req.Category) {
		middleware.WriteError(w, http.StatusBadRequest, "category must be an uppercase token")
		return
	}

	txn, err := h.transactions.UpdateCategory(ctx, req.UserID, req.SK, req.Category, 1.0, true)
	if err != nil {
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			middleware.WriteError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		h.log.Error().Err(err).Str("sk", req.SK).Msg("Failed to update transaction label")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to update transaction label")
		return
	}

	h.log.Info().
		Str("user_id", req.UserID).
		Str("sk", req.SK).
		Str("category", req.Category).
		Msg("Transaction relabeled")

	middleware.WriteJSON(w, http.StatusOK, txn)
}

// CategoriesHandler handles category-related endpoints.
type CategoriesHandler struct {
	categories store.CategoryStore
	log        zerolog.Logger
}

// NewCategoriesHandler creates a new categories handler.
func NewCategoriesHandler(categories store.CategoryStore, log zerolog.Logger) *CategoriesHandler {
	return &CategoriesHandler{
		categories: categories,
		log:        log,
	}
}

// ListCategories handles GET /api/categories?userId=
func (h *CategoriesHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "userId is required")
		return
	}

	cats, err := h.categories.List(ctx, userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to list categories")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list categories")
		return
	}

	if cats == nil {
		cats = []*domain.Category{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": cats,
		"count":      len(cats),
	})
}

// CreateCategory handles POST /api/categories
func (h *CategoriesHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		UserID string   `json:"userId"`
		Name   string   `json:"name"`
		Hints  []string `json:"hints"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.UserID == "" || req.Name == "" {
		middleware.WriteError(w, http.StatusBadRequest, "userId and name are required")
		return
	}
	if !domain.ValidCategoryName(req.Name) {
		middleware.WriteError(w, http.StatusBadRequest, "name must contain only uppercase letters and underscores")
		return
	}

	cat := domain.NewCategory(req.UserID, req.Name, req.Hints, time.Now())
	if err := h.categories.Put(ctx, cat); err != nil {
		h.log.Error().Err(err).Str("name", req.Name).Msg("Failed to create category")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create category")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, cat)
}

// UpdateCategory handles PATCH /api/categories/{name}?userId=
//
// Deactivation removes the name from the classification vocabulary without
// touching transactions already labeled with it.
func (h *CategoriesHandler) UpdateCategory(w http.ResponseWriter, r *http.Request, name string) {
	ctx := r.Context()

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "userId is required")
		return
	}

	var req struct {
		Active *bool    `json:"active"`
		Hints  []string `json:"hints"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cat, err := h.categories.Update(ctx, userID, name, req.Active, req.Hints)
	if err != nil {
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			middleware.WriteError(w, http.StatusNotFound, "Category not found")
			return
		}
		h.log.Error().Err(err).Str("name", name).Msg("Failed to update category")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to update category")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, cat)
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	filter := jobs.JobFilter{
		StatementID: query.Get("statement_id"),
		Status:      jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
