package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"budgetpipe/internal/domain"
	"budgetpipe/internal/expense"
	"budgetpipe/internal/extract"
	"budgetpipe/internal/store"
)

// ExtractResult reports a completed extraction stage.
type ExtractResult struct {
	// LineItems are the items that survived the extraction filter, in
	// service order.
	LineItems []*extract.LineItem

	// Persisted is how many transactions were written. Equal to
	// len(LineItems) unless a mid-batch write failed.
	Persisted int
}

// Extractor orchestrates one extraction job: submit, poll to completion,
// paginate results, normalize line items and persist them as transactions.
type Extractor struct {
	expense      expense.Client
	transactions store.TransactionStore
	bucket       string
	backoff      Backoff
	clock        Clock

	// purgeOnReprocess removes a statement's prior transactions before
	// persisting a new batch. Off by default: the deterministic ordinal in
	// the sort key makes a clean re-run overwrite rather than duplicate.
	purgeOnReprocess bool

	log zerolog.Logger
}

// NewExtractor wires an Extractor. A zero backoff falls back to
// DefaultBackoff; a nil clock falls back to the system clock.
func NewExtractor(client expense.Client, transactions store.TransactionStore, bucket string, backoff Backoff, clock Clock, purgeOnReprocess bool, log zerolog.Logger) *Extractor {
	if backoff == (Backoff{}) {
		backoff = DefaultBackoff
	}
	if clock == nil {
		clock = SystemClock
	}
	return &Extractor{
		expense:          client,
		transactions:     transactions,
		bucket:           bucket,
		backoff:          backoff,
		clock:            clock,
		purgeOnReprocess: purgeOnReprocess,
		log:              log,
	}
}

// Run executes the extraction stage for one statement. Persistence is
// at-least-once and not atomic: a mid-batch write failure is returned as a
// *domain.PersistenceError, and items written before it stay written.
func (e *Extractor) Run(ctx context.Context, req Request) (*ExtractResult, error) {
	jobID, err := e.expense.StartAnalysis(ctx, e.bucket, req.DocumentKey)
	if err != nil {
		return nil, &domain.ExternalJobError{Message: fmt.Sprintf("submitting analysis job: %v", err)}
	}
	if jobID == "" {
		return nil, &domain.ExternalJobError{Message: "analysis service did not return a job id"}
	}

	e.log.Info().
		Str("job_id", jobID).
		Str("statement_id", req.StatementID).
		Str("document_key", req.DocumentKey).
		Msg("Extraction job submitted")

	docs, err := e.pollAndCollect(ctx, jobID)
	if err != nil {
		return nil, err
	}

	items := flattenLineItems(docs)
	e.log.Info().
		Str("job_id", jobID).
		Int("documents", len(docs)).
		Int("line_items", len(items)).
		Msg("Extraction job complete")

	if e.purgeOnReprocess {
		if err := e.transactions.DeleteByStatement(ctx, req.UserID, req.StatementID); err != nil {
			return nil, &domain.PersistenceError{Op: "purge prior transactions", Cause: err}
		}
	}

	result := &ExtractResult{LineItems: items}
	now := time.Now()
	for i, item := range items {
		txn := domain.NewTransaction(
			req.UserID, req.StatementID, req.Issuer, req.CardLast4,
			i, item.Date, item.Merchant, item.Amount, item.Memo, now,
		)
		if err := e.transactions.Put(ctx, txn); err != nil {
			return result, &domain.PersistenceError{
				Op:    fmt.Sprintf("persisting line item %d of %d", i, len(items)),
				Cause: err,
			}
		}
		result.Persisted++
	}

	return result, nil
}

// pollAndCollect waits for the job to finish, then accumulates every result
// page. The wait is the pipeline's only intentional suspension point and is
// bounded by the backoff deadline.
func (e *Extractor) pollAndCollect(ctx context.Context, jobID string) ([]expense.ExpenseDocument, error) {
	start := e.clock.Now()
	delay := e.backoff.Initial

	status := expense.StatusInProgress
	for status == expense.StatusInProgress {
		if e.clock.Now().Sub(start) > e.backoff.Deadline {
			return nil, &domain.ExternalJobTimeout{JobID: jobID, Waited: e.clock.Now().Sub(start)}
		}
		if err := e.clock.Sleep(ctx, delay); err != nil {
			return nil, &domain.ExternalJobError{JobID: jobID, Message: err.Error()}
		}
		delay = e.backoff.Next(delay)

		page, err := e.expense.GetAnalysis(ctx, jobID, "")
		if err != nil {
			return nil, &domain.ExternalJobError{JobID: jobID, Message: err.Error()}
		}
		status = page.JobStatus

		e.log.Debug().
			Str("job_id", jobID).
			Str("status", string(status)).
			Str("status_message", page.StatusMessage).
			Msg("Polled extraction job")

		if status == expense.StatusFailed || status == expense.StatusPartialSuccess {
			msg := page.StatusMessage
			if msg == "" {
				msg = string(status)
			}
			return nil, &domain.ExternalJobError{JobID: jobID, Message: msg}
		}
	}

	// Job finished; now walk every page via the continuation token.
	var docs []expense.ExpenseDocument
	token := ""
	for {
		page, err := e.expense.GetAnalysis(ctx, jobID, token)
		if err != nil {
			return nil, &domain.ExternalJobError{JobID: jobID, Message: err.Error()}
		}
		docs = append(docs, page.ExpenseDocuments...)
		if page.NextToken == "" {
			break
		}
		token = page.NextToken
	}
	return docs, nil
}

// flattenLineItems runs every detected row across all documents and groups
// through the line-item extractor, dropping rows the hard filter rejects.
func flattenLineItems(docs []expense.ExpenseDocument) []*extract.LineItem {
	var items []*extract.LineItem
	for _, doc := range docs {
		for _, group := range doc.LineItemGroups {
			for _, li := range group.LineItems {
				fields := make([]extract.Field, 0, len(li.Fields))
				for _, f := range li.Fields {
					fields = append(fields, extract.Field{Type: f.Type, Text: f.Text})
				}
				if item := extract.LineItemFromFields(fields); item != nil {
					items = append(items, item)
				}
			}
		}
	}
	return items
}
