package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"budgetpipe/internal/classify"
	"budgetpipe/internal/domain"
	"budgetpipe/internal/expense"
)

// memStatementStore records SetStatus calls.
type memStatementStore struct {
	status        string
	cause         string
	lineItemCount int
	setCalls      int
	setErr        error
}

func (m *memStatementStore) Put(ctx context.Context, st *domain.Statement) error { return nil }

func (m *memStatementStore) Get(ctx context.Context, userID, statementID string) (*domain.Statement, error) {
	return nil, &domain.NotFoundError{Kind: "statement", Key: statementID}
}

func (m *memStatementStore) SetStatus(ctx context.Context, userID, statementID, status, cause string, lineItemCount int) error {
	m.setCalls++
	if m.setErr != nil {
		return m.setErr
	}
	m.status = status
	m.cause = cause
	m.lineItemCount = lineItemCount
	return nil
}

// fakeClassifier is a function-field mock of the Classifier boundary.
type fakeClassifier struct {
	ClassifyStatementFunc func(ctx context.Context, userID, statementID string) (*classify.Result, error)
}

func (f *fakeClassifier) ClassifyStatement(ctx context.Context, userID, statementID string) (*classify.Result, error) {
	return f.ClassifyStatementFunc(ctx, userID, statementID)
}

func succeedingExpenseClient(merchants ...string) *fakeExpenseClient {
	return &fakeExpenseClient{
		StartAnalysisFunc: func(ctx context.Context, bucket, key string) (string, error) {
			return "job-1", nil
		},
		GetAnalysisFunc: func(ctx context.Context, jobID, nextToken string) (*expense.ResultPage, error) {
			return succeededPage(merchants...), nil
		},
	}
}

func TestRunner_Run(t *testing.T) {
	txns := &memTransactionStore{}
	statements := &memStatementStore{}
	extractor := NewExtractor(succeedingExpenseClient("STARBUCKS", "KROGER"), txns, "b", Backoff{}, newFakeClock(), false, zerolog.Nop())
	classifier := &fakeClassifier{
		ClassifyStatementFunc: func(ctx context.Context, userID, statementID string) (*classify.Result, error) {
			return &classify.Result{ClassifiedCount: 2}, nil
		},
	}

	runner := NewRunner(extractor, classifier, statements, zerolog.Nop())
	result, err := runner.Run(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !result.Success || result.FinalState != StateFinalizeOK {
		t.Errorf("result = %+v, want success in FINALIZE_OK", result)
	}
	if result.LineItemCount != 2 || result.ClassifiedCount != 2 {
		t.Errorf("counts = %d/%d, want 2/2", result.LineItemCount, result.ClassifiedCount)
	}
	if statements.status != domain.StatementParsed {
		t.Errorf("statement status = %q, want %q", statements.status, domain.StatementParsed)
	}
	if statements.cause != "" {
		t.Errorf("cause = %q, want empty on success", statements.cause)
	}
	if statements.lineItemCount != 2 {
		t.Errorf("statement lineItemCount = %d, want 2", statements.lineItemCount)
	}
	if statements.setCalls != 1 {
		t.Errorf("SetStatus called %d times, want exactly once", statements.setCalls)
	}
}

func TestRunner_Run_ValidationFailure(t *testing.T) {
	statements := &memStatementStore{}
	extractor := NewExtractor(&fakeExpenseClient{
		StartAnalysisFunc: func(ctx context.Context, bucket, key string) (string, error) {
			t.Error("extraction must not start for an invalid request")
			return "", nil
		},
	}, &memTransactionStore{}, "b", Backoff{}, newFakeClock(), false, zerolog.Nop())
	classifier := &fakeClassifier{
		ClassifyStatementFunc: func(ctx context.Context, userID, statementID string) (*classify.Result, error) {
			t.Error("classification must not run for an invalid request")
			return nil, nil
		},
	}

	req := validRequest()
	req.CardLast4 = "12ab"

	runner := NewRunner(extractor, classifier, statements, zerolog.Nop())
	result, err := runner.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Success || result.FinalState != StateFinalizeFailed {
		t.Errorf("result = %+v, want failure in FINALIZE_FAILED", result)
	}
	if result.Cause == "" {
		t.Error("failed run must carry a cause")
	}
	if statements.status != domain.StatementFailed {
		t.Errorf("statement status = %q, want %q", statements.status, domain.StatementFailed)
	}
}

func TestRunner_Run_ExtractionFailureFinalizesFailed(t *testing.T) {
	statements := &memStatementStore{}
	extractor := NewExtractor(&fakeExpenseClient{
		StartAnalysisFunc: func(ctx context.Context, bucket, key string) (string, error) {
			return "job-1", nil
		},
		GetAnalysisFunc: func(ctx context.Context, jobID, nextToken string) (*expense.ResultPage, error) {
			return &expense.ResultPage{JobStatus: expense.StatusFailed, StatusMessage: "document unreadable"}, nil
		},
	}, &memTransactionStore{}, "b", Backoff{}, newFakeClock(), false, zerolog.Nop())
	classifier := &fakeClassifier{
		ClassifyStatementFunc: func(ctx context.Context, userID, statementID string) (*classify.Result, error) {
			t.Error("classification must not run after extraction failure")
			return nil, nil
		},
	}

	runner := NewRunner(extractor, classifier, statements, zerolog.Nop())
	result, err := runner.Run(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Success {
		t.Error("expected failed run")
	}
	if statements.status != domain.StatementFailed {
		t.Errorf("statement status = %q, want %q", statements.status, domain.StatementFailed)
	}
	if statements.cause == "" {
		t.Error("failure cause must be recorded on the statement")
	}
}

func TestRunner_Run_ClassificationFailureKeepsLineItemCount(t *testing.T) {
	txns := &memTransactionStore{}
	statements := &memStatementStore{}
	extractor := NewExtractor(succeedingExpenseClient("A", "B"), txns, "b", Backoff{}, newFakeClock(), false, zerolog.Nop())
	classifier := &fakeClassifier{
		ClassifyStatementFunc: func(ctx context.Context, userID, statementID string) (*classify.Result, error) {
			return nil, &domain.ModelResponseParseError{Cause: errors.New("garbage output")}
		},
	}

	runner := NewRunner(extractor, classifier, statements, zerolog.Nop())
	result, err := runner.Run(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Success {
		t.Error("expected failed run")
	}
	// Extraction completed before classification failed, so the persisted
	// count survives into the failed finalize.
	if result.LineItemCount != 2 || statements.lineItemCount != 2 {
		t.Errorf("lineItemCount = %d/%d, want 2", result.LineItemCount, statements.lineItemCount)
	}
	if len(txns.puts) != 2 {
		t.Errorf("persisted transactions = %d, want 2 (kept despite failure)", len(txns.puts))
	}
}

func TestRunner_Run_FinalizeWriteFailureIsHardError(t *testing.T) {
	statements := &memStatementStore{setErr: errors.New("store down")}
	extractor := NewExtractor(succeedingExpenseClient("A"), &memTransactionStore{}, "b", Backoff{}, newFakeClock(), false, zerolog.Nop())
	classifier := &fakeClassifier{
		ClassifyStatementFunc: func(ctx context.Context, userID, statementID string) (*classify.Result, error) {
			return &classify.Result{ClassifiedCount: 1}, nil
		},
	}

	runner := NewRunner(extractor, classifier, statements, zerolog.Nop())
	_, err := runner.Run(context.Background(), validRequest())

	var perr *domain.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *domain.PersistenceError, got %T: %v", err, err)
	}
}
