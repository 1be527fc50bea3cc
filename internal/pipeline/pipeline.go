// Package pipeline runs a submitted statement through the ingestion state
// machine: VALIDATE -> EXTRACT -> CLASSIFY -> FINALIZE_OK, with one shared
// FINALIZE_FAILED transition catching every stage failure.
package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"budgetpipe/internal/classify"
	"budgetpipe/internal/domain"
	"budgetpipe/internal/store"
)

// State identifies a pipeline stage.
type State string

const (
	StateValidate       State = "VALIDATE"
	StateExtract        State = "EXTRACT"
	StateClassify       State = "CLASSIFY"
	StateFinalizeOK     State = "FINALIZE_OK"
	StateFinalizeFailed State = "FINALIZE_FAILED"
)

// Request is one statement ingestion request.
type Request struct {
	UserID      string `json:"userId"`
	StatementID string `json:"statementId"`
	DocumentKey string `json:"key"`
	Issuer      string `json:"issuer"`
	CardLast4   string `json:"cardLast4"`
}

// RunResult reports a finished pipeline run. Stage failures do not surface
// as errors from Run; they are captured here so callers can inspect Success
// without exception-driven control flow.
type RunResult struct {
	Success         bool   `json:"success"`
	FinalState      State  `json:"finalState"`
	LineItemCount   int    `json:"lineItemCount"`
	ClassifiedCount int    `json:"classifiedCount"`
	Cause           string `json:"cause,omitempty"`
}

// Classifier is the classification stage boundary.
type Classifier interface {
	ClassifyStatement(ctx context.Context, userID, statementID string) (*classify.Result, error)
}

// transitionFunc advances the run one stage and names the next state.
type transitionFunc func(ctx context.Context, run *runState) (State, error)

type runState struct {
	req             Request
	lineItemCount   int
	classifiedCount int
	cause           string
}

// Runner drives the state machine. It retries nothing itself: a failed run
// finalizes FAILED and must be resubmitted as a new ingestion.
type Runner struct {
	extractor  *Extractor
	classifier Classifier
	statements store.StatementStore
	log        zerolog.Logger
}

// NewRunner wires a Runner.
func NewRunner(extractor *Extractor, classifier Classifier, statements store.StatementStore, log zerolog.Logger) *Runner {
	return &Runner{
		extractor:  extractor,
		classifier: classifier,
		statements: statements,
		log:        log,
	}
}

func (r *Runner) transitions() map[State]transitionFunc {
	return map[State]transitionFunc{
		StateValidate: r.validate,
		StateExtract:  r.extract,
		StateClassify: r.classify,
	}
}

// Run executes the pipeline for one request. The returned error is non-nil
// only when the terminal statement status could not be written; every stage
// failure is routed to FINALIZE_FAILED and reported in the RunResult.
func (r *Runner) Run(ctx context.Context, req Request) (*RunResult, error) {
	run := &runState{req: req}
	transitions := r.transitions()

	state := StateValidate
	for state != StateFinalizeOK && state != StateFinalizeFailed {
		next, err := transitions[state](ctx, run)
		if err != nil {
			r.log.Error().
				Err(err).
				Str("state", string(state)).
				Str("statement_id", req.StatementID).
				Msg("Pipeline stage failed")
			run.cause = err.Error()
			state = StateFinalizeFailed
			continue
		}
		state = next
	}

	return r.finalize(ctx, run, state)
}

func (r *Runner) validate(ctx context.Context, run *runState) (State, error) {
	if v := ValidateRequest(run.req); !v.Valid {
		return "", &domain.ValidationError{Reason: v.Reason}
	}
	return StateExtract, nil
}

func (r *Runner) extract(ctx context.Context, run *runState) (State, error) {
	res, err := r.extractor.Run(ctx, run.req)
	if res != nil {
		run.lineItemCount = res.Persisted
	}
	if err != nil {
		return "", err
	}
	return StateClassify, nil
}

func (r *Runner) classify(ctx context.Context, run *runState) (State, error) {
	res, err := r.classifier.ClassifyStatement(ctx, run.req.UserID, run.req.StatementID)
	if err != nil {
		return "", err
	}
	run.classifiedCount = res.ClassifiedCount
	return StateFinalizeOK, nil
}

// finalize writes the statement's terminal status exactly once, for both
// outcomes.
func (r *Runner) finalize(ctx context.Context, run *runState, state State) (*RunResult, error) {
	status := domain.StatementParsed
	if state == StateFinalizeFailed {
		status = domain.StatementFailed
	}

	if err := r.statements.SetStatus(ctx, run.req.UserID, run.req.StatementID, status, run.cause, run.lineItemCount); err != nil {
		return nil, &domain.PersistenceError{Op: "finalizing statement " + run.req.StatementID, Cause: err}
	}

	r.log.Info().
		Str("statement_id", run.req.StatementID).
		Str("status", status).
		Int("line_items", run.lineItemCount).
		Int("classified", run.classifiedCount).
		Msg("Statement finalized")

	return &RunResult{
		Success:         state == StateFinalizeOK,
		FinalState:      state,
		LineItemCount:   run.lineItemCount,
		ClassifiedCount: run.classifiedCount,
		Cause:           run.cause,
	}, nil
}
