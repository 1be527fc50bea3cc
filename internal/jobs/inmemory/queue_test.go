package inmemory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"budgetpipe/internal/jobs"
)

func TestQueue_PublishAndProcess(t *testing.T) {
	store := NewStore()
	queue := NewQueue(10, store)
	defer queue.Close()

	var processed atomic.Int32
	done := make(chan string, 1)

	handler := func(ctx context.Context, job jobs.Job) error {
		processed.Add(1)
		done <- job.GetID()
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := queue.Start(ctx, handler); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	job := &jobs.IngestStatementJob{
		UserID:      "u1",
		StatementID: "s1",
		DocumentKey: "uploads/a.pdf",
		Issuer:      "chase",
		CardLast4:   "1234",
	}
	if err := queue.PublishIngestStatement(ctx, job); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if job.JobID == "" {
		t.Fatal("publish must assign a job id")
	}

	select {
	case id := <-done:
		if id != job.JobID {
			t.Errorf("processed job %q, want %q", id, job.JobID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}

	// Wait for the post-handler status write.
	deadline := time.After(2 * time.Second)
	for {
		saved, err := store.GetJob(ctx, job.JobID)
		if err == nil && saved.Status == jobs.JobStatusCompleted {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("job never reached completed status")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if processed.Load() != 1 {
		t.Errorf("processed %d jobs, want 1", processed.Load())
	}
}

func TestQueue_RetryOnFailure(t *testing.T) {
	store := NewStore()
	queue := NewQueue(10, store)
	defer queue.Close()

	var attempts atomic.Int32
	handler := func(ctx context.Context, job jobs.Job) error {
		if attempts.Add(1) == 1 {
			return errors.New("transient failure")
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := queue.Start(ctx, handler); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	job := &jobs.IngestStatementJob{UserID: "u1", StatementID: "s1", MaxRetries: 2}
	if err := queue.PublishIngestStatement(ctx, job); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		saved, err := store.GetJob(ctx, job.JobID)
		if err == nil && saved.Status == jobs.JobStatusCompleted {
			if saved.RetryCount != 1 {
				t.Errorf("RetryCount = %d, want 1", saved.RetryCount)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("job never completed after retry")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestQueue_PublishAfterClose(t *testing.T) {
	queue := NewQueue(1, NewStore())
	if err := queue.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	err := queue.PublishIngestStatement(context.Background(), &jobs.IngestStatementJob{})
	if err == nil {
		t.Error("publish on a closed queue must fail")
	}
}

func TestStore_Filter(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	seed := []*jobs.IngestStatementJob{
		{JobID: "j1", StatementID: "s1", Status: jobs.JobStatusCompleted},
		{JobID: "j2", StatementID: "s1", Status: jobs.JobStatusFailed},
		{JobID: "j3", StatementID: "s2", Status: jobs.JobStatusCompleted},
	}
	for _, j := range seed {
		if err := store.SaveJob(ctx, j); err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}
	}

	byStatement, err := store.ListJobs(ctx, jobs.JobFilter{StatementID: "s1"})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(byStatement) != 2 {
		t.Errorf("statement filter returned %d jobs, want 2", len(byStatement))
	}

	byStatus, err := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusFailed})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].JobID != "j2" {
		t.Errorf("status filter returned %+v, want only j2", byStatus)
	}
}

func TestStore_CopiesOnReadAndWrite(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	job := &jobs.IngestStatementJob{JobID: "j1", Status: jobs.JobStatusPending}
	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}

	// Mutating the caller's copy after save must not leak into the store.
	job.Status = jobs.JobStatusFailed

	saved, err := store.GetJob(ctx, "j1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if saved.Status != jobs.JobStatusPending {
		t.Errorf("stored status = %q, want pending", saved.Status)
	}
}
