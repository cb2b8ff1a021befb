package driven

import (
	"context"
	"time"
)

// JobState is the lifecycle state of a dashboard job.
type JobState string

const (
	JobPending   JobState = "pending"
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
)

// Job is one background run of a phase, started by the dashboard.
type Job struct {
	ID        string
	Kind      string // extract, import, repair
	State     JobState
	Detail    string // input file or error text
	CreatedAt time.Time
	UpdatedAt time.Time
}

// JobStore persists jobs and their append-only progress event logs so the
// core can stay free of ambient global state. Events for a job are returned
// in append order; Seq is assigned by the store.
type JobStore interface {
	CreateJob(ctx context.Context, job Job) error
	UpdateJobState(ctx context.Context, id string, state JobState, detail string) error
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context) ([]Job, error)

	AppendEvent(ctx context.Context, jobID string, event ProgressEvent) error
	ListEvents(ctx context.Context, jobID string, afterSeq int64) ([]StoredEvent, error)
}

// StoredEvent is a logged progress event with its append sequence number.
type StoredEvent struct {
	Seq   int64
	JobID string
	Event ProgressEvent
	At    time.Time
}
