package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"campus-advisor/internal/contextutil"
	"campus-advisor/internal/source"
)

// ErrBusy is returned by Run while another ingestion is in progress.
var ErrBusy = errors.New("ingestion already running")

// State is the phase of the most recent ingestion run.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Status describes the most recent ingestion run.
type Status struct {
	State      State      `json:"state"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Version    string     `json:"index_version,omitempty"`
	Report     *Report    `json:"report,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// DocumentLoader reads every document below a root directory.
type DocumentLoader interface {
	LoadAll(ctx context.Context, root string) ([]source.Document, []source.Failure, error)
}

// Runner executes load, ingest and publish as one unit and hands each new
// snapshot to a callback. At most one run is active at a time.
type Runner struct {
	loader     DocumentLoader
	pipeline   *Pipeline
	root       string
	onSnapshot func(context.Context, *Snapshot) error

	running atomic.Bool
	mu      sync.Mutex
	status  Status
}

// NewRunner creates a runner over the documents below root. onSnapshot may
// be nil.
func NewRunner(loader DocumentLoader, pipeline *Pipeline, root string, onSnapshot func(context.Context, *Snapshot) error) *Runner {
	return &Runner{
		loader:     loader,
		pipeline:   pipeline,
		root:       root,
		onSnapshot: onSnapshot,
		status:     Status{State: StateIdle},
	}
}

// Status returns a copy of the current status.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Run ingests synchronously. It returns ErrBusy if a run is already active.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer r.running.Store(false)
	return r.run(ctx)
}

// Start launches a run in the background and reports whether it started.
// The run outlives the caller's cancellation but keeps its values.
func (r *Runner) Start(ctx context.Context) bool {
	if !r.running.CompareAndSwap(false, true) {
		return false
	}
	runCtx := context.WithoutCancel(ctx)
	go func() {
		defer r.running.Store(false)
		_, _ = r.run(runCtx)
	}()
	return true
}

func (r *Runner) run(ctx context.Context) (*Report, error) {
	logger := contextutil.LoggerFromContext(ctx)
	started := time.Now().UTC()
	r.setStatus(Status{State: StateRunning, StartedAt: &started})

	report, version, err := r.ingest(ctx)

	finished := time.Now().UTC()
	st := Status{State: StateSucceeded, StartedAt: &started, FinishedAt: &finished, Version: version, Report: report}
	if err != nil {
		st.State = StateFailed
		st.Error = err.Error()
		logger.ErrorContext(ctx, "ingestion failed", "root", r.root, "error", err)
	} else {
		logger.InfoContext(ctx, "ingestion run finished", "root", r.root, "index_version", version, "duration", finished.Sub(started))
	}
	r.setStatus(st)
	return report, err
}

func (r *Runner) ingest(ctx context.Context) (*Report, string, error) {
	docs, failures, err := r.loader.LoadAll(ctx, r.root)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load documents: %w", err)
	}

	snap, report, err := r.pipeline.Ingest(ctx, docs)
	if err != nil {
		return report, "", err
	}
	report.RecordFailures(failures)

	if err := r.pipeline.Publish(ctx, snap); err != nil {
		return report, "", fmt.Errorf("failed to publish snapshot: %w", err)
	}
	if r.onSnapshot != nil {
		if err := r.onSnapshot(ctx, snap); err != nil {
			return report, "", fmt.Errorf("failed to activate snapshot: %w", err)
		}
	}
	return report, snap.Version, nil
}

func (r *Runner) setStatus(st Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = st
}
