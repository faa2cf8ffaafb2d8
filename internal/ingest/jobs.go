package ingest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"lumina/internal/catalog"
)

// JobStatus is the lifecycle state of a scan job.
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCanceled  JobStatus = "canceled"
)

// JobSnapshot is the progress view the UI polls for its progress bars.
type JobSnapshot struct {
	ID         string    `json:"id"`
	Status     JobStatus `json:"status"`
	Sources    []string  `json:"sources"`
	Strategy   Strategy  `json:"strategy"`
	Processed  int       `json:"processed"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt,omitzero"`
	Summary    *Summary  `json:"summary,omitempty"`
	Error      string    `json:"error,omitempty"`
}

type job struct {
	mu       sync.Mutex
	snapshot JobSnapshot
	cancel   context.CancelFunc
}

// ErrJobNotFound is returned for unknown job ids.
var ErrJobNotFound = errors.New("scan job not found")

// maxRetainedJobs caps how many finished scan snapshots are kept. Running
// jobs never count against the cap.
const maxRetainedJobs = 50

// JobManager runs scans in the background and tracks their progress.
// Finished jobs are retained for the UI to inspect, oldest pruned first
// once the retention cap is hit.
type JobManager struct {
	mu       sync.Mutex
	jobs     map[string]*job
	pipeline *Pipeline
}

// NewJobManager creates a JobManager over the given pipeline.
func NewJobManager(pipeline *Pipeline) *JobManager {
	return &JobManager{
		jobs:     make(map[string]*job),
		pipeline: pipeline,
	}
}

// Start launches a scan in the background and returns its initial snapshot.
// baseCtx scopes the job to the process lifetime, not to the HTTP request
// that started it.
func (m *JobManager) Start(baseCtx context.Context, sources []string, strategy Strategy) (JobSnapshot, error) {
	if len(sources) == 0 {
		return JobSnapshot{}, &catalog.ValidationError{Field: "sources", Message: "at least one source path is required"}
	}

	ctx, cancel := context.WithCancel(baseCtx)
	j := &job{
		snapshot: JobSnapshot{
			ID:        uuid.New().String(),
			Status:    JobRunning,
			Sources:   sources,
			Strategy:  strategy,
			StartedAt: time.Now().UTC(),
		},
		cancel: cancel,
	}

	m.mu.Lock()
	m.jobs[j.snapshot.ID] = j
	m.pruneLocked()
	m.mu.Unlock()

	go func() {
		defer cancel()
		summary, err := m.pipeline.Scan(ctx, sources, strategy, func(Result) {
			j.mu.Lock()
			j.snapshot.Processed++
			j.mu.Unlock()
		})

		j.mu.Lock()
		defer j.mu.Unlock()
		j.snapshot.FinishedAt = time.Now().UTC()
		j.snapshot.Summary = summary
		switch {
		case errors.Is(err, context.Canceled):
			j.snapshot.Status = JobCanceled
		case err != nil:
			j.snapshot.Status = JobFailed
			j.snapshot.Error = err.Error()
		default:
			j.snapshot.Status = JobCompleted
		}
	}()

	return j.view(), nil
}

// Get returns the snapshot of one job.
func (m *JobManager) Get(id string) (JobSnapshot, error) {
	m.mu.Lock()
	j, ok := m.jobs[id]
	m.mu.Unlock()
	if !ok {
		return JobSnapshot{}, ErrJobNotFound
	}
	return j.view(), nil
}

// List returns snapshots of all known jobs, newest first.
func (m *JobManager) List() []JobSnapshot {
	m.mu.Lock()
	jobs := make([]*job, 0, len(m.jobs))
	for _, j := range m.jobs {
		jobs = append(jobs, j)
	}
	m.mu.Unlock()

	views := make([]JobSnapshot, 0, len(jobs))
	for _, j := range jobs {
		views = append(views, j.view())
	}
	for i := 0; i < len(views); i++ {
		for k := i + 1; k < len(views); k++ {
			if views[k].StartedAt.After(views[i].StartedAt) {
				views[i], views[k] = views[k], views[i]
			}
		}
	}
	return views
}

// Cancel requests cooperative cancellation of a running job. The scan stops
// between files; records already committed stay committed.
func (m *JobManager) Cancel(id string) error {
	m.mu.Lock()
	j, ok := m.jobs[id]
	m.mu.Unlock()
	if !ok {
		return ErrJobNotFound
	}
	j.cancel()
	return nil
}

// pruneLocked drops the oldest finished jobs once the retained set exceeds
// maxRetainedJobs. Callers hold m.mu.
func (m *JobManager) pruneLocked() {
	if len(m.jobs) <= maxRetainedJobs {
		return
	}

	type finished struct {
		id  string
		end time.Time
	}
	var done []finished
	for id, j := range m.jobs {
		j.mu.Lock()
		if j.snapshot.Status != JobRunning {
			done = append(done, finished{id: id, end: j.snapshot.FinishedAt})
		}
		j.mu.Unlock()
	}
	sort.Slice(done, func(i, k int) bool {
		return done[i].end.Before(done[k].end)
	})

	for _, f := range done {
		if len(m.jobs) <= maxRetainedJobs {
			return
		}
		delete(m.jobs, f.id)
	}
}

func (j *job) view() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	snap := j.snapshot
	snap.Sources = append([]string(nil), j.snapshot.Sources...)
	if j.snapshot.Summary != nil {
		s := *j.snapshot.Summary
		snap.Summary = &s
	}
	return snap
}
