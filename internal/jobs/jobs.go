package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"gc-distance/internal/logger"
)

type Status string

const (
	StatusRunning  Status = "running"
	StatusDone     Status = "done"
	StatusError    Status = "error"
	StatusCanceled Status = "canceled"
)

type Result struct {
	Mode     string `json:"mode"`
	Rows     int    `json:"rows"`
	Sheet    string `json:"sheet"`
	Output   string `json:"-"`        // Full path
	Filename string `json:"filename"` // Just filename for download
}

// Job is a background Excel computation. All fields are guarded by mu.
type Job struct {
	ID        string
	Status    Status
	Logs      []string
	Progress  int // 0-100
	Result    *Result
	Error     string
	CreatedAt time.Time

	mu     sync.RWMutex
	cancel context.CancelFunc
	log    *logger.Logger
}

// Snapshot is a consistent copy of a job's state.
type Snapshot struct {
	ID       string   `json:"id"`
	Status   Status   `json:"status"`
	Logs     []string `json:"logs"`
	Progress int      `json:"progress"`
	Result   *Result  `json:"result,omitempty"`
	Error    string   `json:"error,omitempty"`
}

func stamp(msg string) string {
	return fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), msg)
}

func (j *Job) Log(msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Logs = append(j.Logs, stamp(msg))
	j.log.Debug(msg)
}

func (j *Job) SetProgress(current, total int, msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if total > 0 {
		j.Progress = int(float64(current) / float64(total) * 100)
	}
	if msg != "" {
		j.Logs = append(j.Logs, stamp(msg))
	}
}

// Fail marks a running job as failed and releases its context. A job that
// was canceled stays canceled.
func (j *Job) Fail(msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status != StatusRunning {
		return
	}
	j.cancel()
	j.Status = StatusError
	j.Error = msg
	j.Logs = append(j.Logs, "[ERROR] "+msg)
	j.log.Warn("job failed", "reason", msg)
}

// Finish records the result of a running job and releases its context.
func (j *Job) Finish(res *Result, msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status != StatusRunning {
		return
	}
	j.cancel()
	j.Status = StatusDone
	j.Result = res
	j.Progress = 100
	j.Logs = append(j.Logs, stamp(msg))
	j.log.Info("job finished", "mode", res.Mode, "rows", res.Rows)
}

// Cancel stops the job's context. It reports false when the job had already
// finished.
func (j *Job) Cancel() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status != StatusRunning {
		return false
	}
	j.cancel()
	j.Status = StatusCanceled
	j.Logs = append(j.Logs, stamp("Kullanıcı tarafından iptal edildi."))
	j.log.Info("job canceled")
	return true
}

func (j *Job) Snapshot() Snapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()
	logs := make([]string, len(j.Logs))
	copy(logs, j.Logs)
	return Snapshot{
		ID:       j.ID,
		Status:   j.Status,
		Logs:     logs,
		Progress: j.Progress,
		Result:   j.Result,
		Error:    j.Error,
	}
}

// Store keeps jobs in memory until they are pruned.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{jobs: make(map[string]*Job), now: time.Now}
}

// New registers a running job. The returned context is canceled by
// Job.Cancel or when parent is done.
func (s *Store) New(parent context.Context) (*Job, context.Context) {
	ctx, cancel := context.WithCancel(parent)
	id := uuid.New().String()
	job := &Job{
		ID:        id,
		Status:    StatusRunning,
		Logs:      []string{},
		CreatedAt: s.now(),
		cancel:    cancel,
		log:       logger.WithField("job_id", id),
	}

	s.mu.Lock()
	s.jobs[id] = job
	s.mu.Unlock()
	return job, ctx
}

func (s *Store) Get(id string) *Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jobs[id]
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// Prune drops finished jobs created more than olderThan ago and returns the
// removed jobs so callers can clean up their files.
func (s *Store) Prune(olderThan time.Duration) []Snapshot {
	cutoff := s.now().Add(-olderThan)

	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []Snapshot
	for id, job := range s.jobs {
		snap := job.Snapshot()
		if snap.Status == StatusRunning || !job.CreatedAt.Before(cutoff) {
			continue
		}
		job.cancel()
		delete(s.jobs, id)
		removed = append(removed, snap)
	}
	return removed
}
