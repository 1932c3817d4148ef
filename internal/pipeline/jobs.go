package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/coursegest/internal/course"
)

// JobStatus represents the state of a document ingestion job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusReading    JobStatus = "reading"
	StatusParsing    JobStatus = "parsing"
	StatusStoring    JobStatus = "storing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusDupSkipped JobStatus = "duplicate_skipped"
)

// Job tracks the state of a single document ingestion.
type Job struct {
	mu sync.Mutex

	ID     string `json:"job_id"`
	Source string `json:"source"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	course   *course.Course
	chunks   []course.Chunk
	duration time.Duration
	errors   []string
	err      error
}

// NewJob returns a queued job for the document at source.
func NewJob(source string) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Source:    source,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// Fail records err and marks the job failed in phase.
func (j *Job) Fail(phase string, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err.Error())
	j.err = err
	j.Status = StatusFailed
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error without changing the status.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.UpdatedAt = time.Now()
}

// SetResult stores the parsed course and its chunks.
func (j *Job) SetResult(c course.Course, chunks []course.Chunk) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.course = &c
	j.chunks = chunks
	j.UpdatedAt = time.Now()
}

// Result returns the parsed course, or nil before parsing succeeded.
func (j *Job) Result() (*course.Course, []course.Chunk) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.course, j.chunks
}

// Err returns the error that failed the job, or nil.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

func (j *Job) setHash(hash string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = hash
}

func (j *Job) setDuration(d time.Duration) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.duration = d
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	Source      string    `json:"source"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	CourseTitle string    `json:"course_title,omitempty"`
	Lessons     int       `json:"lessons"`
	Chunks      int       `json:"chunks"`
	ContentHash string    `json:"content_hash,omitempty"`
	DurationMs  int64     `json:"duration_ms"`
	Errors      []string  `json:"errors"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.errors))
	copy(errs, j.errors)
	snap := JobSnapshot{
		ID:          j.ID,
		Source:      j.Source,
		Status:      j.Status,
		Phase:       j.Phase,
		Chunks:      len(j.chunks),
		ContentHash: j.ContentHash,
		DurationMs:  j.duration.Milliseconds(),
		Errors:      errs,
	}
	if j.course != nil {
		snap.CourseTitle = j.course.Title
		snap.Lessons = len(j.course.Lessons)
	}
	return snap
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
