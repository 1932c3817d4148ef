package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/coursegest/internal/course"
	"github.com/dgallion1/coursegest/internal/coursedoc"
	"github.com/dgallion1/coursegest/internal/parser"
)

// Options configure an Orchestrator.
type Options struct {
	WorkerCount int
	Reader      parser.Options
	JobTTL      time.Duration
}

// BatchOptions configure a single ingestion run.
type BatchOptions struct {
	// Clear empties the sink before ingesting.
	Clear bool
}

// Report summarizes a batch. Jobs are in input order.
type Report struct {
	BatchID      string        `json:"batch_id"`
	Documents    int           `json:"documents"`
	CoursesAdded int           `json:"courses_added"`
	ChunksAdded  int           `json:"chunks_added"`
	Skipped      int           `json:"skipped"`
	Failed       int           `json:"failed"`
	ElapsedMs    int64         `json:"elapsed_ms"`
	Durations    StatsSnapshot `json:"durations"`
	Jobs         []JobSnapshot `json:"jobs"`
}

// Orchestrator runs course ingestion batches: documents are read and parsed
// by a pool of workers, then handed to the sink one by one in input order.
type Orchestrator struct {
	parser *coursedoc.Parser
	sink   Sink
	log    *slog.Logger
	opts   Options

	jobs    *JobStore
	backoff func(attempt int) time.Duration
}

func NewOrchestrator(p *coursedoc.Parser, sink Sink, log *slog.Logger, opts Options) *Orchestrator {
	if opts.WorkerCount <= 0 {
		opts.WorkerCount = 4
	}
	if opts.JobTTL <= 0 {
		opts.JobTTL = time.Hour
	}
	return &Orchestrator{
		parser:  p,
		sink:    sink,
		log:     log,
		opts:    opts,
		jobs:    NewJobStore(opts.JobTTL),
		backoff: Backoff,
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// IngestDir ingests every supported file directly inside dir, in name order.
func (o *Orchestrator) IngestDir(ctx context.Context, dir string, bo BatchOptions) (*Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read docs dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !parser.IsSupportedExtension(e.Name()) {
			o.log.Debug("skipping unsupported file", "file", e.Name())
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return o.Ingest(ctx, paths, bo)
}

// IngestFile ingests one document and returns its course and the number of
// chunks added. A course that already exists is returned with zero chunks.
func (o *Orchestrator) IngestFile(ctx context.Context, path string) (*course.Course, int, error) {
	rep, err := o.Ingest(ctx, []string{path}, BatchOptions{})
	if err != nil {
		return nil, 0, err
	}
	job := o.GetJob(rep.Jobs[0].ID)
	crs, chunks := job.Result()
	switch rep.Jobs[0].Status {
	case StatusCompleted:
		return crs, len(chunks), nil
	case StatusDupSkipped:
		return crs, 0, nil
	}
	return nil, 0, job.Err()
}

// Ingest processes paths as one batch. Per-document failures are recorded
// in the report and do not stop the batch. The returned error is non-nil
// only when the sink could not be cleared or ctx was cancelled.
func (o *Orchestrator) Ingest(ctx context.Context, paths []string, bo BatchOptions) (*Report, error) {
	started := time.Now()
	batchID := uuid.NewString()
	log := o.log.With("batch_id", batchID)
	o.jobs.Cleanup()

	if bo.Clear {
		if err := o.sink.Clear(ctx); err != nil {
			return nil, fmt.Errorf("clear sink: %w", err)
		}
		log.Info("cleared existing courses")
	}

	jobs := make([]*Job, len(paths))
	for i, p := range paths {
		jobs[i] = NewJob(p)
		o.jobs.Put(jobs[i])
	}

	batchStats := NewDurationStats()
	o.parseAll(ctx, log, jobs, batchStats)
	o.commit(ctx, log, jobs)

	rep := &Report{
		BatchID:   batchID,
		Documents: len(jobs),
		Durations: batchStats.Snapshot(),
		Jobs:      make([]JobSnapshot, 0, len(jobs)),
	}
	for _, job := range jobs {
		snap := job.Snapshot()
		switch snap.Status {
		case StatusCompleted:
			rep.CoursesAdded++
			rep.ChunksAdded += snap.Chunks
		case StatusDupSkipped:
			rep.Skipped++
		default:
			rep.Failed++
		}
		rep.Jobs = append(rep.Jobs, snap)
	}
	rep.ElapsedMs = time.Since(started).Milliseconds()

	log.Info("batch complete",
		"documents", rep.Documents,
		"courses_added", rep.CoursesAdded,
		"chunks_added", rep.ChunksAdded,
		"skipped", rep.Skipped,
		"failed", rep.Failed,
		"elapsed_ms", rep.ElapsedMs,
	)
	return rep, ctx.Err()
}

// parseAll feeds jobs to WorkerCount workers and waits for them to finish.
func (o *Orchestrator) parseAll(ctx context.Context, log *slog.Logger, jobs []*Job, batchStats *DurationStats) {
	queue := make(chan *Job)
	var wg sync.WaitGroup

	for range min(o.opts.WorkerCount, max(len(jobs), 1)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := NewWorker(o.parser, o.opts.Reader, log)
			for job := range queue {
				start := time.Now()
				w.Process(ctx, job)
				d := time.Since(start)
				job.setDuration(d)
				batchStats.Record(d)
			}
		}()
	}

feed:
	for _, job := range jobs {
		select {
		case queue <- job:
		case <-ctx.Done():
			break feed
		}
	}
	close(queue)
	wg.Wait()
}

// commit hands parsed courses to the sink in input order. Documents whose
// text repeats an earlier one, or whose title the sink already holds, are
// skipped.
func (o *Orchestrator) commit(ctx context.Context, log *slog.Logger, jobs []*Job) {
	seen := make(map[string]string)
	for _, job := range jobs {
		jlog := log.With("job_id", job.ID, "source", job.Source)

		if err := ctx.Err(); err != nil {
			if job.Snapshot().Status != StatusFailed {
				job.Fail("storing", err)
			}
			continue
		}
		crs, chunks := job.Result()
		if crs == nil {
			continue
		}

		if first, dup := seen[job.ContentHash]; dup {
			jlog.Info("duplicate document, skipping", "same_as", first)
			job.AddError("same content as " + first)
			job.SetStatus(StatusDupSkipped, "dedup")
			continue
		}
		seen[job.ContentHash] = job.Source

		exists, err := o.sink.HasCourse(ctx, crs.Title)
		if err != nil {
			jlog.Warn("existence check failed, proceeding", "error", err)
		} else if exists {
			jlog.Info("course already exists, skipping", "course", crs.Title)
			job.SetStatus(StatusDupSkipped, "course_exists")
			continue
		}

		job.SetStatus(StatusStoring, "storing")
		if err := o.store(ctx, jlog, *crs, chunks); err != nil {
			jlog.Error("store failed", "error", err)
			job.Fail("storing", err)
			continue
		}
		job.SetStatus(StatusCompleted, "done")
	}
}

// store adds a course to the sink, retrying transient failures.
func (o *Orchestrator) store(ctx context.Context, log *slog.Logger, crs course.Course, chunks []course.Chunk) error {
	var err error
	for attempt := range MaxRetries {
		err = o.sink.AddCourse(ctx, crs, chunks)
		if err == nil || !IsRetryable(err) {
			return err
		}
		log.Warn("retryable sink error", "attempt", attempt, "error", err)
		if attempt == MaxRetries-1 {
			break
		}
		if serr := sleepCtx(ctx, o.backoff(attempt)); serr != nil {
			return serr
		}
	}
	return fmt.Errorf("store course after %d attempts: %w", MaxRetries, err)
}
