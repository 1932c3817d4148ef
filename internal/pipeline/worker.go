package pipeline

import (
	"context"
	"log/slog"

	"github.com/dgallion1/coursegest/internal/chunker"
	"github.com/dgallion1/coursegest/internal/coursedoc"
	"github.com/dgallion1/coursegest/internal/parser"
)

// Worker reads and parses a single document. It never writes to a sink;
// storing happens in input order once the batch is parsed.
type Worker struct {
	parser   *coursedoc.Parser
	readOpts parser.Options
	log      *slog.Logger
}

func NewWorker(p *coursedoc.Parser, readOpts parser.Options, log *slog.Logger) *Worker {
	return &Worker{
		parser:   p,
		readOpts: readOpts,
		log:      log,
	}
}

// Process runs the read and parse phases for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "source", job.Source)

	if err := ctx.Err(); err != nil {
		job.Fail("queued", err)
		return
	}

	// Phase 1: Read
	job.SetStatus(StatusReading, "reading")
	text, err := parser.ReadFile(job.Source, w.readOpts)
	if err != nil {
		log.Error("read failed", "error", err)
		job.Fail("reading", err)
		return
	}
	job.setHash(ContentHashHex([]byte(text)))

	// Phase 2: Parse and chunk
	job.SetStatus(StatusParsing, "parsing")
	res, err := w.parser.Parse(job.Source, text)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.Fail("parsing", err)
		return
	}
	job.SetResult(res.Course, res.Chunks)

	tokens := 0
	for _, ch := range res.Chunks {
		tokens += chunker.EstimateTokens(ch.Content)
	}
	log.Info("parsed course",
		"course", res.Course.Title,
		"lessons", len(res.Course.Lessons),
		"chunks", len(res.Chunks),
		"est_tokens", tokens,
	)
}
