package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/dgallion1/coursegest/internal/course"
)

// Sink receives parsed courses. AddCourse may be retried, so it must
// replace rather than duplicate a course it has already seen.
type Sink interface {
	AddCourse(ctx context.Context, c course.Course, chunks []course.Chunk) error
	HasCourse(ctx context.Context, title string) (bool, error)
	Clear(ctx context.Context) error
}

// MultiSink fans out to several sinks in order. A course exists if any
// sink holds it.
type MultiSink []Sink

func (m MultiSink) AddCourse(ctx context.Context, c course.Course, chunks []course.Chunk) error {
	for _, s := range m {
		if err := s.AddCourse(ctx, c, chunks); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiSink) HasCourse(ctx context.Context, title string) (bool, error) {
	for _, s := range m {
		ok, err := s.HasCourse(ctx, title)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (m MultiSink) Clear(ctx context.Context) error {
	for _, s := range m {
		if err := s.Clear(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Record is one line of JSONL output.
type Record struct {
	Type     string            `json:"type"` // "course" or "chunk"
	Course   *course.Course    `json:"course,omitempty"`
	ID       string            `json:"id,omitempty"`
	Content  string            `json:"content,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// JSONLSink writes each course as a course record followed by its chunk
// records, one JSON object per line.
type JSONLSink struct {
	mu     sync.Mutex
	w      io.Writer
	titles map[string]bool
}

func NewJSONLSink(w io.Writer) *JSONLSink {
	return &JSONLSink{w: w, titles: make(map[string]bool)}
}

// AddCourse writes the course once; later calls for the same title are no-ops.
// Records are encoded up front and written in a single call, so a failed
// call leaves nothing behind to duplicate on retry.
func (s *JSONLSink) AddCourse(_ context.Context, c course.Course, chunks []course.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.titles[c.Title] {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(Record{Type: "course", Course: &c}); err != nil {
		return fmt.Errorf("encode course record: %w", err)
	}
	for _, ch := range chunks {
		rec := Record{Type: "chunk", ID: ch.ID(), Content: ch.Content, Metadata: ch.Metadata()}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode chunk record: %w", err)
		}
	}

	n, err := s.w.Write(buf.Bytes())
	if n > 0 {
		// Part of the course is already out; a rewrite would duplicate it.
		s.titles[c.Title] = true
	}
	if err != nil {
		return fmt.Errorf("write course %q: %w", c.Title, err)
	}
	return nil
}

func (s *JSONLSink) HasCourse(_ context.Context, title string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.titles[title], nil
}

// Clear forgets written titles and truncates the output when it is a file.
func (s *JSONLSink) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.titles = make(map[string]bool)
	if t, ok := s.w.(interface {
		Truncate(int64) error
		Seek(int64, int) (int64, error)
	}); ok {
		if err := t.Truncate(0); err != nil {
			return fmt.Errorf("truncate output: %w", err)
		}
		if _, err := t.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("rewind output: %w", err)
		}
	}
	return nil
}
