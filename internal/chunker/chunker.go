package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Config controls chunking behavior. Sizes are in characters.
type Config struct {
	ChunkSize    int // Maximum chunk length.
	ChunkOverlap int // Maximum length of the sentence tail repeated at the start of the next chunk.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    800,
		ChunkOverlap: 100,
	}
}

// Validate reports whether the sizes can produce chunks.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("chunk overlap must not be negative, got %d", c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)", c.ChunkOverlap, c.ChunkSize)
	}
	return nil
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithSentenceSplitter replaces the default rule-based sentence segmentation.
func WithSentenceSplitter(s SentenceSplitter) Option {
	return func(sp *Splitter) {
		if s != nil {
			sp.sentences = s
		}
	}
}

// Splitter breaks text into sentence-aligned, overlapping chunks.
// It holds no mutable state and is safe for concurrent use.
type Splitter struct {
	cfg       Config
	sentences SentenceSplitter
}

// New returns a Splitter. A zero ChunkSize falls back to the default.
func New(cfg Config, opts ...Option) (*Splitter, error) {
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = DefaultConfig().ChunkSize
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Splitter{cfg: cfg, sentences: RuleSplitter{}}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the sizes the splitter was built with.
func (s *Splitter) Config() Config {
	return s.cfg
}

// Split returns the chunks of text in order. Empty or whitespace-only
// text yields no chunks.
func (s *Splitter) Split(text string) []string {
	return s.pack(s.segment(text), s.cfg.ChunkSize)
}

// SplitWithPrefix splits text like Split, but prepends prefix to the first
// chunk and shrinks that chunk's budget by the prefix length so the result
// still fits in ChunkSize. The exception is a first sentence longer than
// the shrunk budget: it is kept whole, alone, and the prefixed chunk may
// then exceed ChunkSize.
func (s *Splitter) SplitWithPrefix(text, prefix string) []string {
	chunks := s.pack(s.segment(text), s.cfg.ChunkSize-utf8.RuneCountInString(prefix))
	if len(chunks) > 0 {
		chunks[0] = prefix + chunks[0]
	}
	return chunks
}

func (s *Splitter) segment(text string) []string {
	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" {
		return nil
	}
	sents := s.sentences.Split(normalized)
	if len(sents) == 0 {
		// Nothing the strategy could split; keep the text whole.
		return []string{normalized}
	}
	return sents
}

// pack greedily groups sentences into chunks. The first chunk gets
// firstBudget characters, later chunks get ChunkSize.
func (s *Splitter) pack(sents []string, firstBudget int) []string {
	if len(sents) == 0 {
		return nil
	}
	lens := make([]int, len(sents))
	for i, sent := range sents {
		lens[i] = utf8.RuneCountInString(sent)
	}

	var chunks []string
	budget := firstBudget
	start := 0
	for start < len(sents) {
		end, size := start, 0
		for end < len(sents) {
			add := lens[end]
			if end > start {
				add++ // joining space
			}
			// The first sentence always goes in, even when it alone is oversized.
			if size+add > budget && end > start {
				break
			}
			size += add
			end++
		}
		chunks = append(chunks, strings.Join(sents[start:end], " "))
		if end == len(sents) {
			break
		}
		start = s.overlapStart(lens, start, end)
		budget = s.cfg.ChunkSize
	}
	return chunks
}

// overlapStart returns the index the chunk following sents[start:end]
// begins at. It walks back over trailing sentences while their joined
// length stays within ChunkOverlap; a sentence that lands exactly on the
// limit is included. The tail never reaches back to start, and leading
// tail sentences are dropped until sents[end] fits behind the rest, so
// each chunk contributes at least one new sentence.
func (s *Splitter) overlapStart(lens []int, start, end int) int {
	next, size := end, 0
	for k := end - 1; k > start; k-- {
		add := lens[k]
		if k < end-1 {
			add++
		}
		if size+add > s.cfg.ChunkOverlap {
			break
		}
		size += add
		next = k
	}

	for next < end && size+1+lens[end] > s.cfg.ChunkSize {
		if next == end-1 {
			size = 0
		} else {
			size -= lens[next] + 1
		}
		next++
	}
	return next
}
