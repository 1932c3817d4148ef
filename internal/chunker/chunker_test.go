package chunker

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSplitter(t *testing.T, cfg Config, opts ...Option) *Splitter {
	t.Helper()
	s, err := New(cfg, opts...)
	require.NoError(t, err)
	return s
}

// numbered returns n sentences of exactly 11 characters: "S01 xxxxxx.".
func numbered(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("S%02d xxxxxx.", i)
	}
	return out
}

func TestSplit_EmptyAndWhitespace(t *testing.T) {
	s := mustSplitter(t, DefaultConfig())
	assert.Empty(t, s.Split(""))
	assert.Empty(t, s.Split("   \n\t  \n"))
	assert.Empty(t, s.SplitWithPrefix(" ", "Lesson 0 content: "))
}

func TestSplit_FitsOneChunk(t *testing.T) {
	s := mustSplitter(t, DefaultConfig())
	chunks := s.Split("Sentence one.  Sentence two.\nSentence three.")
	require.Len(t, chunks, 1)
	assert.Equal(t, "Sentence one. Sentence two. Sentence three.", chunks[0])
}

func TestSplit_SingleCharacterSentences(t *testing.T) {
	s := mustSplitter(t, Config{ChunkSize: 4, ChunkOverlap: 2})
	chunks := s.Split("A. B. C. D.")

	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 4, "chunk %d: %q", i, c)
	}
	// "A. B." is five characters, so no pair fits and each sentence stands alone.
	assert.Equal(t, []string{"A.", "B.", "C.", "D."}, chunks)
}

func TestSplit_OverlapIncludesBoundarySentence(t *testing.T) {
	sents := numbered(10)
	// Two trailing sentences join to exactly 23 characters.
	s := mustSplitter(t, Config{ChunkSize: 50, ChunkOverlap: 23})
	chunks := s.Split(strings.Join(sents, " "))

	want := []string{
		strings.Join(sents[0:4], " "),
		strings.Join(sents[2:6], " "),
		strings.Join(sents[4:8], " "),
		strings.Join(sents[6:10], " "),
	}
	assert.Equal(t, want, chunks)
}

func TestSplit_OverlapBelowTwoSentences(t *testing.T) {
	sents := numbered(10)
	s := mustSplitter(t, Config{ChunkSize: 50, ChunkOverlap: 22})
	chunks := s.Split(strings.Join(sents, " "))

	want := []string{
		strings.Join(sents[0:4], " "),
		strings.Join(sents[3:7], " "),
		strings.Join(sents[6:10], " "),
	}
	assert.Equal(t, want, chunks)
}

func TestSplit_ZeroOverlap(t *testing.T) {
	sents := numbered(6)
	s := mustSplitter(t, Config{ChunkSize: 23, ChunkOverlap: 0})
	chunks := s.Split(strings.Join(sents, " "))

	assert.Equal(t, []string{
		strings.Join(sents[0:2], " "),
		strings.Join(sents[2:4], " "),
		strings.Join(sents[4:6], " "),
	}, chunks)
}

func TestSplit_AdjacentChunksShareTail(t *testing.T) {
	sents := numbered(12)
	s := mustSplitter(t, Config{ChunkSize: 60, ChunkOverlap: 12})
	chunks := s.Split(strings.Join(sents, " "))

	require.Greater(t, len(chunks), 2)
	for i := 0; i+1 < len(chunks); i++ {
		prev := RuleSplitter{}.Split(chunks[i])
		tail := prev[len(prev)-1]
		assert.True(t, strings.HasPrefix(chunks[i+1], tail),
			"chunk %d should start with %q, got %q", i+1, tail, chunks[i+1])
	}
}

func TestSplit_OversizedSentenceKeptWhole(t *testing.T) {
	long := "This sentence is intentionally much longer than the configured limit allows."
	s := mustSplitter(t, Config{ChunkSize: 30, ChunkOverlap: 5})
	chunks := s.Split("Short one. " + long + " Tail end.")

	require.Equal(t, []string{"Short one.", long, "Tail end."}, chunks)
	assert.Greater(t, utf8.RuneCountInString(chunks[1]), 30)
}

func TestSplit_NoTerminalPunctuation(t *testing.T) {
	s := mustSplitter(t, Config{ChunkSize: 10, ChunkOverlap: 2})
	text := "no punctuation anywhere in this line"
	assert.Equal(t, []string{text}, s.Split(text))
}

func TestSplit_Deterministic(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. Dr. Who watched! ", 40)
	s := mustSplitter(t, Config{ChunkSize: 120, ChunkOverlap: 40})
	assert.Equal(t, s.Split(text), s.Split(text))
}

func TestSplitWithPrefix_FirstChunkBudget(t *testing.T) {
	sents := numbered(8)
	prefix := "Lesson 0 content: "
	s := mustSplitter(t, Config{ChunkSize: 50, ChunkOverlap: 12})
	chunks := s.SplitWithPrefix(strings.Join(sents, " "), prefix)

	require.NotEmpty(t, chunks)
	assert.Equal(t, prefix+strings.Join(sents[0:2], " "), chunks[0])
	for i, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 50, "chunk %d: %q", i, c)
		if i > 0 {
			assert.False(t, strings.HasPrefix(c, prefix), "only the first chunk is prefixed")
		}
	}
}

func TestSplitWithPrefix_FirstSentenceLongerThanReducedBudget(t *testing.T) {
	prefix := "Lesson 1 content: "
	s := mustSplitter(t, Config{ChunkSize: 30, ChunkOverlap: 5})
	chunks := s.SplitWithPrefix("Twenty-five characters ok. Short one.", prefix)

	// The first sentence fits ChunkSize but not ChunkSize minus the
	// prefix, so it rides alone with the prefix over the limit.
	require.Equal(t, []string{prefix + "Twenty-five characters ok.", "Short one."}, chunks)
	assert.Equal(t, 44, utf8.RuneCountInString(chunks[0]))
}

func TestSplit_SizeBoundProperty(t *testing.T) {
	words := []string{"graph", "vector", "lesson", "model", "token", "search", "query", "context", "embedding", "retrieval"}
	rng := rand.New(rand.NewPCG(7, 11))

	for trial := range 25 {
		var sents []string
		for range 5 + rng.IntN(30) {
			n := 1 + rng.IntN(25)
			ws := make([]string, n)
			for i := range ws {
				ws[i] = words[rng.IntN(len(words))]
			}
			ws[0] = strings.ToUpper(ws[0][:1]) + ws[0][1:]
			sents = append(sents, strings.Join(ws, " ")+".")
		}
		size := 40 + rng.IntN(200)
		cfg := Config{ChunkSize: size, ChunkOverlap: rng.IntN(size)}
		s := mustSplitter(t, cfg)

		chunks := s.Split(strings.Join(sents, " "))
		seen := map[string]bool{}
		for _, c := range chunks {
			require.NotEmpty(t, c)
			parts := RuleSplitter{}.Split(c)
			if utf8.RuneCountInString(c) > size {
				assert.Len(t, parts, 1, "trial %d: oversized chunk must be one sentence: %q", trial, c)
			}
			for _, p := range parts {
				seen[p] = true
			}
		}
		for _, sent := range sents {
			assert.True(t, seen[sent], "trial %d: sentence dropped: %q", trial, sent)
		}
	}
}

func TestNew_Config(t *testing.T) {
	_, err := New(Config{ChunkSize: 100, ChunkOverlap: 100})
	assert.Error(t, err)

	_, err = New(Config{ChunkSize: 100, ChunkOverlap: -1})
	assert.Error(t, err)

	_, err = New(Config{ChunkSize: -5})
	assert.Error(t, err)

	s, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().ChunkSize, s.Config().ChunkSize)
}

type semicolonSplitter struct{}

func (semicolonSplitter) Split(text string) []string {
	var out []string
	for _, p := range strings.Split(text, ";") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func TestWithSentenceSplitter(t *testing.T) {
	s := mustSplitter(t, Config{ChunkSize: 12, ChunkOverlap: 0}, WithSentenceSplitter(semicolonSplitter{}))
	assert.Equal(t, []string{"first part", "second part"}, s.Split("first part; second part"))
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("hi"))
	assert.Equal(t, 13, EstimateTokens(strings.Repeat("word ", 10)))
}
