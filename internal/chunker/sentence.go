package chunker

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// SentenceSplitter segments whitespace-normalized text into sentences.
type SentenceSplitter interface {
	Split(text string) []string
}

// abbreviations never end a sentence, even when followed by a capital.
// "may." is left out since it is usually a whole word.
var abbreviations = map[string]bool{
	"mr.": true, "mrs.": true, "ms.": true, "dr.": true, "prof.": true,
	"sr.": true, "jr.": true, "st.": true, "mt.": true, "vs.": true,
	"fig.": true, "gen.": true, "rev.": true, "hon.": true, "capt.": true,
	"col.": true, "lt.": true, "sgt.": true, "approx.": true, "dept.": true,
	"etc.": true,
	"jan.": true, "feb.": true, "mar.": true, "apr.": true, "jun.": true,
	"jul.": true, "aug.": true, "sep.": true, "sept.": true, "oct.": true,
	"nov.": true, "dec.": true,
}

// RuleSplitter splits after '.', '!' or '?' when whitespace and an
// uppercase letter follow, or at end of text. Known abbreviations and
// dotted initialisms (e.g., U.S.) do not end a sentence.
type RuleSplitter struct{}

func (RuleSplitter) Split(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}

		// Absorb "?!", "..." and closing quotes or brackets.
		end := i + 1
		for end < len(text) && isTerminalTrail(text[end]) {
			end++
		}
		if end == len(text) {
			break
		}
		if !isSpace(text[end]) {
			i = end - 1
			continue
		}
		next := end
		for next < len(text) && isSpace(text[next]) {
			next++
		}
		if next < len(text) {
			r, _ := utf8.DecodeRuneInString(text[next:])
			if !unicode.IsUpper(r) {
				i = next - 1
				continue
			}
		}
		if c == '.' && endsWithAbbreviation(text[start:i+1]) {
			i = next - 1
			continue
		}

		if s := strings.TrimSpace(text[start:end]); s != "" {
			out = append(out, s)
		}
		start = next
		i = next - 1
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func endsWithAbbreviation(segment string) bool {
	word := segment
	if idx := strings.LastIndexAny(segment, " \t\n"); idx >= 0 {
		word = segment[idx+1:]
	}
	word = strings.ToLower(strings.TrimLeft(word, "(\"'["))
	if abbreviations[word] {
		return true
	}
	return isInitialism(word)
}

// isInitialism matches single letters separated by dots, such as "u.s."
// or "e.g.". A lone "a." does not count.
func isInitialism(word string) bool {
	parts := strings.Split(strings.TrimSuffix(word, "."), ".")
	if len(parts) < 2 {
		return false
	}
	for _, p := range parts {
		if utf8.RuneCountInString(p) != 1 {
			return false
		}
		r, _ := utf8.DecodeRuneInString(p)
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func isTerminalTrail(b byte) bool {
	switch b {
	case '.', '!', '?', '"', '\'', ')', ']':
		return true
	}
	return false
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// PunktSplitter segments with the pre-trained English Punkt model.
type PunktSplitter struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

// NewPunktSplitter loads the bundled English training data.
func NewPunktSplitter() (*PunktSplitter, error) {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("load punkt english model: %w", err)
	}
	return &PunktSplitter{tokenizer: tokenizer}, nil
}

func (p *PunktSplitter) Split(text string) []string {
	var out []string
	for _, s := range p.tokenizer.Tokenize(text) {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// SplitterByName resolves a configured strategy name.
func SplitterByName(name string) (SentenceSplitter, error) {
	switch strings.ToLower(name) {
	case "", "rules":
		return RuleSplitter{}, nil
	case "punkt":
		p, err := NewPunktSplitter()
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown sentence splitter: %s", name)
	}
}
