// Package coursedoc turns the text of a course document into a Course and
// the chunks that get indexed for retrieval.
//
// Expected layout:
//
//	Course Title: <title>
//	Course Link: <url>            (optional)
//	Course Instructor: <name>     (optional)
//
//	Lesson 0: <lesson title>
//	Lesson Link: <url>            (optional)
//	<lesson body text>
package coursedoc

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dgallion1/coursegest/internal/chunker"
	"github.com/dgallion1/coursegest/internal/course"
)

var (
	// ErrMissingTitle means the first line is not a "Course Title:" line.
	ErrMissingTitle = errors.New("missing course title line")
	// ErrEmptyDocument means the text holds nothing but whitespace.
	ErrEmptyDocument = errors.New("empty document")
)

var (
	titleRe      = regexp.MustCompile(`(?i)^course\s+title:\s*(.+)$`)
	linkRe       = regexp.MustCompile(`(?i)^course\s+link:\s*(.+)$`)
	instructorRe = regexp.MustCompile(`(?i)^course\s+instructor:\s*(.+)$`)
)

// ParseError reports why a document was rejected.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Result is a parsed course with its chunks in course order.
type Result struct {
	Course course.Course
	Chunks []course.Chunk
}

// Parser parses course documents. It is stateless and safe for concurrent use.
type Parser struct {
	splitter *chunker.Splitter
}

func NewParser(splitter *chunker.Splitter) *Parser {
	return &Parser{splitter: splitter}
}

// LessonPrefix is prepended to the first chunk of each lesson so the chunk
// still names its lesson once stored on its own.
func LessonPrefix(number int) string {
	return fmt.Sprintf("Lesson %d content: ", number)
}

// Parse parses text read from source. source only labels errors.
func (p *Parser) Parse(source, text string) (*Result, error) {
	c, rest, err := parseHeader(text)
	if err != nil {
		return nil, &ParseError{Source: source, Err: err}
	}

	sections, preamble := ExtractLessons(rest)
	c.Description = preamble

	res := &Result{}
	index := 0
	for _, sec := range sections {
		c.Lessons = append(c.Lessons, sec.Lesson)
		for _, text := range p.splitter.SplitWithPrefix(sec.Body, LessonPrefix(sec.Lesson.Number)) {
			res.Chunks = append(res.Chunks, course.Chunk{
				Content:      text,
				CourseTitle:  c.Title,
				LessonNumber: sec.Lesson.Number,
				Index:        index,
			})
			index++
		}
	}
	res.Course = c
	return res, nil
}

// parseHeader reads the title, link and instructor lines, in that order,
// and returns the text after them. Blank lines may separate the three.
func parseHeader(text string) (course.Course, string, error) {
	lines := strings.Split(normalizeNewlines(text), "\n")

	i := 0
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	if i == len(lines) {
		return course.Course{}, "", ErrEmptyDocument
	}

	m := titleRe.FindStringSubmatch(strings.TrimSpace(lines[i]))
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return course.Course{}, "", ErrMissingTitle
	}
	c := course.Course{Title: strings.TrimSpace(m[1])}
	i++

	if v, next, ok := headerField(lines, i, linkRe); ok {
		c.Link, i = v, next
	}
	if v, next, ok := headerField(lines, i, instructorRe); ok {
		c.Instructor, i = v, next
	}

	return c, strings.Join(lines[i:], "\n"), nil
}

// headerField matches re against the first non-blank line at or after i
// and returns its value and the index just past it.
func headerField(lines []string, i int, re *regexp.Regexp) (string, int, bool) {
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	if i == len(lines) {
		return "", 0, false
	}
	m := re.FindStringSubmatch(strings.TrimSpace(lines[i]))
	if m == nil {
		return "", 0, false
	}
	return strings.TrimSpace(m[1]), i + 1, true
}
