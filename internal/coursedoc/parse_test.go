package coursedoc

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/coursegest/internal/chunker"
)

func newParser(t *testing.T, cfg chunker.Config) *Parser {
	t.Helper()
	s, err := chunker.New(cfg)
	require.NoError(t, err)
	return NewParser(s)
}

func TestParse_SingleLessonSingleChunk(t *testing.T) {
	p := newParser(t, chunker.DefaultConfig())
	res, err := p.Parse("intro.txt", "Course Title: Intro to X\n\nLesson 0: Basics\nSentence one. Sentence two. Sentence three.")
	require.NoError(t, err)

	assert.Equal(t, "Intro to X", res.Course.Title)
	require.Len(t, res.Course.Lessons, 1)
	assert.Equal(t, 0, res.Course.Lessons[0].Number)
	assert.Equal(t, "Basics", res.Course.Lessons[0].Title)

	require.Len(t, res.Chunks, 1)
	assert.Equal(t, "Lesson 0 content: Sentence one. Sentence two. Sentence three.", res.Chunks[0].Content)
	assert.Equal(t, "Intro to X", res.Chunks[0].CourseTitle)
	assert.Equal(t, 0, res.Chunks[0].LessonNumber)
	assert.Equal(t, 0, res.Chunks[0].Index)
}

func TestParse_FullHeaderAndLessons(t *testing.T) {
	doc := `Course Title: Building Towards Computer Use with Anthropic
Course Link: https://example.com/course
Course Instructor: Colt Steele

Lesson 1: Introduction
Lesson Link: https://example.com/lesson1
Welcome to the course. We will cover the basics of computer use.

Lesson 2: Getting Started
Lesson Link: https://example.com/lesson2
First install the SDK. Then configure your API key.
`
	p := newParser(t, chunker.DefaultConfig())
	res, err := p.Parse("course1.txt", doc)
	require.NoError(t, err)

	c := res.Course
	assert.Equal(t, "Building Towards Computer Use with Anthropic", c.Title)
	assert.Equal(t, "https://example.com/course", c.Link)
	assert.Equal(t, "Colt Steele", c.Instructor)
	assert.Empty(t, c.Description)

	require.Len(t, c.Lessons, 2)
	assert.Equal(t, 1, c.Lessons[0].Number)
	assert.Equal(t, "Introduction", c.Lessons[0].Title)
	assert.Equal(t, "https://example.com/lesson1", c.Lessons[0].Link)
	assert.Equal(t, 2, c.Lessons[1].Number)
	assert.Equal(t, "https://example.com/lesson2", c.LessonLink(2))

	require.Len(t, res.Chunks, 2)
	assert.Equal(t, "Lesson 1 content: Welcome to the course. We will cover the basics of computer use.", res.Chunks[0].Content)
	assert.Equal(t, "Lesson 2 content: First install the SDK. Then configure your API key.", res.Chunks[1].Content)
	assert.Equal(t, 0, res.Chunks[0].Index)
	assert.Equal(t, 1, res.Chunks[1].Index)
	assert.Equal(t, 2, res.Chunks[1].LessonNumber)
}

func TestParse_IndicesRunAcrossLessons(t *testing.T) {
	var b strings.Builder
	b.WriteString("Course Title: Long Course\n")
	for _, n := range []string{"1", "2", "3"} {
		b.WriteString("Lesson " + n + ": Part " + n + "\n")
		for range 12 {
			b.WriteString("Each lesson repeats this fairly long sentence a few times. ")
		}
		b.WriteString("\n")
	}

	cfg := chunker.Config{ChunkSize: 200, ChunkOverlap: 60}
	p := newParser(t, cfg)
	res, err := p.Parse("long.txt", b.String())
	require.NoError(t, err)
	require.Greater(t, len(res.Chunks), 3)

	lastLesson := 0
	for i, ch := range res.Chunks {
		assert.Equal(t, i, ch.Index)
		assert.Equal(t, "Long Course", ch.CourseTitle)
		assert.LessOrEqual(t, utf8.RuneCountInString(ch.Content), cfg.ChunkSize)
		assert.GreaterOrEqual(t, ch.LessonNumber, lastLesson, "chunks stay in lesson order")
		if ch.LessonNumber != lastLesson {
			assert.True(t, strings.HasPrefix(ch.Content, LessonPrefix(ch.LessonNumber)), "first chunk of a lesson is prefixed")
		} else if i > 0 {
			assert.False(t, strings.HasPrefix(ch.Content, "Lesson "), "later chunks are not prefixed: %q", ch.Content)
		}
		lastLesson = ch.LessonNumber
	}
}

func TestParse_NoMarkersIsImplicitLesson(t *testing.T) {
	p := newParser(t, chunker.DefaultConfig())
	res, err := p.Parse("plain.txt", "Course Title: Plain\nCourse Instructor: Ada\n\nJust some notes. Nothing else.")
	require.NoError(t, err)

	assert.Equal(t, "Ada", res.Course.Instructor)
	require.Len(t, res.Course.Lessons, 1)
	assert.Equal(t, 0, res.Course.Lessons[0].Number)
	require.Len(t, res.Chunks, 1)
	assert.Equal(t, "Lesson 0 content: Just some notes. Nothing else.", res.Chunks[0].Content)
}

func TestParse_HeaderOnly(t *testing.T) {
	p := newParser(t, chunker.DefaultConfig())
	res, err := p.Parse("empty-body.txt", "Course Title: Nothing Yet\n")
	require.NoError(t, err)

	assert.Equal(t, "Nothing Yet", res.Course.Title)
	require.Len(t, res.Course.Lessons, 1)
	assert.Empty(t, res.Chunks)
}

func TestParse_PreambleBecomesDescription(t *testing.T) {
	doc := "Course Title: With Intro\n\nThis course is about retrieval.\n\nLesson 1: Start\nBody text here."
	p := newParser(t, chunker.DefaultConfig())
	res, err := p.Parse("intro.txt", doc)
	require.NoError(t, err)

	assert.Equal(t, "This course is about retrieval.", res.Course.Description)
	require.Len(t, res.Chunks, 1)
	assert.Equal(t, "Lesson 1 content: Body text here.", res.Chunks[0].Content)
}

func TestParse_HeaderFieldsAreOrdered(t *testing.T) {
	// A link line after the instructor line is no longer header text.
	doc := "Course Title: Out Of Order\nCourse Instructor: Bob\nCourse Link: https://x\nLesson 1: A\nBody."
	p := newParser(t, chunker.DefaultConfig())
	res, err := p.Parse("order.txt", doc)
	require.NoError(t, err)

	assert.Empty(t, res.Course.Link)
	assert.Equal(t, "Bob", res.Course.Instructor)
	assert.Equal(t, "Course Link: https://x", res.Course.Description)
}

func TestParse_HeaderFieldsAcrossBlankLines(t *testing.T) {
	doc := "Course Title: Spaced\n\nCourse Link: http://a\n\n\nCourse Instructor: Bob\n\nAbout it.\n\nLesson 1: A\nBody."
	p := newParser(t, chunker.DefaultConfig())
	res, err := p.Parse("spaced.txt", doc)
	require.NoError(t, err)

	assert.Equal(t, "http://a", res.Course.Link)
	assert.Equal(t, "Bob", res.Course.Instructor)
	assert.Equal(t, "About it.", res.Course.Description)
	require.Len(t, res.Chunks, 1)
	assert.Equal(t, "Lesson 1 content: Body.", res.Chunks[0].Content)
}

func TestParse_CaseInsensitiveHeaders(t *testing.T) {
	p := newParser(t, chunker.DefaultConfig())
	res, err := p.Parse("case.txt", "\n\n  course title:   Lower Case  \r\nCOURSE LINK: https://y\r\nlesson 3: Third\r\nText.")
	require.NoError(t, err)

	assert.Equal(t, "Lower Case", res.Course.Title)
	assert.Equal(t, "https://y", res.Course.Link)
	require.Len(t, res.Course.Lessons, 1)
	assert.Equal(t, 3, res.Course.Lessons[0].Number)
}

func TestParse_Errors(t *testing.T) {
	p := newParser(t, chunker.DefaultConfig())

	tests := []struct {
		name string
		text string
		want error
	}{
		{"empty", "", ErrEmptyDocument},
		{"whitespace", "  \n\t\n", ErrEmptyDocument},
		{"no title line", "Lesson 1: Start\nBody.", ErrMissingTitle},
		{"title not first", "Welcome!\nCourse Title: Late", ErrMissingTitle},
		{"blank title", "Course Title:   \nLesson 1: A", ErrMissingTitle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := p.Parse("bad.txt", tt.text)
			assert.Nil(t, res)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, "bad.txt", pe.Source)
			assert.Contains(t, err.Error(), "bad.txt")
		})
	}
}
