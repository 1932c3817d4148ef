package course

import (
	"fmt"
	"strconv"
	"strings"
)

// Course is the root of a parsed course document.
type Course struct {
	Title       string   `json:"title"`                 // Unique identifier
	Link        string   `json:"link,omitempty"`        // Course URL, empty if absent
	Instructor  string   `json:"instructor,omitempty"`  // Empty if absent
	Description string   `json:"description,omitempty"` // Text between the header and the first lesson
	Lessons     []Lesson `json:"lessons"`               // Source order
}

// Lesson is a titled subsection of a course.
type Lesson struct {
	Number int    `json:"lesson_number"`
	Title  string `json:"title"`
	Link   string `json:"link,omitempty"`
}

// Chunk is a bounded span of lesson text, the unit handed to a vector index.
type Chunk struct {
	Content      string `json:"content"`
	CourseTitle  string `json:"course_title"`
	LessonNumber int    `json:"lesson_number"`
	Index        int    `json:"chunk_index"` // Position within the whole course
}

// ID returns the identifier downstream stores key the chunk by.
func (c Chunk) ID() string {
	return strings.ReplaceAll(c.CourseTitle, " ", "_") + "_" + strconv.Itoa(c.Index)
}

// Metadata returns the filterable fields stored alongside the chunk text.
func (c Chunk) Metadata() map[string]string {
	return map[string]string{
		"course_title":  c.CourseTitle,
		"lesson_number": strconv.Itoa(c.LessonNumber),
		"chunk_index":   strconv.Itoa(c.Index),
	}
}

// Lesson returns the lesson with the given number.
func (c *Course) Lesson(number int) (Lesson, bool) {
	for _, l := range c.Lessons {
		if l.Number == number {
			return l, true
		}
	}
	return Lesson{}, false
}

// LessonLink returns the link of the given lesson, or "" if the lesson
// is unknown or has no link.
func (c *Course) LessonLink(number int) string {
	l, _ := c.Lesson(number)
	return l.Link
}

// Outline renders the course structure as plain text.
func (c *Course) Outline() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s\n", c.Title)
	if c.Link != "" {
		fmt.Fprintf(&b, "Link: %s\n", c.Link)
	}
	if c.Instructor != "" {
		fmt.Fprintf(&b, "Instructor: %s\n", c.Instructor)
	}
	if len(c.Lessons) == 0 {
		b.WriteString("\nNo lessons found")
		return b.String()
	}
	fmt.Fprintf(&b, "\nLessons (%d total):", len(c.Lessons))
	for _, l := range c.Lessons {
		fmt.Fprintf(&b, "\nLesson %d: %s", l.Number, l.Title)
	}
	return b.String()
}
