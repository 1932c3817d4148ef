// Package catalog keeps ingested courses in memory and answers the
// metadata questions a course assistant asks: which courses exist, what a
// course outline looks like, and where a lesson lives.
package catalog

import (
	"context"
	"strings"
	"sync"

	"github.com/dgallion1/coursegest/internal/course"
)

// Analytics summarizes the catalog.
type Analytics struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

type entry struct {
	course course.Course
	chunks []course.Chunk
}

// Catalog is a thread-safe in-memory course store. Courses are keyed by
// title; adding a title again replaces the earlier course.
type Catalog struct {
	mu      sync.RWMutex
	courses map[string]*entry
	order   []string
}

func New() *Catalog {
	return &Catalog{courses: make(map[string]*entry)}
}

func (c *Catalog) AddCourse(_ context.Context, crs course.Course, chunks []course.Chunk) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.courses[crs.Title]; !ok {
		c.order = append(c.order, crs.Title)
	}
	c.courses[crs.Title] = &entry{course: crs, chunks: chunks}
	return nil
}

func (c *Catalog) HasCourse(_ context.Context, title string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.courses[title]
	return ok, nil
}

func (c *Catalog) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.courses = make(map[string]*entry)
	c.order = nil
	return nil
}

// Titles returns course titles in the order they were first added.
func (c *Catalog) Titles() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

func (c *Catalog) Analytics() Analytics {
	titles := c.Titles()
	return Analytics{TotalCourses: len(titles), CourseTitles: titles}
}

// Course looks a course up by name. An exact title match wins, then a
// case-insensitive match, then the first title containing name.
func (c *Catalog) Course(name string) (course.Course, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e := c.resolveLocked(name)
	if e == nil {
		return course.Course{}, false
	}
	return e.course, true
}

// Chunks returns the chunks stored for the named course.
func (c *Catalog) Chunks(name string) []course.Chunk {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e := c.resolveLocked(name)
	if e == nil {
		return nil
	}
	out := make([]course.Chunk, len(e.chunks))
	copy(out, e.chunks)
	return out
}

// LessonLink returns the link of lesson n in the named course. It reports
// false when the course or lesson is unknown; a known lesson without a
// link yields "", true.
func (c *Catalog) LessonLink(name string, n int) (string, bool) {
	crs, ok := c.Course(name)
	if !ok {
		return "", false
	}
	l, ok := crs.Lesson(n)
	if !ok {
		return "", false
	}
	return l.Link, true
}

// Outline renders the outline of the named course.
func (c *Catalog) Outline(name string) (string, bool) {
	crs, ok := c.Course(name)
	if !ok {
		return "", false
	}
	return crs.Outline(), true
}

func (c *Catalog) resolveLocked(name string) *entry {
	if e, ok := c.courses[name]; ok {
		return e
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	for _, t := range c.order {
		if strings.EqualFold(t, name) {
			return c.courses[t]
		}
	}
	lower := strings.ToLower(name)
	for _, t := range c.order {
		if strings.Contains(strings.ToLower(t), lower) {
			return c.courses[t]
		}
	}
	return nil
}
