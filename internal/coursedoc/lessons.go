package coursedoc

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/coursegest/internal/course"
)

var (
	lessonRe     = regexp.MustCompile(`(?i)^lesson\s+(\d+):\s*(.*)$`)
	lessonLinkRe = regexp.MustCompile(`(?i)^lesson\s+link:\s*(.+)$`)
)

// Section is one lesson together with its body text.
type Section struct {
	Lesson course.Lesson
	Body   string
}

// ExtractLessons splits the text following a course header into lessons.
// Lessons are returned in document order. Text ahead of the first lesson
// marker is returned as the preamble. Without any marker the whole text
// becomes one implicit lesson numbered 0.
//
// A marker line that does not parse (non-numeric number, missing colon,
// out-of-range number) or repeats an earlier lesson number is kept as
// body text of the current lesson.
func ExtractLessons(text string) ([]Section, string) {
	lines := strings.Split(normalizeNewlines(text), "\n")

	var (
		sections []Section
		preamble []string
		body     []string
		current  *Section
		numbers  = map[int]bool{}
	)

	flush := func() {
		if current == nil {
			return
		}
		current.Body = strings.TrimSpace(strings.Join(body, "\n"))
		sections = append(sections, *current)
		body = nil
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		lesson, ok := parseLessonMarker(line)
		if !ok || numbers[lesson.Number] {
			if current == nil {
				preamble = append(preamble, line)
			} else {
				body = append(body, line)
			}
			continue
		}

		flush()
		numbers[lesson.Number] = true
		if i+1 < len(lines) {
			if m := lessonLinkRe.FindStringSubmatch(strings.TrimSpace(lines[i+1])); m != nil {
				lesson.Link = strings.TrimSpace(m[1])
				i++
			}
		}
		current = &Section{Lesson: lesson}
	}
	flush()

	if len(sections) == 0 {
		return []Section{{
			Lesson: course.Lesson{Number: 0},
			Body:   strings.TrimSpace(text),
		}}, ""
	}
	return sections, strings.TrimSpace(strings.Join(preamble, "\n"))
}

func parseLessonMarker(line string) (course.Lesson, bool) {
	m := lessonRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return course.Lesson{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return course.Lesson{}, false
	}
	return course.Lesson{Number: n, Title: strings.TrimSpace(m[2])}, true
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
