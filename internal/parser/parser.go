// Package parser extracts plain text from course documents so the course
// parser sees the same line-oriented layout whatever the source format.
package parser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for file extensions with no reader.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrTooLarge is returned when a file exceeds Options.MaxBytes.
	ErrTooLarge = errors.New("document too large")
)

// Parser converts raw document bytes into plain text, one logical line per
// heading or paragraph.
type Parser interface {
	Parse(r io.Reader, filename string) (string, error)
}

// Options tune the readers.
type Options struct {
	PDFFallbackPdftotext bool
	MaxBytes             int64 // 0 means unlimited.
}

// SupportedExtensions lists file extensions that can be ingested.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the reader for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// ReadFile opens path and extracts its text with the matching reader.
func ReadFile(path string, opts Options) (string, error) {
	p, err := ForFile(path, opts)
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	if opts.MaxBytes > 0 {
		info, err := f.Stat()
		if err != nil {
			return "", fmt.Errorf("stat document: %w", err)
		}
		if info.Size() > opts.MaxBytes {
			return "", fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, info.Size(), opts.MaxBytes)
		}
	}

	text, err := p.Parse(f, filepath.Base(path))
	if err != nil {
		return "", err
	}
	return text, nil
}

// joinLines drops blank lines and joins the rest with newlines.
func joinLines(lines []string) string {
	out := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
