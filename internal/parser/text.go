package parser

import (
	"io"
	"strings"
)

// TextParser handles plain text files. CRLF line breaks and a leading
// byte order mark are normalized away; everything else is passed through.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s := strings.ReplaceAll(string(b), "\r\n", "\n")
	return strings.TrimPrefix(s, "\uFEFF"), nil
}
