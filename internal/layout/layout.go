// Package layout turns extracted page text into candidate lines with simple
// column hints. It holds no state between calls.
package layout

import (
	"regexp"
	"strings"
	"unicode"
)

// Line is one non-empty line of a page.
type Line struct {
	Page   int      // 1-based page number
	Number int      // 1-based line number within the document
	Text   string   // trimmed text with inner whitespace runs collapsed
	Cells  []string // column-like groups separated by wide gaps
}

var cellGap = regexp.MustCompile(`\t+| {2,}`)

// Split splits one page of text. Line numbers start at first.
func Split(page int, text string, first int) []Line {
	var out []Line
	n := first
	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		raw = strings.TrimRightFunc(raw, unicode.IsSpace)
		if strings.TrimSpace(raw) == "" {
			continue
		}
		out = append(out, Line{
			Page:   page,
			Number: n,
			Text:   strings.Join(strings.Fields(raw), " "),
			Cells:  cellsOf(raw),
		})
		n++
	}
	return out
}

// SplitPages splits every page of a document and numbers lines continuously.
func SplitPages(pages []string) []Line {
	var out []Line
	next := 1
	for i, p := range pages {
		lines := Split(i+1, p, next)
		next += len(lines)
		out = append(out, lines...)
	}
	return out
}

func cellsOf(s string) []string {
	parts := cellGap.Split(strings.TrimSpace(s), -1)
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			cells = append(cells, strings.Join(strings.Fields(p), " "))
		}
	}
	return cells
}
