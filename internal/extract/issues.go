package extract

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Kind classifies a non-fatal ingestion problem.
type Kind string

const (
	// KindUnparsableLine marks a line that fits no known pattern.
	KindUnparsableLine Kind = "unparsable_line"
	// KindIncompleteRecord marks a record finalized without its mandatory fields.
	KindIncompleteRecord Kind = "incomplete_record"
	// KindDuplicateModule marks a repeated module code; the first definition wins.
	KindDuplicateModule Kind = "duplicate_module"
	// KindFailedDocument marks a document that could not be loaded or parsed.
	KindFailedDocument Kind = "failed_document"
)

// Issue is one discarded line, record or document.
type Issue struct {
	Kind     Kind   `json:"kind"`
	Document string `json:"document"`
	Line     int    `json:"line,omitempty"`
	Text     string `json:"text,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

func (i Issue) Error() string {
	var b strings.Builder
	b.WriteString(string(i.Kind))
	b.WriteString(": ")
	b.WriteString(i.Document)
	if i.Line > 0 {
		fmt.Fprintf(&b, ":%d", i.Line)
	}
	if i.Reason != "" {
		b.WriteString(": ")
		b.WriteString(i.Reason)
	}
	if i.Text != "" {
		fmt.Fprintf(&b, " (%q)", i.Text)
	}
	return b.String()
}

// Summary counts issues per kind.
type Summary map[Kind]int

// Summarize counts the given issues.
func Summarize(issues []Issue) Summary {
	s := Summary{}
	for _, i := range issues {
		s[i.Kind]++
	}
	return s
}

// Merge adds the counts of other into s.
func (s Summary) Merge(other Summary) {
	for k, n := range other {
		s[k] += n
	}
}

// Total returns the number of issues of all kinds.
func (s Summary) Total() int {
	total := 0
	for _, n := range s {
		total += n
	}
	return total
}

func (s Summary) String() string {
	if len(s) == 0 {
		return "no issues"
	}
	parts := make([]string, 0, len(s))
	for _, k := range slices.Sorted(maps.Keys(s)) {
		parts = append(parts, fmt.Sprintf("%s=%d", k, s[k]))
	}
	return strings.Join(parts, " ")
}
