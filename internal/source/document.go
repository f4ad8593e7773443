// Package source discovers, loads and watches the raw documents the catalog
// is built from: module handbooks, class schedules and general material.
package source

import (
	"path/filepath"
	"strings"
)

// Kind tells the ingestion pipeline which extractor a document feeds.
type Kind string

const (
	KindHandbook Kind = "handbook"
	KindSchedule Kind = "schedule"
	KindGeneral  Kind = "general"
)

var kindHints = []struct {
	kind  Kind
	words []string
}{
	{KindHandbook, []string{"handbook", "handbuch", "modulhandbuch", "module_catalog", "modules"}},
	{KindSchedule, []string{"schedule", "stundenplan", "timetable", "vorlesungsplan"}},
}

// Classify derives a document's kind from its file name.
func Classify(path string) Kind {
	name := strings.ToLower(filepath.Base(path))
	for _, h := range kindHints {
		for _, w := range h.words {
			if strings.Contains(name, w) {
				return h.kind
			}
		}
	}
	return KindGeneral
}

// Document is the plain text of one source file, page by page.
type Document struct {
	Name  string   // path relative to the data directory, slash separated
	Kind  Kind     // extractor selection
	Path  string   // absolute path
	Hash  string   // sha256 of the raw file content
	Pages []string // extracted text, one element per page
}

// Text joins all pages with form feeds.
func (d Document) Text() string {
	return strings.Join(d.Pages, "\f")
}

// Failure records a document that could not be loaded.
type Failure struct {
	Path string
	Err  error
}

func (f Failure) Error() string {
	return f.Path + ": " + f.Err.Error()
}

func (f Failure) Unwrap() error {
	return f.Err
}
