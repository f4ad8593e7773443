package rag

import (
	"campus-advisor/internal/catalog"
	"campus-advisor/internal/intent"
	"campus-advisor/internal/resolver"
	"campus-advisor/internal/retrieval"
)

// Source names the component that produced a bundle's payload.
type Source string

const (
	// SourceStructured is an exact Entity Index lookup.
	SourceStructured Source = "structured"
	// SourceRetrieval is hybrid document retrieval.
	SourceRetrieval Source = "retrieval"
	// SourceNone means nothing was looked up, see Bundle.Reason.
	SourceNone Source = "none"
)

// Reason explains why a bundle is empty.
type Reason string

const (
	ReasonSemesterRequired    Reason = "semester_required"
	ReasonSemesterNotInSeason Reason = "semester_not_in_season"
	ReasonNoScheduleForModule Reason = "no_schedule_for_module"
	ReasonNoClassesOnDay      Reason = "no_classes_on_day"
	ReasonNoModulesFound      Reason = "no_modules_found"
	ReasonNoDocumentsFound    Reason = "no_documents_found"
)

// Bundle is the context handed to the generation backend for one question.
// Empty is always serialized so callers can tell "no data" from a payload.
type Bundle struct {
	// Intent is the classification that drove the lookup.
	Intent intent.Result `json:"intent"`
	// Source is the component that produced the payload.
	Source Source `json:"source"`
	// Module is the module the question resolved to, if any.
	Module *resolver.Match `json:"module,omitempty"`
	// Semester is the semester the lookup used, possibly taken from history.
	Semester int `json:"semester,omitempty"`
	// Day is the weekday of a schedule lookup.
	Day catalog.Day `json:"day,omitempty"`
	// Term is the term in progress when the semester is out of season.
	Term catalog.Season `json:"term,omitempty"`

	Modules  []catalog.ModuleRecord  `json:"modules,omitempty"`
	Schedule []catalog.ScheduleEntry `json:"schedule,omitempty"`
	Chunks   []retrieval.Fused       `json:"chunks,omitempty"`

	Empty  bool   `json:"empty"`
	Reason Reason `json:"reason,omitempty"`
}

// markEmpty flags the bundle as carrying no data.
func (b *Bundle) markEmpty(r Reason) {
	b.Empty = true
	b.Reason = r
}
