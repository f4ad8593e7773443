package catalog

import (
	"cmp"
	"encoding/json"
	"slices"
)

// Index is the read-only entity index built once per ingestion run.
// All methods are safe for concurrent use; returned values must not be modified.
type Index struct {
	modules    map[string]ModuleRecord
	codes      []string
	byName     map[string]string
	schedule   map[string][]ScheduleEntry
	unmatched  []ScheduleEntry
	entries    []ScheduleEntry
	duplicates []string
}

// Layout is the persisted logical shape of an Index.
type Layout struct {
	Modules   map[string]ModuleRecord    `json:"modules"`
	Schedule  map[string][]ScheduleEntry `json:"schedule"`
	Unmatched []ScheduleEntry            `json:"unmatched,omitempty"`
}

// NewIndex builds an index. When a code appears more than once the first
// record wins and the code is reported by Duplicates.
func NewIndex(modules []ModuleRecord, entries []ScheduleEntry) *Index {
	idx := &Index{
		modules:  make(map[string]ModuleRecord, len(modules)),
		byName:   make(map[string]string, len(modules)),
		schedule: make(map[string][]ScheduleEntry),
	}
	for _, m := range modules {
		if _, ok := idx.modules[m.Code]; ok {
			idx.duplicates = append(idx.duplicates, m.Code)
			continue
		}
		idx.modules[m.Code] = m
		idx.codes = append(idx.codes, m.Code)
		if key := NormalizeName(m.Name); key != "" {
			if _, taken := idx.byName[key]; !taken {
				idx.byName[key] = m.Code
			}
		}
	}
	slices.Sort(idx.codes)

	idx.entries = slices.Clone(entries)
	slices.SortStableFunc(idx.entries, compareEntries)
	for _, e := range idx.entries {
		if e.ModuleCode == "" {
			idx.unmatched = append(idx.unmatched, e)
			continue
		}
		idx.schedule[e.ModuleCode] = append(idx.schedule[e.ModuleCode], e)
	}
	return idx
}

func compareEntries(a, b ScheduleEntry) int {
	return cmp.Or(
		cmp.Compare(a.Semester, b.Semester),
		cmp.Compare(a.Day, b.Day),
		cmp.Compare(a.Start, b.Start),
		cmp.Compare(a.ModuleCode, b.ModuleCode),
		cmp.Compare(a.ID, b.ID),
	)
}

// FromLayout rebuilds an index from its persisted shape.
func FromLayout(l Layout) *Index {
	modules := make([]ModuleRecord, 0, len(l.Modules))
	for _, m := range l.Modules {
		modules = append(modules, m)
	}
	slices.SortFunc(modules, func(a, b ModuleRecord) int { return cmp.Compare(a.Code, b.Code) })
	var entries []ScheduleEntry
	for _, list := range l.Schedule {
		entries = append(entries, list...)
	}
	entries = append(entries, l.Unmatched...)
	return NewIndex(modules, entries)
}

// Layout returns the persisted shape: modules keyed by code and schedule
// entries keyed by module code in order.
func (idx *Index) Layout() Layout {
	l := Layout{
		Modules:   make(map[string]ModuleRecord, len(idx.modules)),
		Schedule:  make(map[string][]ScheduleEntry, len(idx.schedule)),
		Unmatched: slices.Clone(idx.unmatched),
	}
	for code, m := range idx.modules {
		l.Modules[code] = m
	}
	for code, list := range idx.schedule {
		l.Schedule[code] = slices.Clone(list)
	}
	return l
}

// MarshalJSON encodes the index as its Layout.
func (idx *Index) MarshalJSON() ([]byte, error) {
	return json.Marshal(idx.Layout())
}

// Module returns the record for code.
func (idx *Index) Module(code string) (ModuleRecord, bool) {
	m, ok := idx.modules[code]
	return m, ok
}

// Modules returns all modules ordered by code.
func (idx *Index) Modules() []ModuleRecord {
	out := make([]ModuleRecord, 0, len(idx.codes))
	for _, c := range idx.codes {
		out = append(out, idx.modules[c])
	}
	return out
}

// Len returns the number of modules.
func (idx *Index) Len() int {
	return len(idx.codes)
}

// Names maps each module name to its code.
func (idx *Index) Names() map[string]string {
	out := make(map[string]string, len(idx.modules))
	for code, m := range idx.modules {
		out[m.Name] = code
	}
	return out
}

// Duplicates lists codes that were defined more than once.
func (idx *Index) Duplicates() []string {
	return slices.Clone(idx.duplicates)
}

// ResolveCode returns the known module code for a schedule reference, trying
// the raw code first and then the exact normalized name. It returns "" when
// neither matches.
func (idx *Index) ResolveCode(raw, name string) string {
	if _, ok := idx.modules[raw]; ok && raw != "" {
		return raw
	}
	if code, ok := idx.byName[NormalizeName(name)]; ok {
		return code
	}
	return ""
}

// ScheduleFor returns the sessions of a module in chronological order.
func (idx *Index) ScheduleFor(code string) []ScheduleEntry {
	return slices.Clone(idx.schedule[code])
}

// Entries returns every schedule entry, matched or not.
func (idx *Index) Entries() []ScheduleEntry {
	return slices.Clone(idx.entries)
}

// Unmatched returns entries without a module reference.
func (idx *Index) Unmatched() []ScheduleEntry {
	return slices.Clone(idx.unmatched)
}

// EntriesOn returns the sessions of a semester on a day. A zero semester
// matches every semester.
func (idx *Index) EntriesOn(semester int, day Day) []ScheduleEntry {
	var out []ScheduleEntry
	for _, e := range idx.entries {
		if e.Day != day {
			continue
		}
		if semester != 0 && e.Semester != semester {
			continue
		}
		out = append(out, e)
	}
	return out
}

// ModulesFor lists modules for a study position. With a semester it returns
// the cumulative same-term modules up to that semester, adding electives when
// the range reaches an elective semester. With only a season it returns every
// module of that term.
func (idx *Index) ModulesFor(c Curriculum, semester int, season Season) []ModuleRecord {
	var sems []int
	switch {
	case semester > 0:
		sems = c.SemestersUpTo(semester)
	case season != SeasonUnknown:
		sems = c.SemestersOf(season)
	default:
		return nil
	}
	electives := c.CoversElectives(sems)

	var out []ModuleRecord
	for _, code := range idx.codes {
		m := idx.modules[code]
		if c.IsElective(code) {
			if electives {
				out = append(out, m)
			}
			continue
		}
		for _, s := range sems {
			if m.OfferedIn(s) {
				out = append(out, m)
				break
			}
		}
	}
	return out
}
