package catalog

import (
	"slices"
	"strings"
	"time"
)

// Curriculum describes how semesters map to terms for one study programme.
type Curriculum struct {
	WinterSemesters   []int    `yaml:"winter_semesters" json:"winter_semesters"`
	SummerSemesters   []int    `yaml:"summer_semesters" json:"summer_semesters"`
	ElectiveSemesters []int    `yaml:"elective_semesters" json:"elective_semesters"`
	ElectiveMarkers   []string `yaml:"elective_markers" json:"elective_markers"`
	WinterMonths      []int    `yaml:"winter_months" json:"winter_months"`
}

// DefaultCurriculum is a seven-semester bachelor starting in winter.
func DefaultCurriculum() Curriculum {
	return Curriculum{
		WinterSemesters:   []int{1, 3, 5, 7},
		SummerSemesters:   []int{2, 4, 6},
		ElectiveSemesters: []int{4, 5},
		ElectiveMarkers:   []string{"W", "K"},
		WinterMonths:      []int{10, 11, 12, 1, 2, 3},
	}
}

// SeasonOf returns the term semester n is taught in.
func (c Curriculum) SeasonOf(n int) Season {
	switch {
	case slices.Contains(c.WinterSemesters, n):
		return SeasonWinter
	case slices.Contains(c.SummerSemesters, n):
		return SeasonSummer
	}
	return SeasonUnknown
}

// TermAt returns the term in progress at t.
func (c Curriculum) TermAt(t time.Time) Season {
	if slices.Contains(c.WinterMonths, int(t.Month())) {
		return SeasonWinter
	}
	return SeasonSummer
}

// IsActive reports whether semester n is taught during the term at t.
// Semesters outside the configured tables are treated as active.
func (c Curriculum) IsActive(n int, t time.Time) bool {
	s := c.SeasonOf(n)
	if s == SeasonUnknown {
		return true
	}
	return s == c.TermAt(t)
}

// IsElective reports whether code carries an elective marker, e.g. "CI_W.03".
func (c Curriculum) IsElective(code string) bool {
	_, rest, ok := strings.Cut(code, "_")
	if !ok {
		return false
	}
	for _, m := range c.ElectiveMarkers {
		if strings.HasPrefix(rest, m+".") {
			return true
		}
	}
	return false
}

// SemestersUpTo returns the semesters of the same term as n that are <= n.
func (c Curriculum) SemestersUpTo(n int) []int {
	var table []int
	switch c.SeasonOf(n) {
	case SeasonWinter:
		table = c.WinterSemesters
	case SeasonSummer:
		table = c.SummerSemesters
	default:
		return []int{n}
	}
	var out []int
	for _, s := range table {
		if s <= n {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return out
}

// SemestersOf returns all semesters taught in season.
func (c Curriculum) SemestersOf(season Season) []int {
	var out []int
	switch season {
	case SeasonWinter:
		out = slices.Clone(c.WinterSemesters)
	case SeasonSummer:
		out = slices.Clone(c.SummerSemesters)
	case SeasonBoth:
		out = append(slices.Clone(c.WinterSemesters), c.SummerSemesters...)
	}
	slices.Sort(out)
	return out
}

// CoversElectives reports whether any of sems is an elective semester.
func (c Curriculum) CoversElectives(sems []int) bool {
	for _, s := range sems {
		if slices.Contains(c.ElectiveSemesters, s) {
			return true
		}
	}
	return false
}

// SemesterOfCode derives the semester from a code such as "CI_3.02".
func SemesterOfCode(code string) (int, bool) {
	_, rest, ok := strings.Cut(code, "_")
	if !ok || rest == "" {
		return 0, false
	}
	if d := rest[0]; d >= '1' && d <= '9' {
		return int(d - '0'), true
	}
	return 0, false
}
