package extract

import (
	"context"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"campus-advisor/internal/catalog"
	"campus-advisor/internal/contextutil"
	"campus-advisor/internal/layout"
)

var (
	tocLeader      = regexp.MustCompile(`\.+\s*\d+$`)
	tableStats     = regexp.MustCompile(`^\d\s+[A-Z]\s+\d`)
	trailingDigits = regexp.MustCompile(`\d+$`)
	creditsAfter   = regexp.MustCompile(`(?i)\b(\d{1,2})\s*(?:CP|ECTS|credits?|LP)\b`)
	creditsBefore  = regexp.MustCompile(`(?i)\b(?:CP|ECTS|credits?|credit points)\s*:?\s*(\d{1,2})\b`)
	semesterField  = regexp.MustCompile(`(?i)\bsemesters?\s*:?\s*(\d(?:\s*(?:,|and|or|/|-|&)\s*\d)*)\b`)
	semesterOrd    = regexp.MustCompile(`(?i)\b(\d)\.\s*(?:and\s+(\d)\.\s*)?semester\b`)
	frequencyLine  = regexp.MustCompile(`(?i)(frequency|offered|turnus|angebot|duration and frequency)`)
	prereqLine     = regexp.MustCompile(`(?i)(prerequisite|entry requirement|requirements for participation|recommended prior|formal requirement)`)
	fieldLabel     = regexp.MustCompile(`(?i)^(workload|credits|ects|cp|semester|frequency|duration|module|code|type|contact|self|language|exam|examination|learning|content|prerequisite|entry|teaching|responsible|lecturer|course|usability|weight|literature)\b`)
)

// HandbookExtractor turns a module handbook's line stream into module records.
type HandbookExtractor struct {
	vocab      *compiledVocabulary
	curriculum catalog.Curriculum
}

// NewHandbookExtractor compiles the vocabulary. The curriculum fills in
// semesters and seasons the handbook does not state.
func NewHandbookExtractor(v Vocabulary, c catalog.Curriculum) (*HandbookExtractor, error) {
	cv, err := v.compile()
	if err != nil {
		return nil, err
	}
	return &HandbookExtractor{vocab: cv, curriculum: c}, nil
}

type moduleDraft struct {
	code     string
	name     string
	line     int
	nameOpen bool
	body     []string
}

// Extract runs the header state machine. Each header starts a module whose
// content runs until the next header or the end of input.
func (x *HandbookExtractor) Extract(ctx context.Context, doc string, lines []layout.Line) ([]catalog.ModuleRecord, []Issue) {
	logger := contextutil.LoggerFromContext(ctx)

	var (
		records []catalog.ModuleRecord
		issues  []Issue
		seen    = make(map[string]int)
		cur     *moduleDraft
	)

	emit := func() {
		if cur == nil {
			return
		}
		d := cur
		cur = nil
		rec, err := x.build(doc, d)
		if err != "" {
			issues = append(issues, Issue{Kind: KindIncompleteRecord, Document: doc, Line: d.line, Text: d.code, Reason: err})
			return
		}
		if i, dup := seen[rec.Code]; dup {
			issues = append(issues, Issue{Kind: KindDuplicateModule, Document: doc, Line: d.line, Text: rec.Code, Reason: "content merged into first definition"})
			records[i].Content += "\n" + rec.Content
			return
		}
		seen[rec.Code] = len(records)
		records = append(records, rec)
	}

	for _, l := range lines {
		text := l.Text
		if x.vocab.isFooter(text) {
			continue
		}
		if m := x.vocab.moduleCode.FindStringSubmatch(text); m != nil && x.validHeader(text, m[2]) {
			emit()
			name := strings.TrimSpace(m[2])
			cur = &moduleDraft{
				code:     m[1],
				name:     name,
				line:     l.Number,
				nameOpen: x.vocab.endsWithConnector(name),
			}
			continue
		}
		if cur == nil {
			continue
		}
		if cur.nameOpen && x.isNameContinuation(text) {
			cur.name += " " + text
			cur.nameOpen = x.vocab.endsWithConnector(cur.name)
			continue
		}
		cur.nameOpen = false
		cur.body = append(cur.body, text)
	}
	emit()

	for _, is := range issues {
		logger.DebugContext(ctx, "handbook record discarded", "document", doc, "kind", is.Kind, "line", is.Line, "reason", is.Reason)
	}
	logger.InfoContext(ctx, "handbook extracted", "document", doc, "modules", len(records), "issues", len(issues))
	return records, issues
}

// validHeader rejects table-of-contents lines, table rows and prose that
// happen to start with a module code.
func (x *HandbookExtractor) validHeader(line, name string) bool {
	name = strings.TrimSpace(name)
	if tocLeader.MatchString(strings.TrimSpace(line)) {
		return false
	}
	for _, re := range x.vocab.rejects {
		if re.MatchString(name) {
			return false
		}
	}
	if tableStats.MatchString(name) {
		return false
	}
	first, _ := utf8.DecodeRuneInString(name)
	if unicode.IsLower(first) || strings.ContainsRune(`"“’'`, first) {
		return false
	}
	if utf8.RuneCountInString(name) < 5 {
		return false
	}
	return !trailingDigits.MatchString(name)
}

func (x *HandbookExtractor) isNameContinuation(text string) bool {
	if x.vocab.moduleCode.MatchString(text) || fieldLabel.MatchString(text) {
		return false
	}
	first, _ := utf8.DecodeRuneInString(text)
	if !unicode.IsUpper(first) {
		return false
	}
	if utf8.RuneCountInString(text) > 60 || strings.HasSuffix(text, ".") || strings.HasSuffix(text, ":") {
		return false
	}
	return !trailingDigits.MatchString(text)
}

func (x *HandbookExtractor) build(doc string, d *moduleDraft) (catalog.ModuleRecord, string) {
	name := strings.Join(strings.Fields(d.name), " ")
	if name == "" {
		return catalog.ModuleRecord{}, "missing module name"
	}
	rec := catalog.ModuleRecord{
		Code:    d.code,
		Name:    name,
		Source:  doc,
		Content: strings.Join(append([]string{d.code + " " + name}, d.body...), "\n"),
	}
	rec.Credits = parseCredits(d.body)
	rec.Semesters = x.parseSemesters(d.code, d.body)
	rec.Season = x.parseSeason(d.body, rec.Semesters)
	rec.Prerequisites = x.parsePrerequisites(d.code, d.body)
	return rec, ""
}

func parseCredits(body []string) int {
	for _, line := range body {
		for _, re := range []*regexp.Regexp{creditsBefore, creditsAfter} {
			if m := re.FindStringSubmatch(line); m != nil {
				if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
					return n
				}
			}
		}
	}
	return 0
}

func (x *HandbookExtractor) parseSemesters(code string, body []string) []int {
	var sems []int
	add := func(s string) {
		for _, r := range s {
			if r >= '1' && r <= '9' {
				n := int(r - '0')
				if !slices.Contains(sems, n) {
					sems = append(sems, n)
				}
			}
		}
	}
	for _, line := range body {
		if m := semesterField.FindStringSubmatch(line); m != nil {
			add(m[1])
			break
		}
		if m := semesterOrd.FindStringSubmatch(line); m != nil {
			add(m[1] + m[2])
			break
		}
	}
	if len(sems) == 0 {
		if n, ok := catalog.SemesterOfCode(code); ok {
			sems = []int{n}
		} else if x.curriculum.IsElective(code) {
			sems = slices.Clone(x.curriculum.ElectiveSemesters)
		}
	}
	slices.Sort(sems)
	return sems
}

func (x *HandbookExtractor) parseSeason(body []string, sems []int) catalog.Season {
	for _, line := range body {
		if !frequencyLine.MatchString(line) {
			continue
		}
		lower := strings.ToLower(line)
		winter := strings.Contains(lower, "winter")
		summer := strings.Contains(lower, "summer") || strings.Contains(lower, "sommer")
		switch {
		case winter && summer, strings.Contains(lower, "every semester"), strings.Contains(lower, "each semester"):
			return catalog.SeasonBoth
		case winter:
			return catalog.SeasonWinter
		case summer:
			return catalog.SeasonSummer
		}
	}

	season := catalog.SeasonUnknown
	for _, s := range sems {
		switch got := x.curriculum.SeasonOf(s); {
		case got == catalog.SeasonUnknown:
		case season == catalog.SeasonUnknown:
			season = got
		case season != got:
			return catalog.SeasonBoth
		}
	}
	return season
}

func (x *HandbookExtractor) parsePrerequisites(code string, body []string) []string {
	var out []string
	for i, line := range body {
		if !prereqLine.MatchString(line) {
			continue
		}
		window := line
		if i+1 < len(body) {
			window += " " + body[i+1]
		}
		for _, c := range x.vocab.codeToken.FindAllString(window, -1) {
			if c != code && !slices.Contains(out, c) {
				out = append(out, c)
			}
		}
	}
	slices.Sort(out)
	return out
}
