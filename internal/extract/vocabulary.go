package extract

import (
	"fmt"
	"regexp"
	"strings"

	"campus-advisor/internal/catalog"
)

// ClassTypeCode maps a schedule abbreviation to a class type.
type ClassTypeCode struct {
	Code string            `yaml:"code" json:"code"`
	Type catalog.ClassType `yaml:"type" json:"type"`
}

// Vocabulary holds the document-specific words and patterns the extractors
// recognize. It is loaded from the curriculum profile.
type Vocabulary struct {
	ModuleCodePattern string          `yaml:"module_code_pattern"`
	ClassTypes        []ClassTypeCode `yaml:"class_types"`
	RoomKeywords      []string        `yaml:"room_keywords"`
	ProfessorTitles   []string        `yaml:"professor_titles"`
	MetadataWords     []string        `yaml:"metadata_words"`
	FooterPatterns    []string        `yaml:"footer_patterns"`
	HeaderRejectWords []string        `yaml:"header_reject_words"`
	NameConnectors    []string        `yaml:"name_connectors"`
}

// DefaultVocabulary matches the university's handbook and schedule exports.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		ModuleCodePattern: `^([A-Z]{1,4}_[WK\d]\.\d{2})\s+(.+)$`,
		ClassTypes: []ClassTypeCode{
			{Code: "L&E", Type: catalog.ClassCombined},
			{Code: "L", Type: catalog.ClassLecture},
			{Code: "E", Type: catalog.ClassExercise},
			{Code: "P", Type: catalog.ClassLab},
			{Code: "PT", Type: catalog.ClassLab},
			{Code: "SL", Type: catalog.ClassCombined},
		},
		RoomKeywords: []string{
			"Hörsaal", "Seminarraum", "E-Technik Labor", "Labor", "Cloud Resilience Lab",
			"IOT Lab", "RAG", "d i g i t a l / o n l i n e", "digital/online", "tba",
		},
		ProfessorTitles: []string{"Prof.", "Dr.", "Mr.", "Ms.", "Mrs.", "Dipl."},
		MetadataWords:   []string{"Start:", "biweekly", "weekly", "Gruppe"},
		FooterPatterns: []string{
			`\bSEITE\b`,
			`\bVON\b`,
			`(?i)^seite\s+\d+\s+von\s+\d+$`,
			`(?i)^page\s+\d+\s+of\s+\d+$`,
		},
		HeaderRejectWords: []string{
			"150 h", "300 h", "CP", "semester", "Workload", "Duration", "Code",
			"ECTS", "SWS", "Exam", "graded", "written",
		},
		NameConnectors: []string{"and", "of", "for", "in", "the", "with", "to", "&", "-", ",", ":"},
	}
}

type compiledVocabulary struct {
	Vocabulary
	moduleCode *regexp.Regexp
	codeToken  *regexp.Regexp
	footers    []*regexp.Regexp
	rejects    []*regexp.Regexp
}

func (v Vocabulary) compile() (*compiledVocabulary, error) {
	cv := &compiledVocabulary{Vocabulary: v}

	var err error
	cv.moduleCode, err = regexp.Compile(v.ModuleCodePattern)
	if err != nil {
		return nil, fmt.Errorf("invalid module code pattern: %w", err)
	}
	if cv.moduleCode.NumSubexp() < 2 {
		return nil, fmt.Errorf("module code pattern needs a code group and a name group")
	}
	// The code group alone, anchored on word boundaries, finds references in prose.
	codeExpr := strings.TrimPrefix(v.ModuleCodePattern, "^")
	if end := strings.Index(codeExpr, `\s`); end > 0 {
		codeExpr = codeExpr[:end]
	}
	cv.codeToken, err = regexp.Compile(`\b` + codeExpr + `\b`)
	if err != nil {
		return nil, fmt.Errorf("invalid module code pattern: %w", err)
	}

	for _, p := range v.FooterPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid footer pattern %q: %w", p, err)
		}
		cv.footers = append(cv.footers, re)
	}
	for _, w := range v.HeaderRejectWords {
		cv.rejects = append(cv.rejects, regexp.MustCompile(`(^|[^\pL\pN])`+regexp.QuoteMeta(w)+`($|[^\pL\pN])`))
	}
	return cv, nil
}

func (cv *compiledVocabulary) isFooter(s string) bool {
	for _, re := range cv.footers {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func (cv *compiledVocabulary) isMetadata(s string) bool {
	for _, w := range cv.MetadataWords {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func (cv *compiledVocabulary) hasTitlePrefix(s string) bool {
	for _, t := range cv.ProfessorTitles {
		if strings.HasPrefix(s, t) {
			return true
		}
	}
	return false
}

// titleIndex returns the position of the first professor title that starts a word.
func (cv *compiledVocabulary) titleIndex(s string) int {
	best := -1
	for _, t := range cv.ProfessorTitles {
		for from := 0; from < len(s); {
			i := strings.Index(s[from:], t)
			if i < 0 {
				break
			}
			i += from
			if i == 0 || s[i-1] == ' ' {
				if best < 0 || i < best {
					best = i
				}
				break
			}
			from = i + len(t)
		}
	}
	return best
}

// roomIndex returns the position and keyword of the earliest room keyword
// that starts a word.
func (cv *compiledVocabulary) roomIndex(s string) (int, string) {
	best, kw := -1, ""
	for _, k := range cv.RoomKeywords {
		i := strings.Index(s, k)
		if i < 0 || (i > 0 && s[i-1] != ' ') {
			continue
		}
		if best < 0 || i < best || (i == best && len(k) > len(kw)) {
			best, kw = i, k
		}
	}
	return best, kw
}

func (cv *compiledVocabulary) classType(s string) (catalog.ClassType, bool) {
	for _, ct := range cv.ClassTypes {
		if s == ct.Code {
			return ct.Type, true
		}
	}
	return catalog.ClassUnspecified, false
}

// splitClassType finds the earliest class type code surrounded by spaces.
func (cv *compiledVocabulary) splitClassType(s string) (before string, ct catalog.ClassType, after string, ok bool) {
	padded := s + " "
	best, bestLen := -1, 0
	for _, c := range cv.ClassTypes {
		i := strings.Index(padded, " "+c.Code+" ")
		if i < 0 {
			continue
		}
		if best < 0 || i < best || (i == best && len(c.Code) > bestLen) {
			best, bestLen, ct = i, len(c.Code), c.Type
		}
	}
	if best < 0 {
		return s, catalog.ClassUnspecified, "", false
	}
	before = strings.TrimSpace(padded[:best])
	after = strings.TrimSpace(padded[best+bestLen+2:])
	return before, ct, after, true
}

func (cv *compiledVocabulary) endsWithConnector(name string) bool {
	name = strings.TrimSpace(name)
	for _, c := range cv.NameConnectors {
		if len(c) == 1 && !isWordChar(rune(c[0])) {
			if strings.HasSuffix(name, c) {
				return true
			}
			continue
		}
		if strings.HasSuffix(strings.ToLower(name), " "+c) {
			return true
		}
	}
	return false
}

func isWordChar(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}
