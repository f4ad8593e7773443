package intent

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"campus-advisor/internal/catalog"
)

// RelativeDay is a day named relative to the moment a question is asked.
type RelativeDay string

const (
	Today    RelativeDay = "today"
	Tomorrow RelativeDay = "tomorrow"
)

// Criteria are the parameters a question names explicitly.
type Criteria struct {
	Semester int            `json:"semester,omitempty"`
	Season   catalog.Season `json:"season,omitempty"`
	Day      catalog.Day    `json:"day,omitempty"`
	Relative RelativeDay    `json:"relative_day,omitempty"`
}

var (
	scheduleWords = wordSet("schedule", "timetable", "class", "classes", "when", "time", "timing",
		"today", "tomorrow", "day", "room", "where", "professor", "instructor", "teacher", "block",
		"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday")
	listPhrases = []string{
		"what modules", "which modules", "what subjects", "which subjects", "what courses", "which courses",
		"list of", "list my", "list all", "modules do i have", "subjects do i have", "courses do i have",
		"what do i study", "my modules", "my subjects", "my courses", "curriculum",
	}
	infoPhrases = []string{
		"tell me about", "what is", "what's", "who teaches", "credits", "ects", "prerequisites",
		"prerequisite", "entry requirements", "description", "workload", "content", "objectives", "about",
	}

	ordinals = map[string]int{
		"first": 1, "1st": 1, "second": 2, "2nd": 2, "third": 3, "3rd": 3,
		"fourth": 4, "4th": 4, "fifth": 5, "5th": 5, "sixth": 6, "6th": 6,
		"seventh": 7, "7th": 7, "final": 7,
	}
	semesterNumber = regexp.MustCompile(`\b(?:semester|sem)\.?\s*(\d{1,2})\b|\b(\d{1,2})\s*\.?\s*(?:semester|sem)\b`)
)

func wordSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// words lowercases s and splits it into letter/digit runs. Apostrophes stay
// inside words.
func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// hasPhrase reports whether phrase occurs in the word sequence of text.
func hasPhrase(text, phrase string) bool {
	return strings.Contains(" "+text+" ", " "+phrase+" ")
}

// Classify maps a query to its intent. Rules are evaluated in a fixed
// order: schedule vocabulary, then list requests, then module questions.
// Anything else is General. Classify never fails.
func Classify(query string) Result {
	ws := words(query)
	joined := strings.Join(ws, " ")
	c := ExtractCriteria(query)

	for _, w := range ws {
		if _, ok := scheduleWords[w]; ok {
			return Schedule{c}
		}
	}
	for _, p := range listPhrases {
		if hasPhrase(joined, p) {
			return ModulesList{c}
		}
	}
	for _, p := range infoPhrases {
		if hasPhrase(joined, p) {
			return ModuleInfo{c}
		}
	}
	return General{}
}

// ExtractCriteria finds the semester number, term, weekday and relative day
// a query mentions.
func ExtractCriteria(query string) Criteria {
	var c Criteria
	lower := strings.ToLower(query)

	if m := semesterNumber.FindStringSubmatch(lower); m != nil {
		n, _ := strconv.Atoi(m[1] + m[2])
		c.Semester = n
	}

	for _, w := range words(query) {
		if n, ok := ordinals[w]; ok && c.Semester == 0 {
			c.Semester = n
		}
		switch w {
		case "winter", "wintersemester":
			c.Season = catalog.SeasonWinter
		case "summer", "sommer", "sommersemester":
			c.Season = catalog.SeasonSummer
		case "today", "heute":
			c.Relative = Today
		case "tomorrow", "morgen":
			c.Relative = Tomorrow
		}
		if c.Day == catalog.NoDay && utf8.RuneCountInString(w) >= 6 {
			if d, ok := catalog.ParseDay(w); ok {
				c.Day = d
			}
		}
	}
	return c
}
