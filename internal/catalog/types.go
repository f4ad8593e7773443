package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Season is the academic term a module is offered in.
type Season string

const (
	SeasonUnknown Season = ""
	SeasonWinter  Season = "winter"
	SeasonSummer  Season = "summer"
	SeasonBoth    Season = "both"
)

// Includes reports whether a module offered in s is taught in term.
func (s Season) Includes(term Season) bool {
	if s == SeasonBoth {
		return term == SeasonWinter || term == SeasonSummer || term == SeasonBoth
	}
	return s != SeasonUnknown && s == term
}

// ParseSeason accepts "winter", "summer" or "both" in any case.
func ParseSeason(s string) (Season, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "winter", "ws", "wise":
		return SeasonWinter, nil
	case "summer", "ss", "sose":
		return SeasonSummer, nil
	case "both":
		return SeasonBoth, nil
	case "":
		return SeasonUnknown, nil
	}
	return SeasonUnknown, fmt.Errorf("unknown season %q", s)
}

// Day is a day of the week. The zero value means "not specified".
type Day int

const (
	NoDay Day = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayNames = [...]string{"", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

var dayAliases = map[string]Day{
	"monday": Monday, "mon": Monday, "montag": Monday, "mo": Monday,
	"tuesday": Tuesday, "tue": Tuesday, "tues": Tuesday, "dienstag": Tuesday, "di": Tuesday,
	"wednesday": Wednesday, "wed": Wednesday, "mittwoch": Wednesday, "mi": Wednesday,
	"thursday": Thursday, "thu": Thursday, "thurs": Thursday, "donnerstag": Thursday, "do": Thursday,
	"friday": Friday, "fri": Friday, "freitag": Friday, "fr": Friday,
	"saturday": Saturday, "sat": Saturday, "samstag": Saturday, "sa": Saturday,
	"sunday": Sunday, "sun": Sunday, "sonntag": Sunday, "so": Sunday,
}

// ParseDay maps English or German day names and common abbreviations to a Day.
func ParseDay(s string) (Day, bool) {
	d, ok := dayAliases[strings.ToLower(strings.Trim(strings.TrimSpace(s), ".,:"))]
	return d, ok
}

// DayOf converts a time.Weekday.
func DayOf(w time.Weekday) Day {
	if w == time.Sunday {
		return Sunday
	}
	return Day(w)
}

// Valid reports whether d names an actual weekday.
func (d Day) Valid() bool {
	return d >= Monday && d <= Sunday
}

// Next returns the following weekday.
func (d Day) Next() Day {
	if !d.Valid() {
		return NoDay
	}
	if d == Sunday {
		return Monday
	}
	return d + 1
}

func (d Day) String() string {
	if !d.Valid() {
		return ""
	}
	return dayNames[d]
}

func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Day) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = NoDay
		return nil
	}
	parsed, ok := ParseDay(s)
	if !ok {
		return fmt.Errorf("unknown day %q", s)
	}
	*d = parsed
	return nil
}

// Clock is a time of day in minutes after midnight.
type Clock int

// ParseClock parses "HH:MM" or "HH.MM".
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	sep := strings.IndexAny(s, ":.")
	if sep <= 0 || sep == len(s)-1 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	h, err := strconv.Atoi(s[:sep])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	m, err := strconv.Atoi(s[sep+1:])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time out of range %q", s)
	}
	return Clock(h*60 + m), nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Clock) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ClassType is the teaching format of a scheduled session.
type ClassType string

const (
	ClassUnspecified ClassType = ""
	ClassLecture     ClassType = "lecture"
	ClassExercise    ClassType = "exercise"
	ClassLab         ClassType = "lab"
	ClassCombined    ClassType = "combined"
)

// ModuleRecord is one module from the module handbook.
type ModuleRecord struct {
	Code          string   `json:"code"`
	Name          string   `json:"name"`
	Credits       int      `json:"credits"`
	Semesters     []int    `json:"semester_numbers"`
	Season        Season   `json:"season"`
	Prerequisites []string `json:"prerequisites"`
	Content       string   `json:"content_text"`
	Source        string   `json:"source,omitempty"`
}

// OfferedIn reports whether the module lists semester n.
func (m ModuleRecord) OfferedIn(n int) bool {
	for _, s := range m.Semesters {
		if s == n {
			return true
		}
	}
	return false
}

// ScheduleEntry is one weekly session from a class schedule.
// ModuleCode is empty when the entry could not be matched to a known module.
type ScheduleEntry struct {
	ID           string    `json:"id"`
	ModuleCode   string    `json:"module_code,omitempty"`
	CourseNumber string    `json:"course_number,omitempty"`
	ModuleName   string    `json:"module_name"`
	Semester     int       `json:"semester,omitempty"`
	Day          Day       `json:"day"`
	Start        Clock     `json:"start_time"`
	End          Clock     `json:"end_time"`
	Professor    string    `json:"professor"`
	Room         string    `json:"room"`
	RoomCode     string    `json:"room_code,omitempty"`
	ClassType    ClassType `json:"class_type,omitempty"`
	BlockDates   []string  `json:"block_dates,omitempty"`
	Source       string    `json:"source,omitempty"`
	Line         int       `json:"line,omitempty"`
}

// Matched reports whether the entry references a known module.
func (e ScheduleEntry) Matched() bool {
	return e.ModuleCode != ""
}

// Validate checks the mandatory fields.
func (e ScheduleEntry) Validate() error {
	if !e.Day.Valid() {
		return fmt.Errorf("missing day")
	}
	if e.Start >= e.End {
		return fmt.Errorf("start %s not before end %s", e.Start, e.End)
	}
	return nil
}

// NormalizeName lowercases s and collapses everything that is not a letter
// or digit into single spaces.
func NormalizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}
