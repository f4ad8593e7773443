package extract

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"campus-advisor/internal/catalog"
	"campus-advisor/internal/contextutil"
	"campus-advisor/internal/layout"
)

var (
	semesterMarker = regexp.MustCompile(`(?i)\b(\d)\.\s*Semester\b`)
	entryStart     = regexp.MustCompile(`^(\d{1,2}[:.]\d{2})\s*[-–]?\s*(\d{1,2}[:.]\d{2})(?:\s+(\d{4}))?(?:\s+(.*))?$`)
	roomCode       = regexp.MustCompile(`\b(\d{1,2})\s+(\d{2})\s+(\d{3})\b`)
	roomCodeOnly   = regexp.MustCompile(`^\d{1,2}\s+\d{2}\s+\d{3}$`)
	blockCourse    = regexp.MustCompile(`(?i)^Block\s*course:?\s*(.*)$`)
	dateList       = regexp.MustCompile(`^[\d.,\s]+$`)
)

// CodeResolver maps a schedule's course reference to a known module code.
type CodeResolver interface {
	ResolveCode(raw, name string) string
}

// ScheduleExtractor turns a class schedule's line stream into entries.
type ScheduleExtractor struct {
	vocab *compiledVocabulary
}

// NewScheduleExtractor compiles the vocabulary.
func NewScheduleExtractor(v Vocabulary) (*ScheduleExtractor, error) {
	cv, err := v.compile()
	if err != nil {
		return nil, err
	}
	return &ScheduleExtractor{vocab: cv}, nil
}

type field int

const (
	fieldName field = iota
	fieldProfessor
	fieldRoom
)

// parserState is the in-progress entry. It never leaves Extract.
type parserState struct {
	entry   catalog.ScheduleEntry
	rawCode string
	cursor  field
	hyphen  bool
	inBlock bool
}

type scheduleRun struct {
	x        *ScheduleExtractor
	doc      string
	resolver CodeResolver
	semester int
	day      catalog.Day
	pending  *parserState
	entries  []catalog.ScheduleEntry
	issues   []Issue
}

// Extract runs the state machine over lines. Entries missing mandatory
// fields and lines that fit no pattern are reported as issues, never as errors.
func (x *ScheduleExtractor) Extract(ctx context.Context, doc string, lines []layout.Line, resolver CodeResolver) ([]catalog.ScheduleEntry, []Issue) {
	logger := contextutil.LoggerFromContext(ctx)
	run := &scheduleRun{x: x, doc: doc, resolver: resolver}

	for _, l := range lines {
		run.step(l)
	}
	run.finalize()

	for _, is := range run.issues {
		logger.DebugContext(ctx, "schedule line discarded", "document", doc, "kind", is.Kind, "line", is.Line, "reason", is.Reason)
	}
	logger.InfoContext(ctx, "schedule extracted", "document", doc, "entries", len(run.entries), "issues", len(run.issues))
	return run.entries, run.issues
}

func (r *scheduleRun) step(l layout.Line) {
	text := l.Text
	v := r.x.vocab

	if v.isFooter(text) {
		return
	}
	if m := semesterMarker.FindStringSubmatch(text); m != nil {
		r.finalize()
		r.semester, _ = strconv.Atoi(m[1])
		return
	}
	if d, ok := dayMarker(text); ok {
		r.finalize()
		r.day = d
		return
	}
	if m := entryStart.FindStringSubmatch(text); m != nil {
		r.finalize()
		r.seed(l, m)
		return
	}

	if r.pending == nil {
		if roomCodeOnly.MatchString(text) || v.isMetadata(text) {
			return
		}
		r.issue(KindUnparsableLine, l, "no entry in progress")
		return
	}
	r.continueEntry(l)
}

// dayMarker accepts a line whose first word is a full English or German day name.
func dayMarker(text string) (catalog.Day, bool) {
	first, _, _ := strings.Cut(text, " ")
	if utf8.RuneCountInString(strings.Trim(first, ".,:")) < 6 {
		return catalog.NoDay, false
	}
	return catalog.ParseDay(first)
}

func (r *scheduleRun) seed(l layout.Line, m []string) {
	st := &parserState{rawCode: m[3]}
	st.entry = catalog.ScheduleEntry{
		Semester: r.semester,
		Day:      r.day,
		Source:   r.doc,
		Line:     l.Number,
	}
	start, errStart := catalog.ParseClock(m[1])
	end, errEnd := catalog.ParseClock(m[2])
	if errStart != nil || errEnd != nil {
		// An unreadable time can never satisfy the mandatory fields.
		start, end = 0, 0
	}
	st.entry.Start, st.entry.End = start, end

	rest := strings.TrimSpace(m[4])
	if cm := r.x.vocab.moduleCode.FindStringSubmatch(rest); cm != nil {
		st.rawCode = cm[1]
		rest = strings.TrimSpace(cm[2])
	}

	if name, ct, after, ok := r.x.vocab.splitClassType(rest); ok {
		st.entry.ModuleName = name
		st.entry.ClassType = ct
		r.pending = st
		r.assignPersonAndRoom(after, roomColumn(l))
		return
	}
	if i := r.x.vocab.titleIndex(rest); i > 0 {
		st.entry.ModuleName = strings.TrimSpace(rest[:i])
		r.pending = st
		r.assignPersonAndRoom(rest[i:], roomColumn(l))
		return
	}
	st.entry.ModuleName = rest
	st.cursor = fieldName
	r.pending = st
}

// roomColumn returns the last column of a row printed with column gaps, or
// "" for a row without columns. In such rows the room is the last column.
func roomColumn(l layout.Line) string {
	if len(l.Cells) < 2 {
		return ""
	}
	return l.Cells[len(l.Cells)-1]
}

// assignPersonAndRoom splits "Prof. Dr. X Hörsaal 3 1 01 00 215" into
// professor, room and building code. Without a room keyword, column is
// taken as the room when it ends s and is not a person.
func (r *scheduleRun) assignPersonAndRoom(s, column string) {
	st := r.pending
	if m := roomCode.FindStringSubmatch(s); m != nil {
		st.entry.RoomCode = strings.Join(m[1:], " ")
		s = strings.Join(strings.Fields(roomCode.ReplaceAllString(s, " ")), " ")
	}
	s = strings.TrimSpace(s)
	if i, kw := r.x.vocab.roomIndex(s); i >= 0 {
		r.appendProfessor(strings.TrimSpace(s[:i]))
		st.entry.Room = strings.TrimSpace(kw + " " + strings.TrimSpace(s[i+len(kw):]))
		st.cursor = fieldRoom
		return
	}
	if column != "" && column != s && strings.HasSuffix(s, " "+column) && !r.x.vocab.hasTitlePrefix(column) {
		r.appendProfessor(strings.TrimSpace(strings.TrimSuffix(s, column)))
		st.entry.Room = column
		st.cursor = fieldRoom
		return
	}
	r.appendProfessor(s)
	st.cursor = fieldProfessor
}

func (r *scheduleRun) appendProfessor(s string) {
	st := r.pending
	if s == "" {
		return
	}
	switch {
	case st.entry.Professor == "":
		st.entry.Professor = s
	case st.hyphen:
		st.entry.Professor = joinHyphenated(st.entry.Professor, s)
	default:
		st.entry.Professor += ", " + s
	}
	st.hyphen = strings.HasSuffix(st.entry.Professor, "-")
}

// joinHyphenated joins a hyphen-terminated fragment with its continuation
// without a space. A lowercase continuation means the hyphen was a line-break
// hyphen and is dropped; otherwise it belongs to a compound name and stays.
func joinHyphenated(head, tail string) string {
	first, _ := utf8.DecodeRuneInString(tail)
	if unicode.IsLower(first) {
		return strings.TrimSuffix(head, "-") + tail
	}
	return head + tail
}

func (r *scheduleRun) continueEntry(l layout.Line) {
	st := r.pending
	text := l.Text
	v := r.x.vocab

	if m := blockCourse.FindStringSubmatch(text); m != nil {
		if dates := strings.TrimRight(strings.TrimSpace(m[1]), ","); dates != "" && !strings.HasPrefix(dates, "(") {
			st.entry.BlockDates = append(st.entry.BlockDates, dates)
		}
		st.inBlock = true
		return
	}
	if st.inBlock && dateList.MatchString(text) && strings.Contains(text, ".") {
		st.entry.BlockDates = append(st.entry.BlockDates, strings.TrimRight(text, ","))
		return
	}
	st.inBlock = false

	if v.isMetadata(text) {
		return
	}
	if roomCodeOnly.MatchString(text) {
		st.entry.RoomCode = strings.Join(strings.Fields(text), " ")
		return
	}
	if ct, ok := v.classType(text); ok {
		st.entry.ClassType = ct
		st.cursor = fieldProfessor
		return
	}
	roomAt, _ := v.roomIndex(text)
	if st.hyphen && roomAt != 0 && !v.hasTitlePrefix(text) {
		if roomAt > 0 {
			r.appendProfessor(strings.TrimSpace(text[:roomAt]))
			r.assignPersonAndRoom(text[roomAt:], "")
			return
		}
		r.appendProfessor(text)
		st.cursor = fieldProfessor
		return
	}
	if v.hasTitlePrefix(text) {
		st.hyphen = false
		r.assignPersonAndRoom(text, "")
		return
	}
	if roomAt == 0 {
		r.assignPersonAndRoom(text, "")
		return
	}

	switch st.cursor {
	case fieldName:
		st.entry.ModuleName = strings.TrimSpace(st.entry.ModuleName + " " + text)
		return
	case fieldProfessor:
		if st.entry.Professor != "" && !strings.Contains(text, " ") {
			st.entry.Professor += " " + text
			return
		}
	case fieldRoom:
		if utf8.RuneCountInString(text) <= 12 {
			st.entry.Room += " " + text
			return
		}
	}
	r.issue(KindUnparsableLine, l, "continuation fits no field")
}

func (r *scheduleRun) finalize() {
	st := r.pending
	if st == nil {
		return
	}
	r.pending = nil

	e := st.entry
	e.ModuleName = strings.Join(strings.Fields(e.ModuleName), " ")
	e.Professor = strings.TrimSpace(e.Professor)
	if e.Room == "" {
		e.Room = "tba"
	}
	if err := e.Validate(); err != nil {
		r.issues = append(r.issues, Issue{
			Kind:     KindIncompleteRecord,
			Document: r.doc,
			Line:     e.Line,
			Text:     e.ModuleName,
			Reason:   err.Error(),
		})
		return
	}
	e.CourseNumber = st.rawCode
	if r.resolver != nil {
		e.ModuleCode = r.resolver.ResolveCode(st.rawCode, e.ModuleName)
	}
	e.ID = catalog.StableID("schedule", r.doc, strconv.Itoa(e.Line))
	r.entries = append(r.entries, e)
}

func (r *scheduleRun) issue(kind Kind, l layout.Line, reason string) {
	r.issues = append(r.issues, Issue{Kind: kind, Document: r.doc, Line: l.Number, Text: l.Text, Reason: reason})
}
