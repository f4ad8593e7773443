package intent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-advisor/internal/catalog"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		query string
		want  Kind
	}{
		{"when is my signals class?", KindSchedule},
		{"what modules do I have in semester 2?", KindModulesList},
		{"tell me about machine learning", KindModuleInfo},
		{"hello", KindGeneral},
		{"Where is the Physics lecture on Monday?", KindSchedule},
		{"which room is databases in", KindSchedule},
		{"Are there any block dates?", KindSchedule},
		{"List my courses for the 3rd semester", KindModulesList},
		{"What is the curriculum of the summer term", KindModulesList},
		{"How many ECTS credits does Algorithms have?", KindModuleInfo},
		{"prerequisites for signals and systems", KindModuleInfo},
		{"who teaches signals and systems on tuesday", KindSchedule},
		{"", KindGeneral},
		{"???", KindGeneral},
		{"thank you!", KindGeneral},
		{"Daytime parking?", KindGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.query).Kind())
		})
	}
}

func TestClassify_ScheduleWinsOverInfo(t *testing.T) {
	r := Classify("tell me about the timetable for Signals and Systems")
	assert.Equal(t, KindSchedule, r.Kind())
}

func TestExtractCriteria(t *testing.T) {
	tests := []struct {
		query string
		want  Criteria
	}{
		{"what modules do I have in semester 2?", Criteria{Semester: 2}},
		{"my classes in the 3. Semester on Tuesday", Criteria{Semester: 3, Day: catalog.Tuesday}},
		{"first semester modules", Criteria{Semester: 1}},
		{"5th sem schedule", Criteria{Semester: 5}},
		{"sem 4 electives", Criteria{Semester: 4}},
		{"what is taught in winter", Criteria{Season: catalog.SeasonWinter}},
		{"Sommersemester Module", Criteria{Season: catalog.SeasonSummer}},
		{"what do I have today", Criteria{Relative: Today}},
		{"classes tomorrow in semester 1", Criteria{Semester: 1, Relative: Tomorrow}},
		{"Was habe ich am Donnerstag", Criteria{Day: catalog.Thursday}},
		{"do I have class mo", Criteria{}},
		{"hello", Criteria{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCriteria(tt.query))
		})
	}
}

type recorder struct {
	visited Kind
}

func (r *recorder) VisitSchedule(Schedule) error       { r.visited = KindSchedule; return nil }
func (r *recorder) VisitModulesList(ModulesList) error { r.visited = KindModulesList; return nil }
func (r *recorder) VisitModuleInfo(ModuleInfo) error   { r.visited = KindModuleInfo; return nil }
func (r *recorder) VisitGeneral(General) error         { r.visited = KindGeneral; return nil }

func TestAccept(t *testing.T) {
	for _, r := range []Result{Schedule{}, ModulesList{}, ModuleInfo{}, General{}} {
		rec := &recorder{}
		require.NoError(t, r.Accept(rec))
		assert.Equal(t, r.Kind(), rec.visited)
	}
}

func TestMarshalJSON(t *testing.T) {
	raw, err := json.Marshal(Classify("my classes on Monday in semester 3"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"schedule","semester":3,"day":"Monday"}`, string(raw))

	raw, err = json.Marshal(Classify("hi"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"general"}`, string(raw))
}
