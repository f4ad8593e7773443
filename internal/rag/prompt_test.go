package rag

import (
	"fmt"
	"strings"
	"testing"

	"campus-advisor/internal/catalog"
	"campus-advisor/internal/intent"
	"campus-advisor/internal/llm"
	"campus-advisor/internal/resolver"
	"campus-advisor/internal/retrieval"
	"campus-advisor/internal/vectorstore"
)

func TestRenderMessages_Sections(t *testing.T) {
	entry := catalog.ScheduleEntry{
		ModuleName: "Signals and Systems", Day: catalog.Monday, Start: 8 * 60, End: 9*60 + 30,
		Professor: "Prof. Dr. Große-Kampmann", Room: "Hörsaal", RoomCode: "B 01 101", ClassType: catalog.ClassLecture,
	}
	module := catalog.ModuleRecord{Code: "INF_3.02", Name: "Signals and Systems", Credits: 5,
		Season: catalog.SeasonWinter, Prerequisites: []string{"INF_1.01"}}
	chunk := retrieval.Fused{Chunk: vectorstore.Chunk{ID: "c1", Text: "Fourier transform.",
		Source: vectorstore.SourceRef{Document: "handbook.txt", ModuleCode: "INF_3.02"}}}

	tests := []struct {
		name   string
		bundle Bundle
		want   []string
		absent []string
	}{
		{
			name: "schedule",
			bundle: Bundle{Intent: intent.Schedule{}, Source: SourceStructured,
				Module: &resolver.Match{Code: "INF_3.02", Name: "Signals and Systems"}, Schedule: []catalog.ScheduleEntry{entry}},
			want: []string{TagSchedule, "Module: Signals and Systems (INF_3.02)",
				"Monday 08:00-09:30 | Signals and Systems | lecture | Prof. Dr. Große-Kampmann | Hörsaal B 01 101"},
			absent: []string{TagNoData, TagExcerpts},
		},
		{
			name:   "modules",
			bundle: Bundle{Intent: intent.ModulesList{}, Source: SourceStructured, Modules: []catalog.ModuleRecord{module}},
			want:   []string{TagModules, "1. INF_3.02 Signals and Systems, 5 ECTS, winter, requires INF_1.01"},
		},
		{
			name:   "excerpts",
			bundle: Bundle{Intent: intent.General{}, Source: SourceRetrieval, Chunks: []retrieval.Fused{chunk}},
			want:   []string{TagExcerpts, "(1) Source: handbook.txt, module INF_3.02", "Fourier transform."},
		},
		{
			name: "no classes",
			bundle: Bundle{Intent: intent.Schedule{}, Source: SourceStructured, Semester: 3, Day: catalog.Friday,
				Empty: true, Reason: ReasonNoClassesOnDay},
			want:   []string{TagNoData, "Semester 3 has no classes on Friday."},
			absent: []string{TagSchedule},
		},
		{
			name: "not in season",
			bundle: Bundle{Intent: intent.Schedule{}, Source: SourceStructured, Semester: 2, Term: catalog.SeasonWinter,
				Empty: true, Reason: ReasonSemesterNotInSeason},
			want:   []string{TagNotInSeason, "Semester 2 is not taught in the current winter term."},
			absent: []string{TagNoData},
		},
		{
			name:   "semester required",
			bundle: Bundle{Intent: intent.ModulesList{}, Source: SourceNone, Empty: true, Reason: ReasonSemesterRequired},
			want:   []string{TagNoData, "Ask for it."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := RenderMessages(tt.bundle, "question?", nil)
			if len(msgs) != 2 {
				t.Fatalf("len(messages) = %d, want 2", len(msgs))
			}
			system := msgs[0].Content
			for _, w := range tt.want {
				if !strings.Contains(system, w) {
					t.Errorf("system prompt missing %q:\n%s", w, system)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(system, a) {
					t.Errorf("system prompt unexpectedly contains %q", a)
				}
			}
			if msgs[1].Role != llm.RoleUser || msgs[1].Content != "question?" {
				t.Errorf("last message = %+v, want the user question", msgs[1])
			}
		})
	}
}

func TestRenderMessages_History(t *testing.T) {
	var history []llm.Message
	history = append(history, llm.Message{Role: llm.RoleSystem, Content: "ignored"})
	for i := range 12 {
		history = append(history, llm.Message{Role: llm.RoleUser, Content: fmt.Sprintf("turn %d", i)})
	}

	msgs := RenderMessages(Bundle{Empty: true, Reason: ReasonNoDocumentsFound}, "now?", history)
	if len(msgs) != 1+maxHistory+1 {
		t.Fatalf("len(messages) = %d, want %d", len(msgs), maxHistory+2)
	}
	if msgs[0].Role != llm.RoleSystem {
		t.Errorf("first role = %s, want system", msgs[0].Role)
	}
	if msgs[1].Content != "turn 2" {
		t.Errorf("oldest kept turn = %q, want %q", msgs[1].Content, "turn 2")
	}
	for _, m := range msgs[1:] {
		if m.Content == "ignored" {
			t.Error("system history turn was forwarded")
		}
	}
	if msgs[len(msgs)-1].Content != "now?" {
		t.Errorf("last message = %q, want the question", msgs[len(msgs)-1].Content)
	}
}
