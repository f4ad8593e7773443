package rag

import (
	"fmt"
	"strings"

	"campus-advisor/internal/catalog"
	"campus-advisor/internal/llm"
)

// Section tags in the rendered system prompt.
const (
	TagSchedule    = "[OFFICIAL CLASS SCHEDULE]"
	TagModules     = "[MODULE CATALOG]"
	TagExcerpts    = "[DOCUMENT EXCERPTS]"
	TagNoData      = "[NO DATA FOUND]"
	TagNotInSeason = "[SEMESTER NOT IN SEASON]"
)

// maxHistory bounds the prior turns forwarded to the generation backend.
const maxHistory = 10

const systemPrompt = "You are a study advisor for a university programme. Answer the student's question " +
	"using only the context below. Schedule and module data is official: repeat days, times, rooms " +
	"and names exactly as given. If the context says no data was found, say so instead of guessing."

// RenderMessages turns a bundle into the message list for the generation
// backend: a system prompt with tagged context sections, the most recent
// history turns and the question.
func RenderMessages(b Bundle, query string, history []llm.Message) []llm.Message {
	var sb strings.Builder
	sb.WriteString(systemPrompt)
	sb.WriteString("\n\n")
	writeContext(&sb, b)

	messages := []llm.Message{{Role: llm.RoleSystem, Content: strings.TrimRight(sb.String(), "\n")}}
	turns := make([]llm.Message, 0, len(history))
	for _, m := range history {
		if m.Role == llm.RoleUser || m.Role == llm.RoleAssistant {
			turns = append(turns, m)
		}
	}
	if len(turns) > maxHistory {
		turns = turns[len(turns)-maxHistory:]
	}
	messages = append(messages, turns...)
	return append(messages, llm.Message{Role: llm.RoleUser, Content: query})
}

func writeContext(sb *strings.Builder, b Bundle) {
	if b.Empty {
		writeEmpty(sb, b)
		return
	}
	if len(b.Schedule) > 0 {
		sb.WriteString(TagSchedule + "\n")
		if b.Module != nil {
			fmt.Fprintf(sb, "Module: %s (%s)\n", b.Module.Name, b.Module.Code)
		} else if b.Day.Valid() {
			fmt.Fprintf(sb, "Semester %d, %s\n", b.Semester, b.Day)
		}
		for _, e := range b.Schedule {
			sb.WriteString(formatEntry(e))
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}
	if len(b.Modules) > 0 {
		sb.WriteString(TagModules + "\n")
		for i, m := range b.Modules {
			fmt.Fprintf(sb, "%d. %s\n", i+1, formatModule(m))
		}
		sb.WriteByte('\n')
	}
	if len(b.Chunks) > 0 {
		sb.WriteString(TagExcerpts + "\n")
		for i, c := range b.Chunks {
			fmt.Fprintf(sb, "(%d) Source: %s", i+1, c.Chunk.Source.Document)
			if c.Chunk.Source.ModuleCode != "" {
				fmt.Fprintf(sb, ", module %s", c.Chunk.Source.ModuleCode)
			}
			fmt.Fprintf(sb, "\n%s\n\n", c.Chunk.Text)
		}
	}
}

func writeEmpty(sb *strings.Builder, b Bundle) {
	if b.Reason == ReasonSemesterNotInSeason {
		sb.WriteString(TagNotInSeason + "\n")
		fmt.Fprintf(sb, "Semester %d is not taught in the current %s term.\n", b.Semester, b.Term)
		return
	}
	sb.WriteString(TagNoData + "\n")
	switch b.Reason {
	case ReasonSemesterRequired:
		sb.WriteString("The question does not say which semester the student is in. Ask for it.\n")
	case ReasonNoScheduleForModule:
		name := ""
		if b.Module != nil {
			name = b.Module.Name
		}
		fmt.Fprintf(sb, "Module %q is in the catalog but has no scheduled sessions. Suggest checking with the department.\n", name)
	case ReasonNoClassesOnDay:
		fmt.Fprintf(sb, "Semester %d has no classes on %s.\n", b.Semester, b.Day)
	case ReasonNoModulesFound:
		sb.WriteString("No modules match the requested semester or term.\n")
	default:
		sb.WriteString("No documents relevant to the question were found.\n")
	}
}

func formatEntry(e catalog.ScheduleEntry) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("%s %s-%s", e.Day, e.Start, e.End), e.ModuleName)
	if e.ClassType != "" {
		parts = append(parts, string(e.ClassType))
	}
	if e.Professor != "" {
		parts = append(parts, e.Professor)
	}
	room := e.Room
	if e.RoomCode != "" {
		room = strings.TrimSpace(room + " " + e.RoomCode)
	}
	if room != "" {
		parts = append(parts, room)
	}
	if len(e.BlockDates) > 0 {
		parts = append(parts, "dates "+strings.Join(e.BlockDates, ", "))
	}
	return strings.Join(parts, " | ")
}

func formatModule(m catalog.ModuleRecord) string {
	s := fmt.Sprintf("%s %s, %d ECTS", m.Code, m.Name, m.Credits)
	if m.Season != catalog.SeasonUnknown {
		s += ", " + string(m.Season)
	}
	if len(m.Prerequisites) > 0 {
		s += ", requires " + strings.Join(m.Prerequisites, ", ")
	}
	return s
}
