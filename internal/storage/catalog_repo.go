package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"

	"campus-advisor/internal/catalog"
)

// writeCatalog stores every module and schedule entry of l. Entries keep
// their order within each module through the position column.
func writeCatalog(ctx context.Context, q execer, l catalog.Layout) error {
	codes := make([]string, 0, len(l.Modules))
	for code := range l.Modules {
		codes = append(codes, code)
	}
	slices.Sort(codes)

	for _, code := range codes {
		m := l.Modules[code]
		sems, err := json.Marshal(m.Semesters)
		if err != nil {
			return fmt.Errorf("failed to encode semesters of %s: %w", code, err)
		}
		prereqs, err := json.Marshal(m.Prerequisites)
		if err != nil {
			return fmt.Errorf("failed to encode prerequisites of %s: %w", code, err)
		}
		_, err = q.ExecContext(ctx,
			`INSERT INTO modules (code, name, credits, semesters, season, prerequisites, content, source)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			m.Code, m.Name, m.Credits, string(sems), string(m.Season), string(prereqs), m.Content, m.Source,
		)
		if err != nil {
			return fmt.Errorf("failed to insert module %s: %w", code, err)
		}
	}

	position := 0
	insert := func(e catalog.ScheduleEntry) error {
		dates, err := json.Marshal(e.BlockDates)
		if err != nil {
			return fmt.Errorf("failed to encode block dates: %w", err)
		}
		var code sql.NullString
		if e.ModuleCode != "" {
			code = sql.NullString{String: e.ModuleCode, Valid: true}
		}
		_, err = q.ExecContext(ctx,
			`INSERT INTO schedule_entries (id, module_code, course_number, module_name, semester, day,
			 start_minute, end_minute, professor, room, room_code, class_type, block_dates, source, line, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, code, e.CourseNumber, e.ModuleName, e.Semester, int(e.Day),
			int(e.Start), int(e.End), e.Professor, e.Room, e.RoomCode, string(e.ClassType),
			string(dates), e.Source, e.Line, position,
		)
		if err != nil {
			return fmt.Errorf("failed to insert schedule entry %s: %w", e.ID, err)
		}
		position++
		return nil
	}

	scheduled := make([]string, 0, len(l.Schedule))
	for code := range l.Schedule {
		scheduled = append(scheduled, code)
	}
	slices.Sort(scheduled)
	for _, code := range scheduled {
		for _, e := range l.Schedule[code] {
			if err := insert(e); err != nil {
				return err
			}
		}
	}
	for _, e := range l.Unmatched {
		if err := insert(e); err != nil {
			return err
		}
	}
	return nil
}

// readCatalog loads the layout written by writeCatalog.
func readCatalog(ctx context.Context, q execer) (catalog.Layout, error) {
	l := catalog.Layout{
		Modules:  make(map[string]catalog.ModuleRecord),
		Schedule: make(map[string][]catalog.ScheduleEntry),
	}

	rows, err := q.QueryContext(ctx,
		"SELECT code, name, credits, semesters, season, prerequisites, content, source FROM modules ORDER BY code")
	if err != nil {
		return l, fmt.Errorf("failed to query modules: %w", err)
	}
	for rows.Next() {
		var (
			m             catalog.ModuleRecord
			season        string
			sems, prereqs string
			source        sql.NullString
		)
		if err := rows.Scan(&m.Code, &m.Name, &m.Credits, &sems, &season, &prereqs, &m.Content, &source); err != nil {
			_ = rows.Close()
			return l, fmt.Errorf("failed to scan module: %w", err)
		}
		m.Season = catalog.Season(season)
		m.Source = source.String
		if m.Semesters, err = decodeList[int](sems); err != nil {
			_ = rows.Close()
			return l, fmt.Errorf("failed to decode semesters of %s: %w", m.Code, err)
		}
		if m.Prerequisites, err = decodeList[string](prereqs); err != nil {
			_ = rows.Close()
			return l, fmt.Errorf("failed to decode prerequisites of %s: %w", m.Code, err)
		}
		l.Modules[m.Code] = m
	}
	err = rows.Err()
	_ = rows.Close()
	if err != nil {
		return l, fmt.Errorf("failed to read modules: %w", err)
	}

	rows, err = q.QueryContext(ctx,
		`SELECT id, module_code, course_number, module_name, semester, day, start_minute, end_minute,
		 professor, room, room_code, class_type, block_dates, source, line
		 FROM schedule_entries ORDER BY position`)
	if err != nil {
		return l, fmt.Errorf("failed to query schedule entries: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()
	for rows.Next() {
		var (
			e                                  catalog.ScheduleEntry
			code, course, prof, room, roomCode sql.NullString
			classType, dates, source           sql.NullString
			day, start, end                    int
			line                               sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &code, &course, &e.ModuleName, &e.Semester, &day, &start, &end,
			&prof, &room, &roomCode, &classType, &dates, &source, &line); err != nil {
			return l, fmt.Errorf("failed to scan schedule entry: %w", err)
		}
		e.ModuleCode = code.String
		e.CourseNumber = course.String
		e.Day = catalog.Day(day)
		e.Start = catalog.Clock(start)
		e.End = catalog.Clock(end)
		e.Professor = prof.String
		e.Room = room.String
		e.RoomCode = roomCode.String
		e.ClassType = catalog.ClassType(classType.String)
		e.Source = source.String
		e.Line = int(line.Int64)
		if dates.Valid {
			if e.BlockDates, err = decodeList[string](dates.String); err != nil {
				return l, fmt.Errorf("failed to decode block dates of %s: %w", e.ID, err)
			}
		}
		if e.ModuleCode == "" {
			l.Unmatched = append(l.Unmatched, e)
			continue
		}
		l.Schedule[e.ModuleCode] = append(l.Schedule[e.ModuleCode], e)
	}
	if err := rows.Err(); err != nil {
		return l, fmt.Errorf("failed to read schedule entries: %w", err)
	}
	return l, nil
}

// decodeList decodes a JSON array, mapping empty arrays and null to nil.
func decodeList[T any](raw string) ([]T, error) {
	var out []T
	if raw == "" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}
