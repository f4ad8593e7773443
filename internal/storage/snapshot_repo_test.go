package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"campus-advisor/internal/catalog"
	"campus-advisor/internal/vectorstore"
)

func testSnapshot() *Snapshot {
	signals := catalog.ModuleRecord{
		Code:          "CI_3.02",
		Name:          "Signals and Systems",
		Credits:       5,
		Semesters:     []int{3},
		Season:        catalog.SeasonWinter,
		Prerequisites: []string{"CI_1.07"},
		Content:       "CI_3.02 Signals and Systems\nFourier transform",
		Source:        "handbook.txt",
	}
	physics := catalog.ModuleRecord{
		Code:      "CI_1.07",
		Name:      "Physics: Mechanics, Electricity and Magnetism",
		Credits:   6,
		Semesters: []int{1},
		Season:    catalog.SeasonWinter,
		Content:   "CI_1.07 Physics",
		Source:    "handbook.txt",
	}
	entry := catalog.ScheduleEntry{
		ID:           "e1",
		ModuleCode:   "CI_3.02",
		CourseNumber: "4711",
		ModuleName:   "Signals and Systems",
		Semester:     3,
		Day:          catalog.Monday,
		Start:        8 * 60,
		End:          10 * 60,
		Professor:    "Prof. Dr. Große-Kampmann",
		Room:         "Hörsaal 2",
		RoomCode:     "01 00 215",
		ClassType:    catalog.ClassLecture,
		BlockDates:   []string{"12.10.", "19.10."},
		Source:       "schedule.txt",
		Line:         12,
	}
	orphan := catalog.ScheduleEntry{
		ID:         "e2",
		ModuleName: "Unknown Seminar",
		Semester:   3,
		Day:        catalog.Tuesday,
		Start:      12 * 60,
		End:        14 * 60,
		Source:     "schedule.txt",
		Line:       20,
	}
	return &Snapshot{
		Version: "abc123",
		Dim:     2,
		Documents: []DocumentRecord{
			{Name: "handbook.txt", Kind: "handbook", Hash: "h1"},
			{Name: "schedule.txt", Kind: "schedule", Hash: "h2"},
		},
		Catalog: catalog.Layout{
			Modules:   map[string]catalog.ModuleRecord{signals.Code: signals, physics.Code: physics},
			Schedule:  map[string][]catalog.ScheduleEntry{"CI_3.02": {entry}},
			Unmatched: []catalog.ScheduleEntry{orphan},
		},
		Chunks: []vectorstore.Chunk{
			{ID: "c1", Text: "Fourier transform", Vector: []float32{0.25, -1.5}, Source: vectorstore.SourceRef{Document: "handbook.txt", Offset: 0, ModuleCode: "CI_3.02"}},
			{ID: "c2", Text: "Exam rules", Vector: []float32{1, 0}, Source: vectorstore.SourceRef{Document: "rules.md", Offset: 800}},
		},
	}
}

func TestSnapshotRepo_SaveLoad(t *testing.T) {
	repo := NewSnapshotRepo(openTestDB(t))
	ctx := context.Background()
	want := testSnapshot()

	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load() = %+v\nwant %+v", got, want)
	}
}

func TestSnapshotRepo_LoadEmpty(t *testing.T) {
	repo := NewSnapshotRepo(openTestDB(t))

	_, err := repo.Load(context.Background())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestSnapshotRepo_SaveReplaces(t *testing.T) {
	repo := NewSnapshotRepo(openTestDB(t))
	ctx := context.Background()

	if err := repo.Save(ctx, testSnapshot()); err != nil {
		t.Fatalf("first Save() error = %v", err)
	}

	next := testSnapshot()
	next.Version = "def456"
	next.Chunks = next.Chunks[1:]
	delete(next.Catalog.Modules, "CI_3.02")
	next.Catalog.Schedule = map[string][]catalog.ScheduleEntry{}
	if err := repo.Save(ctx, next); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Version != "def456" {
		t.Errorf("Version = %q, want def456", got.Version)
	}
	if len(got.Catalog.Modules) != 1 || len(got.Catalog.Schedule) != 0 {
		t.Errorf("catalog = %+v, want only CI_1.07 and no schedule", got.Catalog)
	}

	ids, err := repo.ChunkIDs(ctx)
	if err != nil {
		t.Fatalf("ChunkIDs() error = %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"c2"}) {
		t.Errorf("ChunkIDs() = %v, want [c2]", ids)
	}
}

func TestSnapshotRepo_SaveRollsBack(t *testing.T) {
	repo := NewSnapshotRepo(openTestDB(t))
	ctx := context.Background()

	if err := repo.Save(ctx, testSnapshot()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	broken := testSnapshot()
	broken.Version = "broken"
	broken.Chunks = append(broken.Chunks, broken.Chunks[0])
	if err := repo.Save(ctx, broken); err == nil {
		t.Fatal("Save() with duplicate chunk IDs should fail")
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Version != "abc123" {
		t.Errorf("Version after failed save = %q, want abc123", got.Version)
	}
}

func TestChunkRepo_GetByID(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	if err := NewSnapshotRepo(db).Save(ctx, testSnapshot()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	repo := NewChunkRepo(db)

	tests := []struct {
		name    string
		id      string
		wantErr error
		want    string
	}{
		{name: "existing chunk", id: "c1", want: "Fourier transform"},
		{name: "missing chunk", id: "nope", wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.GetByID(ctx, tt.id)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("GetByID() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if got.Text != tt.want || got.Source.ModuleCode != "CI_3.02" || got.Vector[1] != -1.5 {
				t.Errorf("GetByID() = %+v", got)
			}
		})
	}
}

func TestVectorEncoding(t *testing.T) {
	v := []float32{0, 1.5, -2.25, 3e-7}
	got, err := decodeVector(encodeVector(v))
	if err != nil {
		t.Fatalf("decodeVector() error = %v", err)
	}
	if !reflect.DeepEqual(got, v) {
		t.Errorf("decodeVector() = %v, want %v", got, v)
	}
	if _, err := decodeVector([]byte{1, 2, 3}); err == nil {
		t.Error("decodeVector() should reject truncated input")
	}
}
