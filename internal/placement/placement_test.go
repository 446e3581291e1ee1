package placement

import (
	"errors"
	"testing"

	"github.com/primepath/primepath-backend/internal/model"
)

func intPtr(v int) *int { return &v }

func TestRankToPercentile(t *testing.T) {
	tests := []struct {
		rank    model.AcademicRank
		want    float64
		wantErr bool
	}{
		{model.RankTop5, 5, false},
		{model.RankTop10, 10, false},
		{model.RankTop20, 20, false},
		{model.RankTop30, 30, false},
		{model.RankTop40, 40, false},
		{model.RankTop50, 50, false},
		{model.RankBelow50, 100, false},
		{"TOP_1", 0, true},
	}
	for _, tt := range tests {
		got, err := RankToPercentile(tt.rank)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownRank) {
				t.Errorf("RankToPercentile(%q) error = %v, want ErrUnknownRank", tt.rank, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("RankToPercentile(%q) = %v, %v; want %v", tt.rank, got, err, tt.want)
		}
	}
}

func TestMatchRule(t *testing.T) {
	rules := []model.PlacementRule{
		{ID: 1, Grade: 7, MinPercentile: 0, MaxPercentile: 20, CurriculumLevelID: 30, Priority: 1},
		{ID: 2, Grade: 7, MinPercentile: 20, MaxPercentile: 50, CurriculumLevelID: 20, Priority: 1},
		{ID: 3, Grade: 7, MinPercentile: 10, MaxPercentile: 40, CurriculumLevelID: 25, Priority: 2},
		{ID: 4, Grade: 7, MinPercentile: 50, MaxPercentile: 100, CurriculumLevelID: 10, Priority: 1},
		{ID: 5, Grade: 8, MinPercentile: 0, MaxPercentile: 100, CurriculumLevelID: 40, Priority: 1},
		{ID: 6, Grade: 9, MinPercentile: 0, MaxPercentile: 100, CurriculumLevelID: 51, Priority: 3},
		{ID: 7, Grade: 9, MinPercentile: 0, MaxPercentile: 100, CurriculumLevelID: 50, Priority: 3},
	}

	tests := []struct {
		name       string
		grade      int
		percentile float64
		wantRule   int
		wantErr    error
	}{
		{"inside single range", 7, 5, 1, nil},
		{"lowest priority wins over overlap", 7, 30, 2, nil},
		{"boundary belongs to both, priority tie goes to lowest id", 7, 20, 1, nil},
		{"upper bound inclusive", 7, 100, 4, nil},
		{"other grade", 8, 42, 5, nil},
		{"equal priority picks lowest id", 9, 50, 6, nil},
		{"no rule for grade", 10, 50, 0, ErrNoPlacementRule},
		{"percentile outside every range", 7, 101, 0, ErrNoPlacementRule},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MatchRule(rules, tt.grade, tt.percentile)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ID != tt.wantRule {
				t.Fatalf("rule = %d, want %d", got.ID, tt.wantRule)
			}
		})
	}
}

func TestFirstActiveMapping(t *testing.T) {
	mappings := []model.ExamLevelMapping{
		{ID: 1, Slot: 3, ExamActive: true},
		{ID: 2, Slot: 1, ExamActive: false},
		{ID: 3, Slot: 2, ExamActive: true},
	}
	got, ok := FirstActiveMapping(mappings)
	if !ok || got.ID != 3 {
		t.Fatalf("FirstActiveMapping = %+v, %v; want mapping 3", got, ok)
	}

	if _, ok := FirstActiveMapping([]model.ExamLevelMapping{{Slot: 1}}); ok {
		t.Fatal("expected no active mapping")
	}
}

func ladderFixture() []model.CurriculumLevel {
	return []model.CurriculumLevel{
		{ID: 12, ProgramID: 1, ProgramSortOrder: 1, SubProgramID: 1, SubProgramOrder: 1, LevelNumber: 2},
		{ID: 11, ProgramID: 1, ProgramSortOrder: 1, SubProgramID: 1, SubProgramOrder: 1, LevelNumber: 1},
		{ID: 21, ProgramID: 2, ProgramSortOrder: 2, SubProgramID: 2, SubProgramOrder: 1, LevelNumber: 1},
		{ID: 13, ProgramID: 1, ProgramSortOrder: 1, SubProgramID: 3, SubProgramOrder: 2, LevelNumber: 1},
	}
}

func ids(levels []model.CurriculumLevel) []int {
	out := make([]int, len(levels))
	for i, l := range levels {
		out[i] = l.ID
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSortLadderByPosition(t *testing.T) {
	got := ids(SortLadder(ladderFixture()))
	want := []int{11, 12, 13, 21}
	if !equalInts(got, want) {
		t.Fatalf("ladder = %v, want %v", got, want)
	}
}

func TestSortLadderByInternalDifficulty(t *testing.T) {
	levels := ladderFixture()
	levels[0].InternalDifficulty = intPtr(5) // 12
	levels[1].InternalDifficulty = intPtr(1) // 11
	levels[2].InternalDifficulty = intPtr(3) // 21
	levels[3].InternalDifficulty = intPtr(3) // 13

	got := ids(SortLadder(levels))
	want := []int{11, 13, 21, 12}
	if !equalInts(got, want) {
		t.Fatalf("ladder = %v, want %v", got, want)
	}
}

func TestAdjacent(t *testing.T) {
	ladder := SortLadder(ladderFixture()) // 11, 12, 13, 21
	all := func(int) bool { return true }

	tests := []struct {
		name      string
		current   int
		direction int
		hasExam   func(int) bool
		want      int
		wantErr   error
	}{
		{"harder", 12, 1, all, 13, nil},
		{"easier", 12, -1, all, 11, nil},
		{"skips levels without exams", 11, 1, func(id int) bool { return id == 21 }, 21, nil},
		{"top of ladder", 21, 1, all, 0, ErrNoAdjacentLevel},
		{"bottom of ladder", 11, -1, all, 0, ErrNoAdjacentLevel},
		{"bad direction", 12, 2, all, 0, ErrNoAdjacentLevel},
		{"unknown level", 99, 1, all, 0, ErrLevelNotOnLadder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Adjacent(ladder, tt.current, tt.direction, tt.hasExam)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ID != tt.want {
				t.Fatalf("level = %d, want %d", got.ID, tt.want)
			}
		})
	}
}

func TestAdjacentSkipsEqualDifficulty(t *testing.T) {
	levels := ladderFixture()
	levels[0].InternalDifficulty = intPtr(2) // 12
	levels[1].InternalDifficulty = intPtr(1) // 11
	levels[2].InternalDifficulty = intPtr(4) // 21
	levels[3].InternalDifficulty = intPtr(2) // 13

	// 11, 12, 13, 21
	ladder := SortLadder(levels)

	got, err := Adjacent(ladder, 12, 1, func(int) bool { return true })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != 21 {
		t.Fatalf("level = %d, want 21", got.ID)
	}
}

func TestAdjacentMixedDifficulties(t *testing.T) {
	// Position order 11, 12, 13, 21; 13 has no difficulty so the ladder stays positional.
	levels := ladderFixture()
	levels[1].InternalDifficulty = intPtr(50) // 11
	levels[0].InternalDifficulty = intPtr(10) // 12
	levels[2].InternalDifficulty = intPtr(70) // 21
	all := func(int) bool { return true }

	ladder := SortLadder(levels)
	if got, want := ids(ladder), []int{11, 12, 13, 21}; !equalInts(got, want) {
		t.Fatalf("ladder = %v, want %v", got, want)
	}

	tests := []struct {
		name      string
		current   int
		direction int
		hasExam   func(int) bool
		want      int
		wantErr   error
	}{
		{"harder skips easier level ahead", 11, 1, all, 21, nil},
		{"easier reaches level behind by difficulty", 11, -1, all, 12, nil},
		{"easier from hardest takes closest", 21, -1, all, 11, nil},
		{"harder falls back to undifficulted level", 11, 1, func(id int) bool { return id != 21 }, 13, nil},
		{"no difficulty moves by position", 13, 1, all, 21, nil},
		{"no difficulty moves back by position", 13, -1, all, 12, nil},
		{"nothing harder", 21, 1, all, 0, ErrNoAdjacentLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Adjacent(ladder, tt.current, tt.direction, tt.hasExam)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ID != tt.want {
				t.Fatalf("level = %d, want %d", got.ID, tt.want)
			}
			if cur := levelByID(levels, tt.current); cur.InternalDifficulty != nil && got.InternalDifficulty != nil {
				gap := (*got.InternalDifficulty - *cur.InternalDifficulty) * tt.direction
				if gap <= 0 {
					t.Errorf("move %d from %d landed on difficulty %d", tt.direction, *cur.InternalDifficulty, *got.InternalDifficulty)
				}
			}
		})
	}
}

func levelByID(levels []model.CurriculumLevel, id int) model.CurriculumLevel {
	for _, l := range levels {
		if l.ID == id {
			return l
		}
	}
	return model.CurriculumLevel{}
}
