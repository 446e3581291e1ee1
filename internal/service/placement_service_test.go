package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/primepath/primepath-backend/internal/model"
	"github.com/primepath/primepath-backend/internal/placement"
	"github.com/primepath/primepath-backend/internal/repository"
)

type fakePlacementStore struct {
	rules    []model.PlacementRule
	mappings []model.ExamLevelMapping
}

func (f *fakePlacementStore) ListRules(_ context.Context, grade *int) ([]model.PlacementRule, error) {
	var out []model.PlacementRule
	for _, r := range f.rules {
		if grade == nil || r.Grade == *grade {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakePlacementStore) ListMappings(_ context.Context, levelID *int) ([]model.ExamLevelMapping, error) {
	var out []model.ExamLevelMapping
	for _, m := range f.mappings {
		if levelID == nil || m.CurriculumLevelID == *levelID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakePlacementStore) LevelsWithActiveExam(context.Context) (map[int]bool, error) {
	out := map[int]bool{}
	for _, m := range f.mappings {
		if m.ExamActive {
			out[m.CurriculumLevelID] = true
		}
	}
	return out, nil
}

type fakeLevelStore struct {
	levels []model.CurriculumLevel
}

func (f *fakeLevelStore) ListLevels(context.Context) ([]model.CurriculumLevel, error) {
	return f.levels, nil
}

func (f *fakeLevelStore) GetLevel(_ context.Context, id int) (*model.CurriculumLevel, error) {
	for _, l := range f.levels {
		if l.ID == id {
			return &l, nil
		}
	}
	return nil, repository.ErrNotFound
}

var (
	examL1  = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	examL2a = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	examL2b = uuid.MustParse("00000000-0000-0000-0000-000000000003")
	examL4  = uuid.MustParse("00000000-0000-0000-0000-000000000004")
)

func newTestPlacementService() *PlacementService {
	levels := &fakeLevelStore{levels: []model.CurriculumLevel{
		{ID: 1, SubProgramID: 1, LevelNumber: 1, ProgramID: 1, ProgramName: "PRIME CORE", SubProgramName: "Phonics"},
		{ID: 2, SubProgramID: 1, LevelNumber: 2, ProgramID: 1, ProgramName: "PRIME CORE", SubProgramName: "Phonics"},
		{ID: 3, SubProgramID: 1, LevelNumber: 3, ProgramID: 1, ProgramName: "PRIME CORE", SubProgramName: "Phonics"},
		{ID: 4, SubProgramID: 2, LevelNumber: 1, ProgramID: 1, ProgramName: "PRIME CORE", SubProgramName: "Reading", SubProgramOrder: 1},
	}}
	store := &fakePlacementStore{
		rules: []model.PlacementRule{
			{ID: 1, Grade: 5, MinPercentile: 0, MaxPercentile: 30, CurriculumLevelID: 4, Priority: 1},
			{ID: 2, Grade: 5, MinPercentile: 30.01, MaxPercentile: 100, CurriculumLevelID: 2, Priority: 1},
			{ID: 3, Grade: 6, MinPercentile: 0, MaxPercentile: 100, CurriculumLevelID: 3, Priority: 1},
		},
		mappings: []model.ExamLevelMapping{
			{ID: 1, CurriculumLevelID: 1, ExamID: examL1, Slot: 1, ExamActive: true},
			{ID: 2, CurriculumLevelID: 2, ExamID: examL2a, Slot: 1, ExamActive: false},
			{ID: 3, CurriculumLevelID: 2, ExamID: examL2b, Slot: 2, ExamActive: true},
			{ID: 4, CurriculumLevelID: 4, ExamID: examL4, Slot: 1, ExamActive: true},
		},
	}
	return NewPlacementService(store, levels)
}

func TestPlace(t *testing.T) {
	s := newTestPlacementService()
	ctx := context.Background()

	p, err := s.Place(ctx, 5, model.RankTop10)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if p.Level.ID != 4 || p.ExamID != examL4 || p.Percentile != 10 || p.RuleID != 1 {
		t.Fatalf("Place(5, TOP_10) = %+v", p)
	}

	p, err = s.Place(ctx, 5, model.RankBelow50)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if p.Level.ID != 2 || p.ExamID != examL2b {
		t.Fatalf("Place(5, BELOW_50) should skip the inactive slot, got %+v", p)
	}
}

func TestPlaceErrors(t *testing.T) {
	s := newTestPlacementService()
	ctx := context.Background()

	if _, err := s.Place(ctx, 9, model.RankTop5); !errors.Is(err, placement.ErrNoPlacementRule) {
		t.Fatalf("unknown grade err = %v", err)
	}
	if _, err := s.Place(ctx, 6, model.RankTop5); !errors.Is(err, ErrNoExamForLevel) {
		t.Fatalf("level without exam err = %v", err)
	}
	if _, err := s.Place(ctx, 5, "TOP_1"); !errors.Is(err, placement.ErrUnknownRank) {
		t.Fatalf("unknown rank err = %v", err)
	}
}

func TestAdjustDifficulty(t *testing.T) {
	s := newTestPlacementService()
	ctx := context.Background()

	level, examID, err := s.AdjustDifficulty(ctx, 2, 1)
	if err != nil {
		t.Fatalf("AdjustDifficulty up: %v", err)
	}
	if level.ID != 4 || examID != examL4 {
		t.Fatalf("harder than level 2 should skip examless level 3, got level %d exam %s", level.ID, examID)
	}

	level, examID, err = s.AdjustDifficulty(ctx, 2, -1)
	if err != nil {
		t.Fatalf("AdjustDifficulty down: %v", err)
	}
	if level.ID != 1 || examID != examL1 {
		t.Fatalf("easier than level 2 = level %d exam %s", level.ID, examID)
	}

	if _, _, err := s.AdjustDifficulty(ctx, 4, 1); !errors.Is(err, placement.ErrNoAdjacentLevel) {
		t.Fatalf("top of ladder err = %v", err)
	}
}
