package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/primepath/primepath-backend/internal/model"
	"github.com/primepath/primepath-backend/internal/placement"
)

// PlacementStore is the slice of the placement repository the service reads.
type PlacementStore interface {
	ListRules(ctx context.Context, grade *int) ([]model.PlacementRule, error)
	ListMappings(ctx context.Context, levelID *int) ([]model.ExamLevelMapping, error)
	LevelsWithActiveExam(ctx context.Context) (map[int]bool, error)
}

// LevelStore is the slice of the curriculum repository the service reads.
type LevelStore interface {
	ListLevels(ctx context.Context) ([]model.CurriculumLevel, error)
	GetLevel(ctx context.Context, id int) (*model.CurriculumLevel, error)
}

// Placement is the outcome of placing a student.
type Placement struct {
	Percentile float64               `json:"percentile"`
	RuleID     int                   `json:"rule_id"`
	Level      model.CurriculumLevel `json:"level"`
	ExamID     uuid.UUID             `json:"exam_id"`
}

// PlacementService turns grade and academic rank into a level and an exam.
type PlacementService struct {
	rules  PlacementStore
	levels LevelStore
}

// NewPlacementService creates a new PlacementService.
func NewPlacementService(rules PlacementStore, levels LevelStore) *PlacementService {
	return &PlacementService{rules: rules, levels: levels}
}

// MatchRule returns the winning rule for a grade and percentile.
func (s *PlacementService) MatchRule(ctx context.Context, grade int, percentile float64) (*model.PlacementRule, error) {
	rules, err := s.rules.ListRules(ctx, &grade)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	rule, err := placement.MatchRule(rules, grade, percentile)
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// FindExamForLevel returns the active exam in the lowest slot of a level.
func (s *PlacementService) FindExamForLevel(ctx context.Context, levelID int) (uuid.UUID, error) {
	mappings, err := s.rules.ListMappings(ctx, &levelID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("list mappings: %w", err)
	}
	m, ok := placement.FirstActiveMapping(mappings)
	if !ok {
		return uuid.Nil, ErrNoExamForLevel
	}
	return m.ExamID, nil
}

// AdjustDifficulty moves one step up (+1) or down (-1) the ladder to the
// nearest level that has an active exam.
func (s *PlacementService) AdjustDifficulty(ctx context.Context, currentLevelID, direction int) (*model.CurriculumLevel, uuid.UUID, error) {
	levels, err := s.levels.ListLevels(ctx)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("list levels: %w", err)
	}
	withExam, err := s.rules.LevelsWithActiveExam(ctx)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("levels with exam: %w", err)
	}

	next, err := placement.Adjacent(placement.SortLadder(levels), currentLevelID, direction,
		func(id int) bool { return withExam[id] })
	if err != nil {
		return nil, uuid.Nil, err
	}
	examID, err := s.FindExamForLevel(ctx, next.ID)
	if err != nil {
		return nil, uuid.Nil, err
	}
	return &next, examID, nil
}

// Place runs rank to percentile, rule, level and exam.
func (s *PlacementService) Place(ctx context.Context, grade int, rank model.AcademicRank) (*Placement, error) {
	percentile, err := placement.RankToPercentile(rank)
	if err != nil {
		return nil, err
	}
	rule, err := s.MatchRule(ctx, grade, percentile)
	if err != nil {
		return nil, err
	}
	level, err := s.levels.GetLevel(ctx, rule.CurriculumLevelID)
	if err != nil {
		return nil, fmt.Errorf("get level: %w", err)
	}
	examID, err := s.FindExamForLevel(ctx, level.ID)
	if err != nil {
		return nil, err
	}
	return &Placement{Percentile: percentile, RuleID: rule.ID, Level: *level, ExamID: examID}, nil
}
