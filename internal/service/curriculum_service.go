package service

import (
	"context"
	"fmt"

	"github.com/primepath/primepath-backend/internal/model"
	"github.com/primepath/primepath-backend/internal/placement"
	"github.com/primepath/primepath-backend/internal/repository"
)

// CurriculumService manages the program ladder, placement rules and exam mappings.
type CurriculumService struct {
	curriculumRepo *repository.CurriculumRepository
	placementRepo  *repository.PlacementRepository
	examRepo       *repository.ExamRepository
}

// NewCurriculumService creates a new CurriculumService.
func NewCurriculumService(
	curriculumRepo *repository.CurriculumRepository,
	placementRepo *repository.PlacementRepository,
	examRepo *repository.ExamRepository,
) *CurriculumService {
	return &CurriculumService{
		curriculumRepo: curriculumRepo,
		placementRepo:  placementRepo,
		examRepo:       examRepo,
	}
}

// ─── Programs ───────────────────────────────────────────────────────────────

func (s *CurriculumService) ListPrograms(ctx context.Context) ([]model.Program, error) {
	programs, err := s.curriculumRepo.ListPrograms(ctx)
	if programs == nil && err == nil {
		programs = []model.Program{}
	}
	return programs, err
}

func (s *CurriculumService) GetProgram(ctx context.Context, id int) (*model.Program, error) {
	return s.curriculumRepo.GetProgram(ctx, id)
}

func (s *CurriculumService) CreateProgram(ctx context.Context, req model.ProgramRequest) (*model.Program, error) {
	p := &model.Program{
		Name:            req.Name,
		GradeRangeStart: req.GradeRangeStart,
		GradeRangeEnd:   req.GradeRangeEnd,
		SortOrder:       req.SortOrder,
	}
	if err := s.curriculumRepo.CreateProgram(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *CurriculumService) UpdateProgram(ctx context.Context, id int, req model.ProgramRequest) (*model.Program, error) {
	p := &model.Program{
		ID:              id,
		Name:            req.Name,
		GradeRangeStart: req.GradeRangeStart,
		GradeRangeEnd:   req.GradeRangeEnd,
		SortOrder:       req.SortOrder,
	}
	if err := s.curriculumRepo.UpdateProgram(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *CurriculumService) DeleteProgram(ctx context.Context, id int) error {
	return s.curriculumRepo.DeleteProgram(ctx, id)
}

// ─── SubPrograms ────────────────────────────────────────────────────────────

func (s *CurriculumService) ListSubPrograms(ctx context.Context, programID *int) ([]model.SubProgram, error) {
	subs, err := s.curriculumRepo.ListSubPrograms(ctx, programID)
	if subs == nil && err == nil {
		subs = []model.SubProgram{}
	}
	return subs, err
}

func (s *CurriculumService) CreateSubProgram(ctx context.Context, req model.SubProgramRequest) (*model.SubProgram, error) {
	sp := &model.SubProgram{ProgramID: req.ProgramID, Name: req.Name, SortOrder: req.SortOrder}
	if err := s.curriculumRepo.CreateSubProgram(ctx, sp); err != nil {
		return nil, err
	}
	return sp, nil
}

func (s *CurriculumService) UpdateSubProgram(ctx context.Context, id int, req model.SubProgramRequest) (*model.SubProgram, error) {
	sp := &model.SubProgram{ID: id, ProgramID: req.ProgramID, Name: req.Name, SortOrder: req.SortOrder}
	if err := s.curriculumRepo.UpdateSubProgram(ctx, sp); err != nil {
		return nil, err
	}
	return sp, nil
}

func (s *CurriculumService) DeleteSubProgram(ctx context.Context, id int) error {
	return s.curriculumRepo.DeleteSubProgram(ctx, id)
}

// ─── Levels ─────────────────────────────────────────────────────────────────

// Ladder returns every level ordered by effective difficulty.
func (s *CurriculumService) Ladder(ctx context.Context) ([]model.CurriculumLevel, error) {
	levels, err := s.curriculumRepo.ListLevels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list levels: %w", err)
	}
	if levels == nil {
		return []model.CurriculumLevel{}, nil
	}
	return placement.SortLadder(levels), nil
}

func (s *CurriculumService) GetLevel(ctx context.Context, id int) (*model.CurriculumLevel, error) {
	return s.curriculumRepo.GetLevel(ctx, id)
}

func (s *CurriculumService) CreateLevel(ctx context.Context, req model.CurriculumLevelRequest) (*model.CurriculumLevel, error) {
	l := &model.CurriculumLevel{
		SubProgramID:       req.SubProgramID,
		LevelNumber:        req.LevelNumber,
		Description:        req.Description,
		InternalDifficulty: req.InternalDifficulty,
	}
	if err := s.curriculumRepo.CreateLevel(ctx, l); err != nil {
		return nil, err
	}
	return s.curriculumRepo.GetLevel(ctx, l.ID)
}

func (s *CurriculumService) UpdateLevel(ctx context.Context, id int, req model.CurriculumLevelRequest) (*model.CurriculumLevel, error) {
	l := &model.CurriculumLevel{
		ID:                 id,
		SubProgramID:       req.SubProgramID,
		LevelNumber:        req.LevelNumber,
		Description:        req.Description,
		InternalDifficulty: req.InternalDifficulty,
	}
	if err := s.curriculumRepo.UpdateLevel(ctx, l); err != nil {
		return nil, err
	}
	return s.curriculumRepo.GetLevel(ctx, id)
}

func (s *CurriculumService) DeleteLevel(ctx context.Context, id int) error {
	return s.curriculumRepo.DeleteLevel(ctx, id)
}

// ─── Placement rules ────────────────────────────────────────────────────────

// ListRules returns placement rules, optionally for one grade.
func (s *CurriculumService) ListRules(ctx context.Context, grade *int) ([]model.PlacementRule, error) {
	rules, err := s.placementRepo.ListRules(ctx, grade)
	if rules == nil && err == nil {
		rules = []model.PlacementRule{}
	}
	return rules, err
}

func (s *CurriculumService) CreateRule(ctx context.Context, req model.PlacementRuleRequest) (*model.PlacementRule, error) {
	pr := ruleFromRequest(req)
	if err := s.placementRepo.CreateRule(ctx, pr); err != nil {
		return nil, err
	}
	return pr, nil
}

func (s *CurriculumService) UpdateRule(ctx context.Context, id int, req model.PlacementRuleRequest) (*model.PlacementRule, error) {
	pr := ruleFromRequest(req)
	pr.ID = id
	if err := s.placementRepo.UpdateRule(ctx, pr); err != nil {
		return nil, err
	}
	return pr, nil
}

func (s *CurriculumService) DeleteRule(ctx context.Context, id int) error {
	return s.placementRepo.DeleteRule(ctx, id)
}

func ruleFromRequest(req model.PlacementRuleRequest) *model.PlacementRule {
	priority := req.Priority
	if priority < 1 {
		priority = 1
	}
	return &model.PlacementRule{
		Grade:             req.Grade,
		MinPercentile:     *req.MinPercentile,
		MaxPercentile:     *req.MaxPercentile,
		CurriculumLevelID: req.CurriculumLevelID,
		Priority:          priority,
	}
}

// ─── Exam level mappings ────────────────────────────────────────────────────

// ListMappings returns exam mappings, optionally for one level.
func (s *CurriculumService) ListMappings(ctx context.Context, levelID *int) ([]model.ExamLevelMapping, error) {
	mappings, err := s.placementRepo.ListMappings(ctx, levelID)
	if mappings == nil && err == nil {
		mappings = []model.ExamLevelMapping{}
	}
	return mappings, err
}

// CreateMapping attaches a placement exam to a level. A zero slot takes the next free one.
func (s *CurriculumService) CreateMapping(ctx context.Context, req model.ExamLevelMappingRequest) (*model.ExamLevelMapping, error) {
	exam, err := s.examRepo.GetByID(ctx, req.ExamID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if exam.Kind != model.ExamKindPlacement {
		return nil, ErrExamKindMismatch
	}
	if _, err := s.curriculumRepo.GetLevel(ctx, req.CurriculumLevelID); err != nil {
		return nil, fmt.Errorf("get level: %w", err)
	}

	slot := req.Slot
	if slot == 0 {
		if slot, err = s.placementRepo.NextSlot(ctx, req.CurriculumLevelID); err != nil {
			return nil, fmt.Errorf("next slot: %w", err)
		}
	}

	m := &model.ExamLevelMapping{
		CurriculumLevelID: req.CurriculumLevelID,
		ExamID:            req.ExamID,
		Slot:              slot,
		ExamName:          exam.Name,
		ExamActive:        exam.IsActive,
	}
	if err := s.placementRepo.CreateMapping(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// DeleteMapping removes an exam from a level's placement slots.
func (s *CurriculumService) DeleteMapping(ctx context.Context, id int) error {
	return s.placementRepo.DeleteMapping(ctx, id)
}
