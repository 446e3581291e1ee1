package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/primepath/primepath-backend/internal/config"
	"github.com/primepath/primepath-backend/internal/database"
	"github.com/primepath/primepath-backend/internal/model"
	"github.com/primepath/primepath-backend/internal/repository"
	"github.com/primepath/primepath-backend/internal/response"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	defaultOptionsCount = 5
	payloadCacheTTL     = 6 * time.Hour
)

// ExamService handles exam authoring and the cached student payload.
type ExamService struct {
	pool           *pgxpool.Pool
	examRepo       *repository.ExamRepository
	questionRepo   *repository.QuestionRepository
	placementRepo  *repository.PlacementRepository
	curriculumRepo *repository.CurriculumRepository
	perms          *ExamPermissionService
	media          *MediaService
	rdb            *redis.Client
	log            zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	pool *pgxpool.Pool,
	examRepo *repository.ExamRepository,
	questionRepo *repository.QuestionRepository,
	placementRepo *repository.PlacementRepository,
	curriculumRepo *repository.CurriculumRepository,
	perms *ExamPermissionService,
	media *MediaService,
	rdb *redis.Client,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		pool:           pool,
		examRepo:       examRepo,
		questionRepo:   questionRepo,
		placementRepo:  placementRepo,
		curriculumRepo: curriculumRepo,
		perms:          perms,
		media:          media,
		rdb:            rdb,
		log:            log.With().Str("component", "exam_service").Logger(),
	}
}

// Get returns an exam the actor may view.
func (s *ExamService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*model.Exam, error) {
	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Require(s.perms.CanTeacherViewExam(ctx, actor, exam)); err != nil {
		return nil, err
	}
	return exam, nil
}

// List returns the exams the actor may view, newest first.
func (s *ExamService) List(ctx context.Context, actor Actor, filter model.ExamFilter) ([]model.Exam, *response.Pagination, error) {
	filter.Page, filter.PerPage = normalizePage(filter.Page, filter.PerPage)
	if !actor.IsAdmin() {
		filter.VisibleToTeacher = actor.TeacherID
	}

	exams, total, err := s.examRepo.ListPaginated(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	if exams == nil {
		exams = []model.Exam{}
	}
	return exams, paginate(filter.Page, filter.PerPage, total), nil
}

// Create inserts an exam with numbered MCQ stubs for every question.
// Placement exams given a level are mapped to it in the next free slot.
func (s *ExamService) Create(ctx context.Context, actor Actor, req model.CreateExamRequest) (*model.Exam, error) {
	exam := &model.Exam{
		Kind:                req.Kind,
		Name:                req.Name,
		AuthorID:            &actor.TeacherID,
		CurriculumLevelID:   req.CurriculumLevelID,
		TimerMinutes:        req.TimerMinutes,
		TotalQuestions:      req.TotalQuestions,
		DefaultOptionsCount: req.DefaultOptionsCount,
		Instructions:        req.Instructions,
		IsActive:            true,
	}
	if exam.DefaultOptionsCount == 0 {
		exam.DefaultOptionsCount = defaultOptionsCount
	}

	switch req.Kind {
	case model.ExamKindRoutine:
		rt := req.RoutineType
		if rt == "" {
			rt = model.RoutineTypeReview
		}
		exam.RoutineType = &rt
		if req.AcademicYear != "" {
			exam.AcademicYear = &req.AcademicYear
		}
	case model.ExamKindPlacement:
		if len(req.ClassCodes) > 0 || req.RoutineType != "" {
			return nil, ErrExamKindMismatch
		}
	}

	err := database.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		exams := s.examRepo.WithTx(tx)
		if err := exams.Create(ctx, exam); err != nil {
			return fmt.Errorf("create exam: %w", err)
		}
		if err := s.questionRepo.WithTx(tx).ReplaceAll(ctx, exam.ID, stubQuestions(exam)); err != nil {
			return fmt.Errorf("create questions: %w", err)
		}
		if exam.Kind == model.ExamKindRoutine && len(req.ClassCodes) > 0 {
			if err := exams.ReplaceClassCodes(ctx, exam.ID, req.ClassCodes); err != nil {
				return fmt.Errorf("set classes: %w", err)
			}
		}
		if exam.Kind == model.ExamKindPlacement && exam.CurriculumLevelID != nil {
			placements := s.placementRepo.WithTx(tx)
			slot, err := placements.NextSlot(ctx, *exam.CurriculumLevelID)
			if err != nil {
				return fmt.Errorf("next slot: %w", err)
			}
			m := &model.ExamLevelMapping{CurriculumLevelID: *exam.CurriculumLevelID, ExamID: exam.ID, Slot: slot}
			if err := placements.CreateMapping(ctx, m); err != nil {
				return fmt.Errorf("map exam: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("exam_id", exam.ID.String()).Str("kind", string(exam.Kind)).
		Int("teacher_id", actor.TeacherID).Msg("Exam created")
	return s.examRepo.GetByID(ctx, exam.ID)
}

func stubQuestions(exam *model.Exam) []model.Question {
	qs := make([]model.Question, exam.TotalQuestions)
	for i := range qs {
		qs[i] = model.Question{
			QuestionNumber: i + 1,
			QuestionType:   model.QuestionTypeMCQ,
			Points:         1,
			OptionsCount:   exam.DefaultOptionsCount,
		}
	}
	return qs
}

// Update applies the non-nil fields of req.
func (s *ExamService) Update(ctx context.Context, actor Actor, id uuid.UUID, req model.UpdateExamRequest) (*model.Exam, error) {
	exam, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		exam.Name = *req.Name
	}
	if req.CurriculumLevelID != nil {
		exam.CurriculumLevelID = req.CurriculumLevelID
	}
	if req.TimerMinutes != nil {
		exam.TimerMinutes = *req.TimerMinutes
	}
	if req.DefaultOptionsCount != nil {
		exam.DefaultOptionsCount = *req.DefaultOptionsCount
	}
	if req.Instructions != nil {
		exam.Instructions = *req.Instructions
	}
	if req.IsActive != nil {
		exam.IsActive = *req.IsActive
	}
	if req.RoutineType != nil || req.AcademicYear != nil {
		if exam.Kind != model.ExamKindRoutine {
			return nil, ErrExamKindMismatch
		}
		if req.RoutineType != nil {
			exam.RoutineType = req.RoutineType
		}
		if req.AcademicYear != nil {
			exam.AcademicYear = req.AcademicYear
		}
	}

	if err := s.examRepo.Update(ctx, exam); err != nil {
		return nil, err
	}
	s.invalidatePayload(ctx, id)
	return s.examRepo.GetByID(ctx, id)
}

// Delete removes an exam and its uploaded files.
func (s *ExamService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := Require(s.perms.CanTeacherDeleteExam(ctx, actor, exam)); err != nil {
		return err
	}
	audio, err := s.questionRepo.ListAudio(ctx, id)
	if err != nil {
		return fmt.Errorf("list audio: %w", err)
	}

	if err := s.examRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidatePayload(ctx, id)

	files := []string{exam.PDFFilePath}
	for _, a := range audio {
		files = append(files, a.FilePath)
	}
	for _, f := range files {
		if f == "" {
			continue
		}
		if err := s.media.Remove(f); err != nil {
			s.log.Warn().Err(err).Str("path", f).Msg("Failed to remove exam file")
		}
	}

	s.log.Info().Str("exam_id", id.String()).Int("teacher_id", actor.TeacherID).Msg("Exam deleted")
	return nil
}

// SetClasses replaces the classes a routine exam targets.
func (s *ExamService) SetClasses(ctx context.Context, actor Actor, id uuid.UUID, codes []string) (*model.Exam, error) {
	exam, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if exam.Kind != model.ExamKindRoutine {
		return nil, ErrExamKindMismatch
	}
	if err := s.examRepo.ReplaceClassCodes(ctx, id, codes); err != nil {
		return nil, err
	}
	return s.examRepo.GetByID(ctx, id)
}

// ─── Questions ──────────────────────────────────────────────────────────────

// ListQuestions returns the questions of an exam, answer keys included.
func (s *ExamService) ListQuestions(ctx context.Context, actor Actor, id uuid.UUID) ([]model.Question, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	qs, err := s.questionRepo.ListByExam(ctx, id)
	if qs == nil && err == nil {
		qs = []model.Question{}
	}
	return qs, err
}

// ReplaceQuestions makes req the exact question set and updates total_questions.
func (s *ExamService) ReplaceQuestions(ctx context.Context, actor Actor, id uuid.UUID, req model.ReplaceQuestionsRequest) ([]model.Question, error) {
	exam, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool, len(req.Questions))
	qs := make([]model.Question, len(req.Questions))
	for i, q := range req.Questions {
		if seen[q.QuestionNumber] {
			return nil, ErrDuplicateNumber
		}
		seen[q.QuestionNumber] = true

		points := 1
		if q.Points != nil {
			points = *q.Points
		}
		options := q.OptionsCount
		if options == 0 {
			options = exam.DefaultOptionsCount
		}
		qs[i] = model.Question{
			QuestionNumber: q.QuestionNumber,
			QuestionType:   q.QuestionType,
			CorrectAnswer:  q.CorrectAnswer,
			Points:         points,
			OptionsCount:   options,
		}
	}

	err = database.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.questionRepo.WithTx(tx).ReplaceAll(ctx, id, qs); err != nil {
			return fmt.Errorf("replace questions: %w", err)
		}
		return s.examRepo.WithTx(tx).SetTotalQuestions(ctx, id, len(qs))
	})
	if err != nil {
		return nil, err
	}
	s.invalidatePayload(ctx, id)
	return s.questionRepo.ListByExam(ctx, id)
}

// UpdateQuestion applies the non-nil fields of req to one question.
func (s *ExamService) UpdateQuestion(ctx context.Context, actor Actor, examID, questionID uuid.UUID, req model.UpdateQuestionRequest) (*model.Question, error) {
	if _, err := s.editable(ctx, actor, examID); err != nil {
		return nil, err
	}
	q, err := s.questionRepo.GetByID(ctx, examID, questionID)
	if err != nil {
		return nil, err
	}
	if req.QuestionType != nil {
		q.QuestionType = *req.QuestionType
	}
	if req.CorrectAnswer != nil {
		q.CorrectAnswer = *req.CorrectAnswer
	}
	if req.Points != nil {
		q.Points = *req.Points
	}
	if req.OptionsCount != nil {
		q.OptionsCount = *req.OptionsCount
	}
	if err := s.questionRepo.Update(ctx, q); err != nil {
		return nil, err
	}
	s.invalidatePayload(ctx, examID)
	return q, nil
}

// ─── Files ──────────────────────────────────────────────────────────────────

// UploadPDF stores the exam paper and replaces the previous one.
func (s *ExamService) UploadPDF(ctx context.Context, actor Actor, id uuid.UUID, file multipart.File, header *multipart.FileHeader) (*model.Exam, error) {
	exam, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	path, err := s.media.SaveUpload(file, header, MediaPDF)
	if err != nil {
		return nil, err
	}
	if err := s.examRepo.SetPDFPath(ctx, id, path); err != nil {
		_ = s.media.Remove(path)
		return nil, err
	}
	if exam.PDFFilePath != "" {
		if err := s.media.Remove(exam.PDFFilePath); err != nil {
			s.log.Warn().Err(err).Str("path", exam.PDFFilePath).Msg("Failed to remove old exam paper")
		}
	}
	s.invalidatePayload(ctx, id)
	return s.examRepo.GetByID(ctx, id)
}

// UploadAudio stores a listening clip covering a range of questions.
func (s *ExamService) UploadAudio(ctx context.Context, actor Actor, id uuid.UUID, form model.AudioFileForm, file multipart.File, header *multipart.FileHeader) (*model.AudioFile, error) {
	exam, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if form.StartQuestion < 1 || form.EndQuestion > exam.TotalQuestions || form.StartQuestion > form.EndQuestion {
		return nil, ErrQuestionRange
	}
	path, err := s.media.SaveUpload(file, header, MediaAudio)
	if err != nil {
		return nil, err
	}
	a := &model.AudioFile{
		ExamID:        id,
		Name:          form.Name,
		FilePath:      path,
		StartQuestion: form.StartQuestion,
		EndQuestion:   form.EndQuestion,
	}
	if err := s.questionRepo.CreateAudio(ctx, a); err != nil {
		_ = s.media.Remove(path)
		return nil, err
	}
	s.invalidatePayload(ctx, id)
	return a, nil
}

// ListAudio returns the audio files of an exam.
func (s *ExamService) ListAudio(ctx context.Context, actor Actor, id uuid.UUID) ([]model.AudioFile, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	files, err := s.questionRepo.ListAudio(ctx, id)
	if files == nil && err == nil {
		files = []model.AudioFile{}
	}
	return files, err
}

// DeleteAudio removes an audio file and its stored clip.
func (s *ExamService) DeleteAudio(ctx context.Context, actor Actor, examID, audioID uuid.UUID) error {
	if _, err := s.editable(ctx, actor, examID); err != nil {
		return err
	}
	a, err := s.questionRepo.GetAudio(ctx, examID, audioID)
	if err != nil {
		return err
	}
	if err := s.questionRepo.DeleteAudio(ctx, examID, audioID); err != nil {
		return err
	}
	if err := s.media.Remove(a.FilePath); err != nil {
		s.log.Warn().Err(err).Str("path", a.FilePath).Msg("Failed to remove audio file")
	}
	s.invalidatePayload(ctx, examID)
	return nil
}

// ─── Student payload ────────────────────────────────────────────────────────

// Payload returns the student-facing view of an exam, served from Redis when cached.
func (s *ExamService) Payload(ctx context.Context, exam *model.Exam) (*model.ExamPayload, error) {
	key := config.CacheKey.ExamPayloadKey(exam.ID.String())
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var payload model.ExamPayload
		if err := json.Unmarshal(data, &payload); err == nil {
			return &payload, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Str("exam_id", exam.ID.String()).Msg("Payload cache read failed")
	}

	payload, err := s.buildPayload(ctx, exam)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(payload); err == nil {
		if err := s.rdb.Set(ctx, key, data, payloadCacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Str("exam_id", exam.ID.String()).Msg("Payload cache write failed")
		}
	}
	return payload, nil
}

func (s *ExamService) buildPayload(ctx context.Context, exam *model.Exam) (*model.ExamPayload, error) {
	questions, err := s.questionRepo.ListByExam(ctx, exam.ID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	audio, err := s.questionRepo.ListAudio(ctx, exam.ID)
	if err != nil {
		return nil, fmt.Errorf("list audio: %w", err)
	}
	if audio == nil {
		audio = []model.AudioFile{}
	}

	payload := &model.ExamPayload{
		ExamID:       exam.ID,
		Name:         exam.Name,
		TimerMinutes: exam.TimerMinutes,
		PDFFilePath:  exam.PDFFilePath,
		Instructions: exam.Instructions,
		Questions:    ForStudent(questions),
		AudioFiles:   audio,
	}
	if exam.CurriculumLevelID != nil {
		level, err := s.curriculumRepo.GetLevel(ctx, *exam.CurriculumLevelID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("get level: %w", err)
		}
		if level != nil {
			payload.CurriculumName = level.FullName()
		}
	}
	return payload, nil
}

// ForStudent strips answer keys from questions.
func ForStudent(questions []model.Question) []model.QuestionForStudent {
	out := make([]model.QuestionForStudent, len(questions))
	for i, q := range questions {
		out[i] = model.QuestionForStudent{
			ID:             q.ID,
			QuestionNumber: q.QuestionNumber,
			QuestionType:   q.QuestionType,
			Points:         q.Points,
			OptionsCount:   q.OptionsCount,
		}
	}
	return out
}

func (s *ExamService) invalidatePayload(ctx context.Context, id uuid.UUID) {
	if err := s.rdb.Del(ctx, config.CacheKey.ExamPayloadKey(id.String())).Err(); err != nil {
		s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Payload cache invalidation failed")
	}
}

func (s *ExamService) editable(ctx context.Context, actor Actor, id uuid.UUID) (*model.Exam, error) {
	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Require(s.perms.CanTeacherEditExam(ctx, actor, exam)); err != nil {
		return nil, err
	}
	return exam, nil
}
