package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/primepath/primepath-backend/internal/config"
	"github.com/primepath/primepath-backend/internal/grading"
	"github.com/primepath/primepath-backend/internal/model"
	"github.com/primepath/primepath-backend/internal/placement"
	"github.com/primepath/primepath-backend/internal/repository"
	"github.com/primepath/primepath-backend/internal/response"
	"github.com/rs/zerolog"
)

const (
	maxDifficultyAdjustments = 2
	historyLimit             = 50
	sweepBatchSize           = 100

	metaDeadline       = "deadline"
	metaStudent        = "student_id"
	metaKind           = "kind"
	metaQuestionPrefix = "q:"
)

// ExamLookup loads an exam by id.
type ExamLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
}

// QuestionLookup reads the questions of an exam.
type QuestionLookup interface {
	ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error)
	GetByID(ctx context.Context, examID, id uuid.UUID) (*model.Question, error)
}

// StudentLookup loads a student profile by id.
type StudentLookup interface {
	GetByID(ctx context.Context, id int) (*model.StudentProfile, error)
}

// StudentClassLister lists the classes a student is assigned to.
type StudentClassLister interface {
	ListForStudent(ctx context.Context, studentID int) ([]model.Class, error)
}

// LevelPlacer places students on the ladder and moves them along it.
type LevelPlacer interface {
	Place(ctx context.Context, grade int, rank model.AcademicRank) (*Placement, error)
	AdjustDifficulty(ctx context.Context, currentLevelID, direction int) (*model.CurriculumLevel, uuid.UUID, error)
}

// ExamViewer resolves exams for teachers and their student payload.
type ExamViewer interface {
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*model.Exam, error)
	Payload(ctx context.Context, exam *model.Exam) (*model.ExamPayload, error)
}

// ExamEditGuard decides whether a teacher may change an exam's results.
type ExamEditGuard interface {
	CanTeacherEditExam(ctx context.Context, actor Actor, exam *model.Exam) (bool, error)
}

// SessionDeps groups the collaborators of a SessionService.
type SessionDeps struct {
	Sessions  SessionStore
	Cache     SessionCache
	Exams     ExamLookup
	Questions QuestionLookup
	Students  StudentLookup
	Classes   StudentClassLister
	Placement LevelPlacer
	Viewer    ExamViewer
	Perms     ExamEditGuard
}

// SessionService runs placement and routine exam sessions.
//
// Answers are buffered in the session cache and queued for the answer
// worker. Completion reads the buffer, so grading never waits for the queue.
type SessionService struct {
	sessions  SessionStore
	cache     SessionCache
	exams     ExamLookup
	questions QuestionLookup
	students  StudentLookup
	classes   StudentClassLister
	placement LevelPlacer
	viewer    ExamViewer
	perms     ExamEditGuard
	grace     time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(cfg *config.Config, deps SessionDeps, log zerolog.Logger) *SessionService {
	return &SessionService{
		sessions:  deps.Sessions,
		cache:     deps.Cache,
		exams:     deps.Exams,
		questions: deps.Questions,
		students:  deps.Students,
		classes:   deps.Classes,
		placement: deps.Placement,
		viewer:    deps.Viewer,
		perms:     deps.Perms,
		grace:     cfg.AnswerGracePeriod,
		now:       time.Now,
		log:       log.With().Str("component", "session_service").Logger(),
	}
}

// ─── Starting ───────────────────────────────────────────────────────────────

// StartPlacement places a prospective student and opens a session on the
// placement exam of the chosen level. studentID is set when a student is logged in.
func (s *SessionService) StartPlacement(ctx context.Context, studentID *int, req model.StartPlacementRequest) (*model.SessionStartResponse, error) {
	placed, err := s.placement.Place(ctx, req.Grade, req.AcademicRank)
	if err != nil {
		return nil, err
	}
	exam, err := s.exams.GetByID(ctx, placed.ExamID)
	if err != nil {
		return nil, err
	}

	sess := &model.StudentSession{
		ExamID:          exam.ID,
		StudentID:       studentID,
		StudentName:     strings.TrimSpace(req.StudentName),
		ParentPhone:     strings.TrimSpace(req.ParentPhone),
		SchoolName:      strings.TrimSpace(req.SchoolName),
		Grade:           req.Grade,
		AcademicRank:    req.AcademicRank,
		OriginalLevelID: &placed.Level.ID,
		FinalLevelID:    &placed.Level.ID,
	}
	resp, err := s.open(ctx, sess, exam)
	if err != nil {
		return nil, err
	}
	resp.Level = &placed.Level

	s.log.Info().Str("session_id", sess.ID.String()).Int("level_id", placed.Level.ID).
		Float64("percentile", placed.Percentile).Msg("Placement session started")
	return resp, nil
}

// StartRoutine opens, or resumes, a student's session on a routine exam
// targeting one of their classes.
func (s *SessionService) StartRoutine(ctx context.Context, studentID int, examID uuid.UUID) (*model.SessionStartResponse, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if exam.Kind != model.ExamKindRoutine {
		return nil, ErrExamKindMismatch
	}
	if !exam.IsActive {
		return nil, ErrExamInactive
	}

	classes, err := s.classes.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	classCode, ok := sharedClass(classes, exam.ClassCodes)
	if !ok {
		return nil, ErrNotEnrolled
	}

	existing, err := s.sessions.GetInProgress(ctx, examID, studentID)
	switch {
	case err == nil:
		if !answerWindowOpen(existing.Deadline(), s.now(), s.grace) {
			if _, err := s.complete(ctx, existing.ID, true); err != nil {
				return nil, err
			}
			return nil, ErrSessionExpired
		}
		payload, err := s.viewer.Payload(ctx, exam)
		if err != nil {
			return nil, err
		}
		if err := s.primeMeta(ctx, existing, questionIDs(payload.Questions)); err != nil {
			return nil, err
		}
		return &model.SessionStartResponse{Session: *existing, Exam: *payload}, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	sess := &model.StudentSession{
		ExamID:      exam.ID,
		StudentID:   &studentID,
		StudentName: student.Name,
		ParentPhone: student.ParentPhone,
		SchoolName:  student.SchoolName,
		Grade:       student.Grade,
		ClassCode:   &classCode,
	}
	resp, err := s.open(ctx, sess, exam)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("session_id", sess.ID.String()).Int("student_id", studentID).
		Str("class_code", classCode).Msg("Routine session started")
	return resp, nil
}

func (s *SessionService) open(ctx context.Context, sess *model.StudentSession, exam *model.Exam) (*model.SessionStartResponse, error) {
	if !exam.IsActive {
		return nil, ErrExamInactive
	}
	payload, err := s.viewer.Payload(ctx, exam)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	sess.ExamName = exam.Name
	sess.ExamKind = exam.Kind
	sess.TimerMinutes = exam.TimerMinutes

	if err := s.primeMeta(ctx, sess, questionIDs(payload.Questions)); err != nil {
		return nil, err
	}
	return &model.SessionStartResponse{Session: *sess, Exam: *payload}, nil
}

func sharedClass(classes []model.Class, targets []string) (string, bool) {
	for _, c := range classes {
		for _, code := range targets {
			if c.Code == code {
				return code, true
			}
		}
	}
	return "", false
}

func questionIDs(qs []model.QuestionForStudent) []uuid.UUID {
	ids := make([]uuid.UUID, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	return ids
}

// ─── Session metadata cache ─────────────────────────────────────────────────

type sessionMeta struct {
	deadline  time.Time
	studentID int
	kind      model.ExamKind
	questions map[string]bool
}

func (s *SessionService) primeMeta(ctx context.Context, sess *model.StudentSession, qids []uuid.UUID) error {
	fields := map[string]any{
		metaDeadline: sess.Deadline().Unix(),
		metaStudent:  derefInt(sess.StudentID),
		metaKind:     string(sess.ExamKind),
	}
	for _, id := range qids {
		fields[metaQuestionPrefix+id.String()] = 1
	}
	return s.cache.PutMeta(ctx, sess.ID, fields, sess.Deadline().Add(s.grace+time.Hour))
}

func (s *SessionService) loadMeta(ctx context.Context, id uuid.UUID) (*sessionMeta, error) {
	vals, err := s.cache.Meta(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(vals) > 0 {
		return parseMeta(vals)
	}

	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Status == model.SessionStatusCompleted {
		return nil, ErrSessionCompleted
	}
	qs, err := s.questions.ListByExam(ctx, sess.ExamID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	ids := make([]uuid.UUID, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	if err := s.primeMeta(ctx, sess, ids); err != nil {
		return nil, err
	}

	meta := &sessionMeta{
		deadline:  sess.Deadline(),
		studentID: derefInt(sess.StudentID),
		kind:      sess.ExamKind,
		questions: make(map[string]bool, len(ids)),
	}
	for _, id := range ids {
		meta.questions[id.String()] = true
	}
	return meta, nil
}

func parseMeta(vals map[string]string) (*sessionMeta, error) {
	unix, err := strconv.ParseInt(vals[metaDeadline], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse deadline: %w", err)
	}
	student, err := strconv.Atoi(vals[metaStudent])
	if err != nil {
		return nil, fmt.Errorf("parse student: %w", err)
	}
	meta := &sessionMeta{
		deadline:  time.Unix(unix, 0),
		studentID: student,
		kind:      model.ExamKind(vals[metaKind]),
		questions: make(map[string]bool),
	}
	for k := range vals {
		if qid, ok := strings.CutPrefix(k, metaQuestionPrefix); ok {
			meta.questions[qid] = true
		}
	}
	return meta, nil
}

// authorize checks that owner may act on a session. A nil owner is the
// public placement flow, which may only touch placement sessions.
func authorize(owner *int, studentID int, kind model.ExamKind) error {
	if owner == nil {
		if kind != model.ExamKindPlacement {
			return ErrSessionNotOwned
		}
		return nil
	}
	if studentID != *owner {
		return ErrSessionNotOwned
	}
	return nil
}

func authorizeSession(owner *int, sess *model.StudentSession) error {
	return authorize(owner, derefInt(sess.StudentID), sess.ExamKind)
}

// answerWindowOpen reports whether answers are still accepted at now.
func answerWindowOpen(deadline, now time.Time, grace time.Duration) bool {
	return !now.After(deadline.Add(grace))
}

func remainingSeconds(deadline, now time.Time) int {
	d := deadline.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(d.Seconds())
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// ─── Answers ────────────────────────────────────────────────────────────────

// SaveAnswer buffers a single answer.
func (s *SessionService) SaveAnswer(ctx context.Context, owner *int, sessionID uuid.UUID, req model.SaveAnswerRequest) error {
	return s.SaveAnswers(ctx, owner, sessionID, []model.SaveAnswerRequest{req})
}

// SaveAnswers buffers answers in Redis and queues them for persistence.
// Answers are rejected once the timer and grace period have run out.
func (s *SessionService) SaveAnswers(ctx context.Context, owner *int, sessionID uuid.UUID, answers []model.SaveAnswerRequest) error {
	meta, err := s.loadMeta(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := authorize(owner, meta.studentID, meta.kind); err != nil {
		return err
	}
	if !answerWindowOpen(meta.deadline, s.now(), s.grace) {
		return ErrSessionExpired
	}

	fields := make(map[string]any, len(answers))
	jobs := make([][]byte, 0, len(answers))
	for _, a := range answers {
		if !meta.questions[a.QuestionID.String()] {
			return ErrUnknownQuestion
		}
		fields[a.QuestionID.String()] = a.Answer
		job, err := json.Marshal(model.PersistAnswerJob{SessionID: sessionID, QuestionID: a.QuestionID, Answer: a.Answer})
		if err != nil {
			return fmt.Errorf("marshal job: %w", err)
		}
		jobs = append(jobs, job)
	}

	return s.cache.BufferAnswers(ctx, sessionID, fields, jobs, meta.deadline.Add(s.grace+time.Hour))
}

// State returns the session, its remaining time and every saved answer.
func (s *SessionService) State(ctx context.Context, owner *int, sessionID uuid.UUID) (*model.SessionState, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := authorizeSession(owner, sess); err != nil {
		return nil, err
	}

	stored, err := s.sessions.ListAnswers(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	answers := make(map[string]string, len(stored))
	for _, a := range stored {
		answers[a.QuestionID.String()] = a.Answer
	}

	state := &model.SessionState{Session: *sess, Answers: answers}
	if sess.Status == model.SessionStatusInProgress {
		buffered, err := s.cache.BufferedAnswers(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		for qid, a := range buffered {
			answers[qid] = a
		}
		state.RemainingSeconds = remainingSeconds(sess.Deadline(), s.now())
	}
	return state, nil
}

// ─── Completion ─────────────────────────────────────────────────────────────

// Complete grades and closes a session. Completing a closed session returns
// its stored result.
func (s *SessionService) Complete(ctx context.Context, owner *int, sessionID uuid.UUID) (*model.SessionResult, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := authorizeSession(owner, sess); err != nil {
		return nil, err
	}
	return s.complete(ctx, sessionID, false)
}

func (s *SessionService) complete(ctx context.Context, id uuid.UUID, swept bool) (*model.SessionResult, error) {
	buffered, err := s.cache.BufferedAnswers(ctx, id)
	if err != nil {
		return nil, err
	}

	var closed bool
	err = s.sessions.InTx(ctx, func(tx SessionTx) error {
		sess, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if sess.Status == model.SessionStatusCompleted {
			return nil
		}

		stored, err := tx.ListAnswers(ctx, id)
		if err != nil {
			return fmt.Errorf("list answers: %w", err)
		}
		qs, err := tx.ListQuestions(ctx, sess.ExamID)
		if err != nil {
			return fmt.Errorf("list questions: %w", err)
		}

		grades, score, total, pct := gradeSession(qs, mergeAnswers(stored, buffered))
		if err := tx.StoreGrades(ctx, id, grades); err != nil {
			return fmt.Errorf("store grades: %w", err)
		}

		now := s.now()
		sess.CompletedAt = &now
		sess.Score = &score
		sess.TotalPoints = &total
		sess.Percentage = &pct
		sess.TimerExpired = swept || !answerWindowOpen(sess.Deadline(), now, s.grace)
		if err := tx.Complete(ctx, sess); err != nil {
			return err
		}
		closed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if closed {
		if err := s.cache.Clear(ctx, id); err != nil {
			s.log.Warn().Err(err).Str("session_id", id.String()).Msg("Failed to clear session cache")
		}
		s.log.Info().Str("session_id", id.String()).Bool("swept", swept).Msg("Session completed")
	}
	return s.result(ctx, id)
}

// mergeAnswers overlays buffered answers on stored ones. Buffered keys that
// are not question ids are ignored.
func mergeAnswers(stored []model.StudentAnswer, buffered map[string]string) map[uuid.UUID]string {
	out := make(map[uuid.UUID]string, len(stored)+len(buffered))
	for _, a := range stored {
		out[a.QuestionID] = a.Answer
	}
	for k, v := range buffered {
		qid, err := uuid.Parse(k)
		if err != nil {
			continue
		}
		out[qid] = v
	}
	return out
}

// gradeSession grades every question, unanswered ones included.
func gradeSession(qs []model.Question, answers map[uuid.UUID]string) ([]repository.GradedAnswer, int, int, float64) {
	grades := make([]repository.GradedAnswer, 0, len(qs))
	earned := make(map[string]int, len(qs))
	for _, q := range qs {
		ans := answers[q.ID]
		out := grading.Grade(q, ans)
		grades = append(grades, repository.GradedAnswer{
			QuestionID: q.ID,
			Answer:     ans,
			IsCorrect:  out.Correct,
			Points:     out.Points,
		})
		earned[q.ID.String()] = out.Points
	}
	score, total, pct := grading.Score(qs, earned)
	return grades, score, total, pct
}

func (s *SessionService) result(ctx context.Context, id uuid.UUID) (*model.SessionResult, error) {
	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	answers, err := s.sessions.ListAnswers(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	if answers == nil {
		answers = []model.StudentAnswer{}
	}
	return &model.SessionResult{Session: *sess, Answers: answers}, nil
}

// Result returns a completed session to its owner.
func (s *SessionService) Result(ctx context.Context, owner *int, sessionID uuid.UUID) (*model.SessionResult, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := authorizeSession(owner, sess); err != nil {
		return nil, err
	}
	if sess.Status != model.SessionStatusCompleted {
		return nil, ErrSessionNotCompleted
	}
	return s.result(ctx, sessionID)
}

// AdjustAfterSubmit opens a follow-up placement session one level easier
// (-1) or harder (+1) than a completed one. Each session can be branched
// once, and a chain holds at most maxDifficultyAdjustments follow-ups.
func (s *SessionService) AdjustAfterSubmit(ctx context.Context, owner *int, sessionID uuid.UUID, direction int) (*model.SessionStartResponse, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := authorizeSession(owner, sess); err != nil {
		return nil, err
	}
	if err := checkAdjustable(sess); err != nil {
		return nil, err
	}

	level, examID, err := s.placement.AdjustDifficulty(ctx, *sess.FinalLevelID, direction)
	if err != nil {
		return nil, err
	}
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if !exam.IsActive {
		return nil, ErrExamInactive
	}
	payload, err := s.viewer.Payload(ctx, exam)
	if err != nil {
		return nil, err
	}

	child := &model.StudentSession{
		ExamID:          exam.ID,
		StudentID:       sess.StudentID,
		StudentName:     sess.StudentName,
		ParentPhone:     sess.ParentPhone,
		SchoolName:      sess.SchoolName,
		Grade:           sess.Grade,
		AcademicRank:    sess.AcademicRank,
		OriginalLevelID: sess.OriginalLevelID,
		FinalLevelID:    &level.ID,
		ParentSessionID: &sess.ID,
	}
	err = s.sessions.InTx(ctx, func(tx SessionTx) error {
		parent, err := tx.GetForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := checkAdjustable(parent); err != nil {
			return err
		}
		branched, err := tx.HasChild(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("check follow-up: %w", err)
		}
		if branched {
			return ErrAlreadyAdjusted
		}
		child.DifficultyAdjustments = parent.DifficultyAdjustments + 1
		if err := tx.Create(ctx, child); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAlreadyAdjusted
			}
			return fmt.Errorf("create session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	child.ExamName = exam.Name
	child.ExamKind = exam.Kind
	child.TimerMinutes = exam.TimerMinutes
	if err := s.primeMeta(ctx, child, questionIDs(payload.Questions)); err != nil {
		return nil, err
	}

	s.log.Info().Str("session_id", child.ID.String()).Str("parent_session_id", sess.ID.String()).
		Int("direction", direction).Int("level_id", level.ID).Msg("Placement difficulty adjusted")
	return &model.SessionStartResponse{Session: *child, Level: level, Exam: *payload}, nil
}

func checkAdjustable(sess *model.StudentSession) error {
	switch {
	case sess.ExamKind != model.ExamKindPlacement:
		return ErrNotPlacementSession
	case sess.Status != model.SessionStatusCompleted:
		return ErrSessionNotCompleted
	case sess.DifficultyAdjustments >= maxDifficultyAdjustments:
		return ErrTooManyAdjustments
	case sess.FinalLevelID == nil:
		return placement.ErrLevelNotOnLadder
	}
	return nil
}

// ─── Teacher views ──────────────────────────────────────────────────────────

// GradeManually awards points for one question of a completed session and rescores it.
func (s *SessionService) GradeManually(ctx context.Context, actor Actor, sessionID, questionID uuid.UUID, req model.GradeAnswerRequest) (*model.SessionResult, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	exam, err := s.exams.GetByID(ctx, sess.ExamID)
	if err != nil {
		return nil, err
	}
	if err := Require(s.perms.CanTeacherEditExam(ctx, actor, exam)); err != nil {
		return nil, err
	}
	if sess.Status != model.SessionStatusCompleted {
		return nil, ErrSessionNotCompleted
	}

	q, err := s.questions.GetByID(ctx, sess.ExamID, questionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnknownQuestion
	}
	if err != nil {
		return nil, err
	}
	if *req.Points > q.Points {
		return nil, ErrPointsExceedQuestion
	}
	correct := req.IsCorrect
	if correct == nil {
		full := *req.Points == q.Points
		correct = &full
	}

	err = s.sessions.InTx(ctx, func(tx SessionTx) error {
		if _, err := tx.GetForUpdate(ctx, sessionID); err != nil {
			return err
		}
		if err := tx.GradeAnswer(ctx, sessionID, questionID, correct, *req.Points); err != nil {
			return fmt.Errorf("grade answer: %w", err)
		}
		answers, err := tx.ListAnswers(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("list answers: %w", err)
		}
		qs, err := tx.ListQuestions(ctx, sess.ExamID)
		if err != nil {
			return fmt.Errorf("list questions: %w", err)
		}
		earned := make(map[string]int, len(answers))
		for _, a := range answers {
			earned[a.QuestionID.String()] = a.PointsEarned
		}
		score, total, pct := grading.Score(qs, earned)
		return tx.UpdateScore(ctx, sessionID, score, total, pct)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("session_id", sessionID.String()).Str("question_id", questionID.String()).
		Int("points", *req.Points).Int("teacher_id", actor.TeacherID).Msg("Answer graded manually")
	return s.result(ctx, sessionID)
}

// ListResults returns the sessions of an exam the actor may view.
func (s *SessionService) ListResults(ctx context.Context, actor Actor, examID uuid.UUID, status model.SessionStatus, page, perPage int) ([]model.StudentSession, *response.Pagination, error) {
	if _, err := s.viewer.Get(ctx, actor, examID); err != nil {
		return nil, nil, err
	}
	page, perPage = normalizePage(page, perPage)
	sessions, total, err := s.sessions.ListByExamPaginated(ctx, examID, status, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if sessions == nil {
		sessions = []model.StudentSession{}
	}
	return sessions, paginate(page, perPage, total), nil
}

// SessionDetail returns a session with its answers to a teacher who may view the exam.
func (s *SessionService) SessionDetail(ctx context.Context, actor Actor, sessionID uuid.UUID) (*model.SessionResult, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.viewer.Get(ctx, actor, sess.ExamID); err != nil {
		return nil, err
	}
	return s.result(ctx, sessionID)
}

// History returns a student's most recent sessions.
func (s *SessionService) History(ctx context.Context, studentID int) ([]model.StudentSession, error) {
	sessions, err := s.sessions.ListByStudent(ctx, studentID, historyLimit)
	if sessions == nil && err == nil {
		sessions = []model.StudentSession{}
	}
	return sessions, err
}

// Sweep completes sessions whose timer and grace period have run out and
// returns how many it closed.
func (s *SessionService) Sweep(ctx context.Context) (int, error) {
	ids, err := s.sessions.ListExpired(ctx, s.grace, s.now(), sweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("list expired: %w", err)
	}
	closed := 0
	for _, id := range ids {
		if _, err := s.complete(ctx, id, true); err != nil {
			s.log.Warn().Err(err).Str("session_id", id.String()).Msg("Failed to complete expired session")
			continue
		}
		closed++
	}
	return closed, nil
}
