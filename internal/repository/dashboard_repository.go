package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/primepath/primepath-backend/internal/model"
)

// DashboardRepository handles teacher dashboard data access.
type DashboardRepository struct {
	db DBTX
}

// NewDashboardRepository creates a new DashboardRepository.
func NewDashboardRepository(pool *pgxpool.Pool) *DashboardRepository {
	return &DashboardRepository{db: pool}
}

// GetSummaryCounts retrieves the high-level metrics for the dashboard.
func (r *DashboardRepository) GetSummaryCounts(ctx context.Context, teacherID int) (*model.DashboardStats, error) {
	s := &model.DashboardStats{}
	err := r.db.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM exams WHERE kind = $1),
			(SELECT COUNT(*) FROM exams WHERE kind = $2),
			(SELECT COUNT(*) FROM student_sessions WHERE started_at >= date_trunc('day', NOW())),
			(SELECT COUNT(*) FROM student_sessions WHERE status = $3),
			(SELECT COUNT(*) FROM teacher_class_assignments
			  WHERE teacher_id = $4 AND is_active AND (expires_at IS NULL OR expires_at > NOW()))`,
		model.ExamKindPlacement, model.ExamKindRoutine, model.SessionStatusCompleted, teacherID,
	).Scan(&s.PlacementExams, &s.RoutineExams, &s.SessionsToday, &s.CompletedSessions, &s.ClassesAssigned)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetRecentCompleted returns the most recently completed sessions.
func (r *DashboardRepository) GetRecentCompleted(ctx context.Context, limit int) ([]model.StudentSession, error) {
	return collectSessions(r.db.Query(ctx,
		`SELECT `+sessionColumns+sessionFrom+`
		 WHERE s.status = $1
		 ORDER BY s.completed_at DESC NULLS LAST LIMIT $2`, model.SessionStatusCompleted, limit))
}
