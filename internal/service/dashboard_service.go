package service

import (
	"context"

	"github.com/primepath/primepath-backend/internal/model"
	"github.com/primepath/primepath-backend/internal/repository"
)

const recentSessionsLimit = 5

// DashboardService handles teacher dashboard business logic.
type DashboardService struct {
	repo *repository.DashboardRepository
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(repo *repository.DashboardRepository) *DashboardService {
	return &DashboardService{repo: repo}
}

// GetDashboardData collects the counters and recent sessions for a teacher.
func (s *DashboardService) GetDashboardData(ctx context.Context, teacherID int) (*model.DashboardStats, error) {
	stats, err := s.repo.GetSummaryCounts(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	recent, err := s.repo.GetRecentCompleted(ctx, recentSessionsLimit)
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []model.StudentSession{}
	}
	stats.RecentSessions = recent

	return stats, nil
}
