package usecase

import (
	"context"
	"net/http"

	repo "github.com/rvmaher/dermatouch-backend/internal/repository"
)

type DashboardUsecase struct {
	dashboardRepo repo.DashboardRepository
}

func NewDashboardUsecase(dashboardRepo repo.DashboardRepository) *DashboardUsecase {
	return &DashboardUsecase{dashboardRepo: dashboardRepo}
}

func (u *DashboardUsecase) Stats(ctx context.Context) (repo.DashboardStats, error) {
	stats, err := u.dashboardRepo.Stats(ctx)
	if err != nil {
		return repo.DashboardStats{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return stats, nil
}
