package repository

import (
	"context"

	"github.com/rvmaher/dermatouch-backend/internal/domain/model"
	"github.com/shopspring/decimal"
)

// 管理画面用の集計
type DashboardStats struct {
	TotalProducts   int64           `json:"total_products"`
	TotalOrders     int64           `json:"total_orders"`
	TotalCategories int64           `json:"total_categories"`
	TotalUsers      int64           `json:"total_users"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	RecentOrders    []model.Order   `json:"recent_orders"`
}

type DashboardRepository interface {
	Stats(ctx context.Context) (DashboardStats, error)
}
