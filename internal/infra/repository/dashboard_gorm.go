package repository

import (
	"context"

	"github.com/rvmaher/dermatouch-backend/internal/domain/model"
	repo "github.com/rvmaher/dermatouch-backend/internal/repository"
	"github.com/shopspring/decimal"

	"gorm.io/gorm"
)

type DashboardGormRepository struct {
	db *gorm.DB
}

func NewDashboardGormRepository(db *gorm.DB) *DashboardGormRepository {
	return &DashboardGormRepository{db: db}
}

// 管理画面の集計をまとめて取る
func (r *DashboardGormRepository) Stats(ctx context.Context) (repo.DashboardStats, error) {
	var stats repo.DashboardStats

	db := r.db.WithContext(ctx)

	if err := db.Model(&model.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return repo.DashboardStats{}, err
	}
	if err := db.Model(&model.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return repo.DashboardStats{}, err
	}
	if err := db.Model(&model.Category{}).Count(&stats.TotalCategories).Error; err != nil {
		return repo.DashboardStats{}, err
	}
	if err := db.Model(&model.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return repo.DashboardStats{}, err
	}

	//売上合計（注文が無ければ0）
	var revenue decimal.Decimal
	err := db.Model(&model.Order{}).
		Select("COALESCE(SUM(total), 0)").
		Scan(&revenue).Error
	if err != nil {
		return repo.DashboardStats{}, err
	}
	stats.TotalRevenue = revenue

	//直近5件の注文
	var recent []model.Order
	err = db.Order("created_at desc").Limit(5).Find(&recent).Error
	if err != nil {
		return repo.DashboardStats{}, err
	}
	stats.RecentOrders = recent

	return stats, nil
}
