package repository

import (
	"context"
	"errors"

	"github.com/rvmaher/dermatouch-backend/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 一意制約違反（email / sku / category name）
var ErrConflict = errors.New("conflict")

// 一覧検索
type ProductListQuery struct {
	Page       int
	Limit      int
	Q          string
	CategoryID *int64
	SortBy     string // title / price / created_at
	SortOrder  string // asc / desc
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	ListPublic(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)

	// 公開中（is_active=true）の商品のみ。注文の検証で使う
	FindActiveByID(ctx context.Context, id int64) (model.Product, error)

	ListActiveByCategoryID(ctx context.Context, categoryID int64) ([]model.Product, error)
	CountByCategoryID(ctx context.Context, categoryID int64) (int64, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error
}
