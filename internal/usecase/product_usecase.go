package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rvmaher/dermatouch-backend/internal/domain/model"
	repo "github.com/rvmaher/dermatouch-backend/internal/repository"
)

type ProductUsecase struct {
	productRepo   repo.ProductRepository
	categoryRepo  repo.CategoryRepository
	inventoryRepo repo.InventoryRepository
	auditRepo     repo.AuditLogRepository
}

func NewProductUsecase(
	productRepo repo.ProductRepository,
	categoryRepo repo.CategoryRepository,
	inventoryRepo repo.InventoryRepository,
	auditRepo repo.AuditLogRepository,
) *ProductUsecase {
	return &ProductUsecase{
		productRepo:   productRepo,
		categoryRepo:  categoryRepo,
		inventoryRepo: inventoryRepo,
		auditRepo:     auditRepo,
	}
}

type ProductListInput struct {
	Page       int
	Limit      int
	Q          string
	CategoryID *int64
	SortBy     string
	SortOrder  string
}

type ProductCreateInput struct {
	Title       string
	Description string
	Price       string
	Image       string
	SKU         *string
	Stock       int64
	IsActive    *bool
	CategoryID  int64
}

type ProductUpdateInput struct {
	Title       *string
	Description *string
	Price       *string
	Image       *string
	SKU         *string
	Stock       *int64
	IsActive    *bool
	CategoryID  *int64
}

type SetStockInput struct {
	Stock  int64
	Reason string
}

// 公開一覧。is_active=true のみ、ページング＋検索＋カテゴリ絞り込み＋ソート。
func (u *ProductUsecase) ListPublic(ctx context.Context, in ProductListInput) ([]model.Product, int64, error) {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Limit < 1 || in.Limit > 100 {
		in.Limit = 20
	}

	sortBy, sortOrder, err := normalizeSort(in.SortBy, in.SortOrder)
	if err != nil {
		return nil, 0, err
	}

	products, total, err := u.productRepo.ListPublic(ctx, repo.ProductListQuery{
		Page:       in.Page,
		Limit:      in.Limit,
		Q:          strings.TrimSpace(in.Q),
		CategoryID: in.CategoryID,
		SortBy:     sortBy,
		SortOrder:  sortOrder,
	})
	if err != nil {
		return nil, 0, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return products, total, nil
}

// 公開詳細。非公開（is_active=false）や削除済みは404。
func (u *ProductUsecase) GetPublicDetail(ctx context.Context, id int64) (model.Product, error) {
	if id <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := u.productRepo.FindActiveByID(ctx, id)
	if err == repo.ErrNotFound {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

// 管理者詳細。非公開でも返す。
func (u *ProductUsecase) GetAdminDetail(ctx context.Context, id int64) (model.Product, error) {
	if id <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := u.productRepo.FindByID(ctx, id)
	if err == repo.ErrNotFound {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

func (u *ProductUsecase) AdminCreate(ctx context.Context, in ProductCreateInput) (model.Product, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "title is required")
	}
	price, err := parsePrice(in.Price)
	if err != nil {
		return model.Product{}, err
	}
	if in.Stock < 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	if in.CategoryID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "category_id is required")
	}

	// カテゴリ存在チェック
	if _, err := u.categoryRepo.FindByID(ctx, in.CategoryID); err != nil {
		if err == repo.ErrNotFound {
			return model.Product{}, NewHTTPError(http.StatusBadRequest, "category not found")
		}
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	isActive := true
	if in.IsActive != nil {
		isActive = *in.IsActive
	}

	p := model.Product{
		Title:       title,
		Description: in.Description,
		Price:       price,
		Image:       in.Image,
		SKU:         normalizeSKU(in.SKU),
		Stock:       in.Stock,
		IsActive:    isActive,
		CategoryID:  in.CategoryID,
	}

	created, err := u.productRepo.Create(ctx, p)
	if err == repo.ErrConflict {
		return model.Product{}, NewHTTPError(http.StatusConflict, "sku already exists")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return created, nil
}

// 部分更新。nilのフィールドは触らない。
func (u *ProductUsecase) AdminUpdate(ctx context.Context, id int64, in ProductUpdateInput) (model.Product, error) {
	if id <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	p, err := u.productRepo.FindByID(ctx, id)
	if err == repo.ErrNotFound {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return model.Product{}, NewHTTPError(http.StatusBadRequest, "title is required")
		}
		p.Title = t
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		price, err := parsePrice(*in.Price)
		if err != nil {
			return model.Product{}, err
		}
		p.Price = price
	}
	if in.Image != nil {
		p.Image = *in.Image
	}
	if in.SKU != nil {
		p.SKU = normalizeSKU(in.SKU)
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return model.Product{}, NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
		}
		p.Stock = *in.Stock
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if in.CategoryID != nil {
		if _, err := u.categoryRepo.FindByID(ctx, *in.CategoryID); err != nil {
			if err == repo.ErrNotFound {
				return model.Product{}, NewHTTPError(http.StatusBadRequest, "category not found")
			}
			return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		p.CategoryID = *in.CategoryID
	}

	if err := u.productRepo.Update(ctx, p); err != nil {
		if err == repo.ErrConflict {
			return model.Product{}, NewHTTPError(http.StatusConflict, "sku already exists")
		}
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	updated, err := u.productRepo.FindByID(ctx, id)
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return updated, nil
}

// 論理削除。過去の注文明細はスナップショットを持つので影響しない。
func (u *ProductUsecase) AdminDelete(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	err := u.productRepo.SoftDelete(ctx, id)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// 在庫の直接設定。調整履歴と監査ログを残す。
func (u *ProductUsecase) AdminSetStock(ctx context.Context, actorAdminUserID int64, productID int64, in SetStockInput) (model.Product, error) {
	if actorAdminUserID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if in.Stock < 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = "manual adjustment"
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	before := p.Stock

	if err := u.inventoryRepo.SetStock(ctx, productID, in.Stock); err != nil {
		if err == repo.ErrNotFound {
			return model.Product{}, NewHTTPError(http.StatusNotFound, "product not found")
		}
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.inventoryRepo.CreateAdjustment(ctx, model.InventoryAdjustment{
		ProductID:   productID,
		AdminUserID: actorAdminUserID,
		Delta:       in.Stock - before,
		Reason:      reason,
	}); err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actorAdminUserID,
		Action:       model.AuditActionUpdateStock,
		ResourceType: model.AuditResourceProduct,
		ResourceID:   productID,
		BeforeJSON:   fmt.Sprintf(`{"stock":%d}`, before),
		AfterJSON:    fmt.Sprintf(`{"stock":%d}`, in.Stock),
		CreatedAt:    time.Now(),
	}); err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	p.Stock = in.Stock
	return p, nil
}

func normalizeSort(sortBy, sortOrder string) (string, string, error) {
	switch sortBy {
	case "":
		sortBy = "created_at"
	case "title", "price", "created_at":
	default:
		return "", "", NewHTTPError(http.StatusBadRequest, "invalid sort field")
	}
	switch sortOrder {
	case "":
		sortOrder = "desc"
	case "asc", "desc":
	default:
		return "", "", NewHTTPError(http.StatusBadRequest, "invalid sort order")
	}
	return sortBy, sortOrder, nil
}

func parsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, NewHTTPError(http.StatusBadRequest, "price is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, NewHTTPError(http.StatusBadRequest, "invalid price")
	}
	if d.IsNegative() {
		return decimal.Zero, NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	return d.Round(2), nil
}

// 空文字SKUはnil扱い（空文字でunique衝突しないように）
func normalizeSKU(sku *string) *string {
	if sku == nil {
		return nil
	}
	s := strings.TrimSpace(*sku)
	if s == "" {
		return nil
	}
	return &s
}
