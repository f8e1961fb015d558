package usecase

import (
	"context"
	"net/http"
	"strings"

	"github.com/rvmaher/dermatouch-backend/internal/domain/model"
	repo "github.com/rvmaher/dermatouch-backend/internal/repository"
)

type CategoryUsecase struct {
	categoryRepo repo.CategoryRepository
	productRepo  repo.ProductRepository
}

func NewCategoryUsecase(categoryRepo repo.CategoryRepository, productRepo repo.ProductRepository) *CategoryUsecase {
	return &CategoryUsecase{categoryRepo: categoryRepo, productRepo: productRepo}
}

type CategoryOutput struct {
	model.Category
	ProductCount int64 `json:"product_count"`
}

type CategoryDetailOutput struct {
	model.Category
	Products []model.Product `json:"products"`
}

type CategoryCreateInput struct {
	Name        string
	Description string
	Image       string
}

type CategoryUpdateInput struct {
	Name        *string
	Description *string
	Image       *string
}

// 一覧。公開中の商品数つき。
func (u *CategoryUsecase) List(ctx context.Context) ([]CategoryOutput, error) {
	categories, err := u.categoryRepo.List(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outs := make([]CategoryOutput, 0, len(categories))
	for _, c := range categories {
		n, err := u.productRepo.CountByCategoryID(ctx, c.ID)
		if err != nil {
			return nil, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		outs = append(outs, CategoryOutput{Category: c, ProductCount: n})
	}
	return outs, nil
}

// 詳細。公開中の商品一覧つき。
func (u *CategoryUsecase) GetDetail(ctx context.Context, id int64) (CategoryDetailOutput, error) {
	if id <= 0 {
		return CategoryDetailOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	c, err := u.categoryRepo.FindByID(ctx, id)
	if err == repo.ErrNotFound {
		return CategoryDetailOutput{}, NewHTTPError(http.StatusNotFound, "category not found")
	}
	if err != nil {
		return CategoryDetailOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	products, err := u.productRepo.ListActiveByCategoryID(ctx, id)
	if err != nil {
		return CategoryDetailOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if products == nil {
		products = []model.Product{}
	}

	return CategoryDetailOutput{Category: c, Products: products}, nil
}

func (u *CategoryUsecase) AdminCreate(ctx context.Context, in CategoryCreateInput) (model.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "name is required")
	}

	created, err := u.categoryRepo.Create(ctx, model.Category{
		Name:        name,
		Description: in.Description,
		Image:       in.Image,
	})
	if err == repo.ErrConflict {
		return model.Category{}, NewHTTPError(http.StatusConflict, "category name already exists")
	}
	if err != nil {
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return created, nil
}

func (u *CategoryUsecase) AdminUpdate(ctx context.Context, id int64, in CategoryUpdateInput) (model.Category, error) {
	if id <= 0 {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	c, err := u.categoryRepo.FindByID(ctx, id)
	if err == repo.ErrNotFound {
		return model.Category{}, NewHTTPError(http.StatusNotFound, "category not found")
	}
	if err != nil {
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return model.Category{}, NewHTTPError(http.StatusBadRequest, "name is required")
		}
		c.Name = name
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.Image != nil {
		c.Image = *in.Image
	}

	if err := u.categoryRepo.Update(ctx, c); err != nil {
		if err == repo.ErrConflict {
			return model.Category{}, NewHTTPError(http.StatusConflict, "category name already exists")
		}
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c, nil
}

// 商品が紐付いたままのカテゴリは消せない
func (u *CategoryUsecase) AdminDelete(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if _, err := u.categoryRepo.FindByID(ctx, id); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "category not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	n, err := u.productRepo.CountByCategoryID(ctx, id)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if n > 0 {
		return NewHTTPError(http.StatusConflict, "category has products")
	}

	if err := u.categoryRepo.Delete(ctx, id); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "category not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}
