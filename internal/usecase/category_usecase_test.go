package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/rvmaher/dermatouch-backend/internal/domain/model"
	repo "github.com/rvmaher/dermatouch-backend/internal/repository"
	"github.com/rvmaher/dermatouch-backend/internal/usecase"
)

func newCategoryTestEnv() (*usecase.CategoryUsecase, *CategoryRepoMock, *ProductRepoMock) {
	cRepo := new(CategoryRepoMock)
	pRepo := new(ProductRepoMock)
	uc := usecase.NewCategoryUsecase(cRepo, pRepo)
	return uc, cRepo, pRepo
}

func TestCategoryUsecase_List_WithProductCounts(t *testing.T) {
	uc, cRepo, pRepo := newCategoryTestEnv()

	cRepo.On("List", mock.Anything).Return([]model.Category{
		{ID: 1, Name: "Skincare"},
		{ID: 2, Name: "Sunscreen"},
	}, nil)
	pRepo.On("CountByCategoryID", mock.Anything, int64(1)).Return(int64(3), nil)
	pRepo.On("CountByCategoryID", mock.Anything, int64(2)).Return(int64(0), nil)

	outs, err := uc.List(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, len(outs))
	assert.Equal(t, int64(3), outs[0].ProductCount)
	assert.Equal(t, int64(0), outs[1].ProductCount)
}

func TestCategoryUsecase_GetDetail_IncludesActiveProducts(t *testing.T) {
	uc, cRepo, pRepo := newCategoryTestEnv()

	cRepo.On("FindByID", mock.Anything, int64(1)).Return(model.Category{ID: 1, Name: "Skincare"}, nil)
	pRepo.On("ListActiveByCategoryID", mock.Anything, int64(1)).Return([]model.Product{
		{ID: 10, Title: "Serum", IsActive: true},
	}, nil)

	out, err := uc.GetDetail(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, "Skincare", out.Name)
	assert.Equal(t, 1, len(out.Products))
}

func TestCategoryUsecase_AdminCreate_NameConflict(t *testing.T) {
	uc, cRepo, _ := newCategoryTestEnv()

	cRepo.On("Create", mock.Anything, mock.Anything).Return(model.Category{}, repo.ErrConflict)

	_, err := uc.AdminCreate(context.Background(), usecase.CategoryCreateInput{Name: "Skincare"})
	assertErrContains(t, err, "already exists")

	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 409, he.Status)
}

func TestCategoryUsecase_AdminCreate_EmptyName(t *testing.T) {
	uc, _, _ := newCategoryTestEnv()

	_, err := uc.AdminCreate(context.Background(), usecase.CategoryCreateInput{Name: "  "})
	assertErrContains(t, err, "name is required")
}

func TestCategoryUsecase_AdminDelete_BlockedWhenProductsRemain(t *testing.T) {
	uc, cRepo, pRepo := newCategoryTestEnv()

	cRepo.On("FindByID", mock.Anything, int64(1)).Return(model.Category{ID: 1}, nil)
	pRepo.On("CountByCategoryID", mock.Anything, int64(1)).Return(int64(2), nil)

	err := uc.AdminDelete(context.Background(), 1)
	assertErrContains(t, err, "has products")

	cRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestCategoryUsecase_AdminDelete_Success(t *testing.T) {
	uc, cRepo, pRepo := newCategoryTestEnv()

	cRepo.On("FindByID", mock.Anything, int64(1)).Return(model.Category{ID: 1}, nil)
	pRepo.On("CountByCategoryID", mock.Anything, int64(1)).Return(int64(0), nil)
	cRepo.On("Delete", mock.Anything, int64(1)).Return(nil)

	err := uc.AdminDelete(context.Background(), 1)
	assert.NoError(t, err)

	cRepo.AssertExpectations(t)
}
