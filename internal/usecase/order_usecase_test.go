package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/rvmaher/dermatouch-backend/internal/domain/model"
	repo "github.com/rvmaher/dermatouch-backend/internal/repository"
	"github.com/rvmaher/dermatouch-backend/internal/usecase"
)

func newOrderTestEnv() (*usecase.OrderUsecase, *ProductRepoMock, *InventoryRepoMock, *OrderRepoMock, *OrderItemRepoMock, *TxManagerMock) {
	pRepo := new(ProductRepoMock)
	invRepo := new(InventoryRepoMock)
	oRepo := new(OrderRepoMock)
	oiRepo := new(OrderItemRepoMock)

	tx := &TxManagerMock{Repos: &TxReposStub{
		orders:     oRepo,
		orderItems: oiRepo,
		products:   pRepo,
		inventory:  invRepo,
	}}

	uc := usecase.NewOrderUsecase(tx, "India")
	return uc, pRepo, invRepo, oRepo, oiRepo, tx
}

func validAddress() usecase.AddressInput {
	return usecase.AddressInput{
		Street:  "1 MG Road",
		City:    "Bengaluru",
		State:   "Karnataka",
		ZipCode: "560001",
	}
}

func priceOf(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// =====================
// 入力検証
// =====================

func TestOrderUsecase_PlaceOrder_NoItems(t *testing.T) {
	uc, _, _, _, _, _ := newOrderTestEnv()

	_, err := uc.PlaceOrder(context.Background(), 1, usecase.PlaceOrderInput{
		Items:   nil,
		Address: validAddress(),
	})
	assertErrContains(t, err, "at least one item")
}

func TestOrderUsecase_PlaceOrder_InvalidQuantity(t *testing.T) {
	uc, _, _, _, _, _ := newOrderTestEnv()

	_, err := uc.PlaceOrder(context.Background(), 1, usecase.PlaceOrderInput{
		Items:   []usecase.OrderItemInput{{ProductID: 10, Quantity: 0}},
		Address: validAddress(),
	})
	assertErrContains(t, err, "quantity must be positive")
}

func TestOrderUsecase_PlaceOrder_InvalidProductID(t *testing.T) {
	uc, _, _, _, _, _ := newOrderTestEnv()

	_, err := uc.PlaceOrder(context.Background(), 1, usecase.PlaceOrderInput{
		Items:   []usecase.OrderItemInput{{ProductID: 0, Quantity: 1}},
		Address: validAddress(),
	})
	assertErrContains(t, err, "invalid product_id")
}

func TestOrderUsecase_PlaceOrder_MissingAddressField(t *testing.T) {
	uc, _, _, _, _, _ := newOrderTestEnv()

	addr := validAddress()
	addr.City = "  "

	_, err := uc.PlaceOrder(context.Background(), 1, usecase.PlaceOrderInput{
		Items:   []usecase.OrderItemInput{{ProductID: 10, Quantity: 1}},
		Address: addr,
	})
	assertErrContains(t, err, "city is required")
}

// =====================
// 検証（商品・在庫）
// =====================

func TestOrderUsecase_PlaceOrder_ProductNotFound_NothingPersisted(t *testing.T) {
	uc, pRepo, invRepo, oRepo, _, _ := newOrderTestEnv()

	pRepo.On("FindActiveByID", mock.Anything, int64(99)).Return(model.Product{}, repo.ErrNotFound)

	_, err := uc.PlaceOrder(context.Background(), 1, usecase.PlaceOrderInput{
		Items:   []usecase.OrderItemInput{{ProductID: 99, Quantity: 1}},
		Address: validAddress(),
	})

	oe, ok := usecase.AsOrderError(err)
	assert.True(t, ok)
	assert.Equal(t, usecase.CodeProductNotFound, oe.Code)
	assert.Equal(t, 404, oe.Status)
	assertErrContains(t, err, "99")

	invRepo.AssertNotCalled(t, "DecrementStockIfAvailable", mock.Anything, mock.Anything, mock.Anything)
	oRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// 最初に失敗した明細のエラーだけ返す（2件目は見ない）
func TestOrderUsecase_PlaceOrder_FirstFailureWins(t *testing.T) {
	uc, pRepo, _, _, _, _ := newOrderTestEnv()

	pRepo.On("FindActiveByID", mock.Anything, int64(1)).Return(model.Product{}, repo.ErrNotFound)

	_, err := uc.PlaceOrder(context.Background(), 1, usecase.PlaceOrderInput{
		Items: []usecase.OrderItemInput{
			{ProductID: 1, Quantity: 1},
			{ProductID: 2, Quantity: 1},
		},
		Address: validAddress(),
	})

	oe, _ := usecase.AsOrderError(err)
	assert.Equal(t, usecase.CodeProductNotFound, oe.Code)
	pRepo.AssertNotCalled(t, "FindActiveByID", mock.Anything, int64(2))
}

func TestOrderUsecase_PlaceOrder_InsufficientStock(t *testing.T) {
	uc, pRepo, invRepo, _, _, _ := newOrderTestEnv()

	pRepo.On("FindActiveByID", mock.Anything, int64(10)).Return(model.Product{
		ID:       10,
		Title:    "Vitamin C Serum",
		Price:    priceOf("2499.99"),
		Stock:    1,
		IsActive: true,
	}, nil)

	_, err := uc.PlaceOrder(context.Background(), 1, usecase.PlaceOrderInput{
		Items:   []usecase.OrderItemInput{{ProductID: 10, Quantity: 2}},
		Address: validAddress(),
	})

	oe, ok := usecase.AsOrderError(err)
	assert.True(t, ok)
	assert.Equal(t, usecase.CodeInsufficientStock, oe.Code)
	assert.Equal(t, 400, oe.Status)
	assertErrContains(t, err, "Vitamin C Serum")
	assertErrContains(t, err, "available: 1")

	invRepo.AssertNotCalled(t, "DecrementStockIfAvailable", mock.Anything, mock.Anything, mock.Anything)
}

// =====================
// 競合（条件付きUPDATEが0件）
// =====================

func TestOrderUsecase_PlaceOrder_StockConflict_NoOrderCreated(t *testing.T) {
	uc, pRepo, invRepo, oRepo, _, _ := newOrderTestEnv()

	pRepo.On("FindActiveByID", mock.Anything, int64(10)).Return(model.Product{
		ID: 10, Title: "A", Price: priceOf("10.00"), Stock: 5, IsActive: true,
	}, nil)

	// 検証は通ったが、並行注文に先を越された
	invRepo.On("DecrementStockIfAvailable", mock.Anything, int64(10), int64(2)).Return(false, nil)

	_, err := uc.PlaceOrder(context.Background(), 1, usecase.PlaceOrderInput{
		Items:   []usecase.OrderItemInput{{ProductID: 10, Quantity: 2}},
		Address: validAddress(),
	})

	oe, ok := usecase.AsOrderError(err)
	assert.True(t, ok)
	assert.Equal(t, usecase.CodeStockConflict, oe.Code)
	assert.Equal(t, 409, oe.Status)

	oRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// =====================
// 成功（合計・スナップショット・PENDING）
// =====================

func TestOrderUsecase_PlaceOrder_Success(t *testing.T) {
	uc, pRepo, invRepo, oRepo, oiRepo, _ := newOrderTestEnv()

	pRepo.On("FindActiveByID", mock.Anything, int64(10)).Return(model.Product{
		ID: 10, Title: "Serum", Image: "serum.jpg", Price: priceOf("10.00"), Stock: 100, IsActive: true,
	}, nil)
	pRepo.On("FindActiveByID", mock.Anything, int64(20)).Return(model.Product{
		ID: 20, Title: "Cleanser", Image: "cleanser.jpg", Price: priceOf("5.00"), Stock: 100, IsActive: true,
	}, nil)

	invRepo.On("DecrementStockIfAvailable", mock.Anything, int64(10), int64(2)).Return(true, nil)
	invRepo.On("DecrementStockIfAvailable", mock.Anything, int64(20), int64(3)).Return(true, nil)

	// 10.00*2 + 5.00*3 = 35.00、ステータスはPENDING
	oRepo.On("Create", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		return o.UserID == 7 &&
			o.Status == model.OrderStatusPending &&
			o.Total.Equal(priceOf("35.00")) &&
			o.Address.Country == "India"
	})).Return(int64(555), nil)

	var savedItems []model.OrderItem
	oiRepo.On("CreateBulk", mock.Anything, int64(555), mock.Anything).
		Run(func(args mock.Arguments) {
			savedItems, _ = args.Get(2).([]model.OrderItem)
		}).
		Return(nil)

	out, err := uc.PlaceOrder(context.Background(), 7, usecase.PlaceOrderInput{
		Items: []usecase.OrderItemInput{
			{ProductID: 10, Quantity: 2},
			{ProductID: 20, Quantity: 3},
		},
		Address: validAddress(), // countryは未指定→デフォルト
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(555), out.ID)
	assert.Equal(t, "PENDING", out.Status)
	assert.True(t, out.Total.Equal(priceOf("35.00")))
	assert.Equal(t, "India", out.Address.Country)
	assert.Equal(t, 2, len(out.Items))

	// 明細は注文時点の価格・タイトル・画像で凍結される
	assert.Equal(t, 2, len(savedItems))
	assert.True(t, savedItems[0].UnitPriceSnapshot.Equal(priceOf("10.00")))
	assert.Equal(t, "Serum", savedItems[0].ProductTitleSnapshot)
	assert.Equal(t, "serum.jpg", savedItems[0].ProductImageSnapshot)
	assert.True(t, savedItems[1].UnitPriceSnapshot.Equal(priceOf("5.00")))
	assert.Equal(t, "Cleanser", savedItems[1].ProductTitleSnapshot)

	pRepo.AssertExpectations(t)
	invRepo.AssertExpectations(t)
	oRepo.AssertExpectations(t)
	oiRepo.AssertExpectations(t)
}

// カタログが変わらない限り、同じ入力は何度流しても同じ合計になる
func TestOrderUsecase_PlaceOrder_DeterministicForSameCatalog(t *testing.T) {
	uc, pRepo, invRepo, oRepo, oiRepo, _ := newOrderTestEnv()

	pRepo.On("FindActiveByID", mock.Anything, int64(10)).Return(model.Product{
		ID: 10, Title: "A", Price: priceOf("7.50"), Stock: 100, IsActive: true,
	}, nil)
	invRepo.On("DecrementStockIfAvailable", mock.Anything, int64(10), int64(4)).Return(true, nil)
	oRepo.On("Create", mock.Anything, mock.Anything).Return(int64(1), nil)
	oiRepo.On("CreateBulk", mock.Anything, int64(1), mock.Anything).Return(nil)

	in := usecase.PlaceOrderInput{
		Items:   []usecase.OrderItemInput{{ProductID: 10, Quantity: 4}},
		Address: validAddress(),
	}

	first, err := uc.PlaceOrder(context.Background(), 1, in)
	assert.NoError(t, err)
	second, err := uc.PlaceOrder(context.Background(), 1, in)
	assert.NoError(t, err)

	assert.True(t, first.Total.Equal(priceOf("30.00")))
	assert.True(t, first.Total.Equal(second.Total))
}

func TestOrderUsecase_PlaceOrder_ExplicitCountryKept(t *testing.T) {
	uc, pRepo, invRepo, oRepo, oiRepo, _ := newOrderTestEnv()

	pRepo.On("FindActiveByID", mock.Anything, int64(10)).Return(model.Product{
		ID: 10, Title: "A", Price: priceOf("1.00"), Stock: 10, IsActive: true,
	}, nil)
	invRepo.On("DecrementStockIfAvailable", mock.Anything, int64(10), int64(1)).Return(true, nil)
	oRepo.On("Create", mock.Anything, mock.Anything).Return(int64(1), nil)
	oiRepo.On("CreateBulk", mock.Anything, int64(1), mock.Anything).Return(nil)

	addr := validAddress()
	addr.Country = "Japan"

	out, err := uc.PlaceOrder(context.Background(), 1, usecase.PlaceOrderInput{
		Items:   []usecase.OrderItemInput{{ProductID: 10, Quantity: 1}},
		Address: addr,
	})

	assert.NoError(t, err)
	assert.Equal(t, "Japan", out.Address.Country)
}

// =====================
// ストア障害
// =====================

func TestOrderUsecase_PlaceOrder_DecrementError_IsPersistenceFailure(t *testing.T) {
	uc, pRepo, invRepo, _, _, _ := newOrderTestEnv()

	pRepo.On("FindActiveByID", mock.Anything, int64(10)).Return(model.Product{
		ID: 10, Title: "A", Price: priceOf("1.00"), Stock: 10, IsActive: true,
	}, nil)
	invRepo.On("DecrementStockIfAvailable", mock.Anything, int64(10), int64(1)).
		Return(false, errors.New("connection reset"))

	_, err := uc.PlaceOrder(context.Background(), 1, usecase.PlaceOrderInput{
		Items:   []usecase.OrderItemInput{{ProductID: 10, Quantity: 1}},
		Address: validAddress(),
	})

	oe, ok := usecase.AsOrderError(err)
	assert.True(t, ok)
	assert.Equal(t, usecase.CodePersistenceFailure, oe.Code)
	assert.Equal(t, 500, oe.Status)
}

func TestOrderUsecase_PlaceOrder_CommitFailure_IsPersistenceFailure(t *testing.T) {
	uc, pRepo, invRepo, oRepo, oiRepo, tx := newOrderTestEnv()

	pRepo.On("FindActiveByID", mock.Anything, int64(10)).Return(model.Product{
		ID: 10, Title: "A", Price: priceOf("1.00"), Stock: 10, IsActive: true,
	}, nil)
	invRepo.On("DecrementStockIfAvailable", mock.Anything, int64(10), int64(1)).Return(true, nil)
	oRepo.On("Create", mock.Anything, mock.Anything).Return(int64(1), nil)
	oiRepo.On("CreateBulk", mock.Anything, int64(1), mock.Anything).Return(nil)

	// fnは成功したがcommitで落ちた
	tx.ForcedErr = errors.New("commit failed")

	_, err := uc.PlaceOrder(context.Background(), 1, usecase.PlaceOrderInput{
		Items:   []usecase.OrderItemInput{{ProductID: 10, Quantity: 1}},
		Address: validAddress(),
	})

	oe, ok := usecase.AsOrderError(err)
	assert.True(t, ok)
	assert.Equal(t, usecase.CodePersistenceFailure, oe.Code)
}

// =====================
// 一覧・詳細
// =====================

func TestOrderUsecase_ListMyOrders_Success(t *testing.T) {
	uc, _, _, oRepo, oiRepo, _ := newOrderTestEnv()

	orders := []model.Order{
		{ID: 1, UserID: 7, Status: model.OrderStatusPending, Total: priceOf("12.00")},
	}
	oRepo.On("ListByUserID", mock.Anything, int64(7), 1, 10).Return(orders, int64(1), nil)
	oiRepo.On("ListByOrderID", mock.Anything, int64(1)).Return([]model.OrderItem{
		{OrderID: 1, ProductID: 10, Quantity: 1, UnitPriceSnapshot: priceOf("12.00")},
	}, nil)

	outs, total, err := uc.ListMyOrders(context.Background(), 7, 1, 10)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, 1, len(outs))
	assert.Equal(t, 1, len(outs[0].Items))
}

func TestOrderUsecase_GetMyOrderDetail_ForeignOrderIsNotFound(t *testing.T) {
	uc, _, _, oRepo, _, _ := newOrderTestEnv()

	// 注文はあるが別ユーザーのもの
	oRepo.On("FindByID", mock.Anything, int64(5)).Return(model.Order{ID: 5, UserID: 2}, nil)

	_, err := uc.GetMyOrderDetail(context.Background(), 7, 5)
	assertErrContains(t, err, "not found")

	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 404, he.Status)
}

func TestOrderUsecase_GetMyOrderDetail_Success(t *testing.T) {
	uc, _, _, oRepo, oiRepo, _ := newOrderTestEnv()

	oRepo.On("FindByID", mock.Anything, int64(5)).Return(model.Order{
		ID: 5, UserID: 7, Status: model.OrderStatusPaid, Total: priceOf("20.00"),
	}, nil)
	oiRepo.On("ListByOrderID", mock.Anything, int64(5)).Return([]model.OrderItem{
		{OrderID: 5, ProductID: 10, Quantity: 2, UnitPriceSnapshot: priceOf("10.00")},
	}, nil)

	out, err := uc.GetMyOrderDetail(context.Background(), 7, 5)
	assert.NoError(t, err)
	assert.Equal(t, "PAID", out.Status)
	assert.True(t, out.Total.Equal(priceOf("20.00")))
}
