package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rvmaher/dermatouch-backend/internal/domain/model"
	repo "github.com/rvmaher/dermatouch-backend/internal/repository"

	"github.com/shopspring/decimal"
)

// トランザクションを開けたまま待たない（ロック保持時間の上限）
const defaultCommitTimeout = 5 * time.Second

type OrderUsecase struct {
	tx             repo.TransactionManager
	defaultCountry string
	commitTimeout  time.Duration
}

func NewOrderUsecase(tx repo.TransactionManager, defaultCountry string) *OrderUsecase {
	return &OrderUsecase{
		tx:             tx,
		defaultCountry: defaultCountry,
		commitTimeout:  defaultCommitTimeout,
	}
}

type OrderItemInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type AddressInput struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

type PlaceOrderInput struct {
	Items   []OrderItemInput
	Address AddressInput
}

type OrderItemOutput struct {
	ProductID int64           `json:"product_id"`
	Title     string          `json:"title"`
	Image     string          `json:"image"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int64           `json:"quantity"`
}

type OrderOutput struct {
	ID         int64             `json:"id"`
	UserID     int64             `json:"user_id"`
	Status     string            `json:"status"`
	Total      decimal.Decimal   `json:"total"`
	Address    model.Address     `json:"address"`
	PaymentRef *string           `json:"payment_ref,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	Items      []OrderItemOutput `json:"items"`
}

// 注文プラン（検証済み・未保存）
type orderLine struct {
	product   model.Product
	quantity  int64
	unitPrice decimal.Decimal
}

type orderPlan struct {
	lines []orderLine
	total decimal.Decimal
}

// assembleOrderPlanは依頼された明細を検証して注文プランを組み立てる。
// 読み取りのみで副作用なし。同じ入力・同じカタログなら同じプランになる。
// 検証は送信順。最初に失敗した明細のエラーを返し、部分的なプランは返さない。
func assembleOrderPlan(ctx context.Context, products repo.ProductRepository, items []OrderItemInput) (orderPlan, error) {
	plan := orderPlan{
		lines: make([]orderLine, 0, len(items)),
		total: decimal.Zero,
	}

	for _, it := range items {
		//公開中の商品だけを対象にする（非公開はNotFound扱い）
		p, err := products.FindActiveByID(ctx, it.ProductID)
		if err == repo.ErrNotFound {
			return orderPlan{}, NewProductNotFoundError(it.ProductID)
		}
		if err != nil {
			return orderPlan{}, NewPersistenceError()
		}

		//在庫チェック
		if p.Stock < it.Quantity {
			return orderPlan{}, NewInsufficientStockError(p.Title, p.Stock)
		}

		//今の価格を取り込む（確定時にこの値で凍結する）
		unitPrice := p.Price
		plan.lines = append(plan.lines, orderLine{
			product:   p,
			quantity:  it.Quantity,
			unitPrice: unitPrice,
		})

		lineTotal := unitPrice.Mul(decimal.NewFromInt(it.Quantity))
		plan.total = plan.total.Add(lineTotal)
	}

	return plan, nil
}

// PlaceOrderは注文を1トランザクションで確定する。
// 注文行・明細行・在庫減算はすべて一緒にコミットされるか、すべて消えるかのどちらか。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	//明細は最低1件
	if len(in.Items) == 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "at least one item is required")
	}
	for _, it := range in.Items {
		if it.ProductID <= 0 {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
		}
		if it.Quantity <= 0 {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "quantity must be positive")
		}
	}

	addr, err := u.normalizeAddress(in.Address)
	if err != nil {
		return OrderOutput{}, err
	}

	//ロック待ちで無限に保持しないように上限を切る
	ctx, cancel := context.WithTimeout(ctx, u.commitTimeout)
	defer cancel()

	var out OrderOutput

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//検証と価格スナップショット
		plan, err := assembleOrderPlan(ctx, r.Products(), in.Items)
		if err != nil {
			return err
		}

		//在庫減算（条件付きUPDATE）。
		//検証は同一トランザクション内だが、並行する別トランザクションが
		//先に在庫を取ることはあるので、0件更新は競合として全体を巻き戻す。
		for _, line := range plan.lines {
			ok, err := r.Inventory().DecrementStockIfAvailable(ctx, line.product.ID, line.quantity)
			if err != nil {
				return NewPersistenceError()
			}
			if !ok {
				return NewStockConflictError(line.product.ID)
			}
		}

		//注文作成（必ずPENDINGで作る）
		now := time.Now()
		orderID, err := r.Orders().Create(ctx, model.Order{
			UserID:    userID,
			Status:    model.OrderStatusPending,
			Total:     plan.total,
			Address:   addr,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return NewPersistenceError()
		}

		//明細一括作成（スナップショット凍結）
		orderItems := make([]model.OrderItem, 0, len(plan.lines))
		for _, line := range plan.lines {
			orderItems = append(orderItems, model.OrderItem{
				ProductID:            line.product.ID,
				Quantity:             line.quantity,
				UnitPriceSnapshot:    line.unitPrice,
				ProductTitleSnapshot: line.product.Title,
				ProductImageSnapshot: line.product.Image,
				CreatedAt:            now,
			})
		}
		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewPersistenceError()
		}

		out = OrderOutput{
			ID:        orderID,
			UserID:    userID,
			Status:    string(model.OrderStatusPending),
			Total:     plan.total,
			Address:   addr,
			CreatedAt: now,
			Items:     toOrderItemOutputs(orderItems),
		}
		return nil
	})

	if err != nil {
		//型のないエラー（接続断・commit失敗など）はストア障害として返す
		if _, ok := AsOrderError(err); !ok {
			if _, ok := AsHTTPError(err); !ok {
				return OrderOutput{}, NewPersistenceError()
			}
		}
		return OrderOutput{}, err
	}
	return out, nil
}

// 住所の必須チェックとcountryのデフォルト埋め
func (u *OrderUsecase) normalizeAddress(in AddressInput) (model.Address, error) {
	street := strings.TrimSpace(in.Street)
	city := strings.TrimSpace(in.City)
	state := strings.TrimSpace(in.State)
	zip := strings.TrimSpace(in.ZipCode)
	country := strings.TrimSpace(in.Country)

	if street == "" {
		return model.Address{}, NewHTTPError(http.StatusBadRequest, "street is required")
	}
	if city == "" {
		return model.Address{}, NewHTTPError(http.StatusBadRequest, "city is required")
	}
	if state == "" {
		return model.Address{}, NewHTTPError(http.StatusBadRequest, "state is required")
	}
	if zip == "" {
		return model.Address{}, NewHTTPError(http.StatusBadRequest, "zip_code is required")
	}
	if country == "" {
		country = u.defaultCountry
	}

	return model.Address{
		Street:  street,
		City:    city,
		State:   state,
		ZipCode: zip,
		Country: country,
	}, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page int, limit int) ([]OrderOutput, int64, error) {
	if userID <= 0 {
		return []OrderOutput{}, 0, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	var outs []OrderOutput
	var total int64

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, n, err := r.Orders().ListByUserID(ctx, userID, page, limit)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		total = n

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, 0, err
	}
	return outs, total, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func toOrderItemOutputs(items []model.OrderItem) []OrderItemOutput {
	outs := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outs = append(outs, OrderItemOutput{
			ProductID: it.ProductID,
			Title:     it.ProductTitleSnapshot,
			Image:     it.ProductImageSnapshot,
			UnitPrice: it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
		})
	}
	return outs
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	return OrderOutput{
		ID:         o.ID,
		UserID:     o.UserID,
		Status:     string(o.Status),
		Total:      o.Total,
		Address:    o.Address,
		PaymentRef: o.PaymentRef,
		CreatedAt:  o.CreatedAt,
		Items:      toOrderItemOutputs(items),
	}
}
