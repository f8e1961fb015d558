package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

// 注文系の失敗はコード付きで返す。
// 呼び出し側が「再検証して再試行するか」「入力を直すか」を機械的に判定できるようにする。
const (
	CodeProductNotFound    = "PRODUCT_NOT_FOUND"
	CodeInsufficientStock  = "INSUFFICIENT_STOCK"
	CodeStockConflict      = "STOCK_CONFLICT"
	CodePersistenceFailure = "PERSISTENCE_FAILURE"
)

type OrderError struct {
	Code    string
	Status  int
	Message string
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func AsOrderError(err error) (*OrderError, bool) {
	var oe *OrderError
	ok := errors.As(err, &oe)
	return oe, ok
}

// 商品が存在しない or 非公開
func NewProductNotFoundError(productID int64) error {
	return &OrderError{
		Code:    CodeProductNotFound,
		Status:  http.StatusNotFound,
		Message: fmt.Sprintf("product with ID %d not found", productID),
	}
}

// 検証時点で在庫不足
func NewInsufficientStockError(title string, stock int64) error {
	return &OrderError{
		Code:    CodeInsufficientStock,
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("insufficient stock for product %s (available: %d)", title, stock),
	}
}

// 検証後〜確定までの間に他の注文が在庫を取った（条件付きUPDATEが0件）
func NewStockConflictError(productID int64) error {
	return &OrderError{
		Code:    CodeStockConflict,
		Status:  http.StatusConflict,
		Message: fmt.Sprintf("stock changed concurrently for product %d, please retry", productID),
	}
}

// ストア障害。何もコミットされていないので同じ内容で再試行してよい
func NewPersistenceError() error {
	return &OrderError{
		Code:    CodePersistenceFailure,
		Status:  http.StatusInternalServerError,
		Message: "failed to persist order",
	}
}
