package repository

import (
	"context"

	"github.com/rvmaher/dermatouch-backend/internal/domain/model"
)

type InventoryRepository interface {
	// 在庫の現在値を設定
	SetStock(ctx context.Context, productID int64, newStock int64) error

	// 在庫が足りるときだけ減算する条件付きUPDATE。
	// 0件更新（= 競合か在庫切れ）なら false を返す。
	DecrementStockIfAvailable(ctx context.Context, productID int64, qty int64) (bool, error)

	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}
