package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文明細。価格と表示項目は注文時点のスナップショットで凍結する。
// 以後商品が値上げ・改名されても明細は変わらない。
type OrderItem struct {
	ID                   int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID              int64           `gorm:"not null;index" json:"order_id"`
	ProductID            int64           `gorm:"not null;index" json:"product_id"`
	Quantity             int64           `gorm:"not null" json:"quantity"`
	UnitPriceSnapshot    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price_snapshot"`
	ProductTitleSnapshot string          `gorm:"type:varchar(200);not null" json:"product_title_snapshot"`
	ProductImageSnapshot string          `gorm:"type:varchar(500)" json:"product_image_snapshot"`
	CreatedAt            time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
