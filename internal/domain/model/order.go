package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusFailed    OrderStatus = "FAILED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusFulfilled OrderStatus = "FULFILLED"
)

// 配送先住所。注文ごとに申告されるのでOrderに埋め込む
type Address struct {
	Street  string `gorm:"type:varchar(255);not null" json:"street"`
	City    string `gorm:"type:varchar(255);not null" json:"city"`
	State   string `gorm:"type:varchar(100);not null" json:"state"`
	ZipCode string `gorm:"column:zip_code;type:varchar(20);not null" json:"zip_code"`
	Country string `gorm:"type:varchar(100);not null" json:"country"`
}

// 作成時は必ずPENDING
type Order struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64           `gorm:"not null;index" json:"user_id"`
	Status     OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	Total      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	Address    Address         `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	PaymentRef *string         `gorm:"type:varchar(255)" json:"payment_ref,omitempty"`
	CreatedAt  time.Time       `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
