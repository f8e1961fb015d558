package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 価格は金額なのでfloatではなくdecimal（numeric）で持つ
type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string          `gorm:"type:varchar(200);not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Image       string          `gorm:"type:varchar(500)" json:"image"`
	SKU         *string         `gorm:"type:varchar(100);uniqueIndex" json:"sku,omitempty"`
	Stock       int64           `gorm:"not null;default:0" json:"stock"`
	IsActive    bool            `gorm:"not null;default:true" json:"is_active"`
	CategoryID  int64           `gorm:"not null;index" json:"category_id"`
	Category    *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}
