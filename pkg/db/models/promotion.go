package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketcore-backend/pkg/enums"
)

// Promotion is a time-bounded discount over a set of products. The window is
// [StartAt, EndAt).
type Promotion struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	MerchantID    uuid.UUID             `gorm:"column:merchant_id;type:uuid;not null;index"`
	Title         string                `gorm:"column:title;not null"`
	DiscountType  enums.DiscountType    `gorm:"column:discount_type;type:text;not null"`
	DiscountValue decimal.Decimal       `gorm:"column:discount_value;type:numeric(12,2);not null"`
	StartAt       time.Time             `gorm:"column:start_at;not null"`
	EndAt         time.Time             `gorm:"column:end_at;not null"`
	Status        enums.PromotionStatus `gorm:"column:status;type:text;not null;default:'active'"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Promotion) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// PromotionProduct links promotions to the products they discount.
type PromotionProduct struct {
	PromotionID uuid.UUID `gorm:"column:promotion_id;type:uuid;primaryKey"`
	ProductID   uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey;index"`
}
