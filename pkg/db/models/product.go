package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketcore-backend/pkg/enums"
)

// Product is the catalog row mutated by the inventory ledger.
type Product struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	MerchantID      uuid.UUID           `gorm:"column:merchant_id;type:uuid;not null;index"`
	Name            string              `gorm:"column:name;not null"`
	SKU             string              `gorm:"column:sku;not null"`
	ImageURL        *string             `gorm:"column:image_url"`
	Price           decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	Stock           int                 `gorm:"column:stock;not null;default:0"`
	Status          enums.ProductStatus `gorm:"column:status;type:text;not null;default:'on'"`
	SalesCount      int                 `gorm:"column:sales_count;not null;default:0"`
	ViewsCount      int                 `gorm:"column:views_count;not null;default:0"`
	FavoritesCount  int                 `gorm:"column:favorites_count;not null;default:0"`
	LikesCount      int                 `gorm:"column:likes_count;not null;default:0"`
	PopularityScore int                 `gorm:"column:popularity_score;not null;default:0"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// Popularity derives the ranking score from the engagement counters.
func (p Product) Popularity() int {
	return p.SalesCount*10 + p.FavoritesCount*5 + p.LikesCount*2 + p.ViewsCount
}
