package promotions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketcore-backend/pkg/db"
	"github.com/angelmondragon/marketcore-backend/pkg/db/models"
	"github.com/angelmondragon/marketcore-backend/pkg/enums"
)

// Resolver picks at most one applicable promotion per product.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

type promotionLink struct {
	ProductID   uuid.UUID
	PromotionID uuid.UUID
}

// Resolve returns the winning promotion for each product that has one at now.
// Candidates are active with start_at <= now < end_at; when several qualify
// the most recently created wins. Discount magnitudes are not compared.
func (r *Resolver) Resolve(ctx context.Context, tx *gorm.DB, productIDs []uuid.UUID, now time.Time) (map[uuid.UUID]models.Promotion, error) {
	out := make(map[uuid.UUID]models.Promotion, len(productIDs))
	ids := uniqueIDs(productIDs)
	if len(ids) == 0 {
		return out, nil
	}
	now = now.UTC()

	var links []promotionLink
	err := tx.WithContext(ctx).
		Table("promotion_products AS pp").
		Select("pp.product_id, pp.promotion_id").
		Joins("JOIN promotions p ON p.id = pp.promotion_id").
		Where("pp.product_id IN ?", ids).
		Where("p.status = ?", enums.PromotionStatusActive).
		Where("p.start_at <= ? AND p.end_at > ?", now, now).
		Order("p.created_at DESC").
		Order("p.id DESC").
		Scan(&links).Error
	if err != nil {
		return nil, db.ClassifyError(err, "resolve promotions")
	}
	if len(links) == 0 {
		return out, nil
	}

	winners := make(map[uuid.UUID]uuid.UUID, len(ids))
	for _, link := range links {
		if _, seen := winners[link.ProductID]; !seen {
			winners[link.ProductID] = link.PromotionID
		}
	}

	promoIDs := make([]uuid.UUID, 0, len(winners))
	for _, id := range winners {
		promoIDs = append(promoIDs, id)
	}
	var promos []models.Promotion
	if err := tx.WithContext(ctx).Where("id IN ?", uniqueIDs(promoIDs)).Find(&promos).Error; err != nil {
		return nil, db.ClassifyError(err, "load promotions")
	}
	byID := make(map[uuid.UUID]models.Promotion, len(promos))
	for _, p := range promos {
		byID[p.ID] = p
	}
	for productID, promoID := range winners {
		if promo, ok := byID[promoID]; ok {
			out[productID] = promo
		}
	}
	return out, nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
