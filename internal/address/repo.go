// Package address reads the buyer's address book. Orders reference an
// address by id only; nothing here writes.
package address

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketcore-backend/pkg/db"
	"github.com/angelmondragon/marketcore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/marketcore-backend/pkg/errors"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindForUser returns the address when it exists and belongs to userID.
// Both failures surface as the same NotFound so ids cannot be probed.
func (r *Repository) FindForUser(ctx context.Context, addressID, userID uuid.UUID) (*models.Address, error) {
	if addressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id required")
	}
	var addr models.Address
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		Take(&addr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	if err != nil {
		return nil, db.ClassifyError(err, "load address")
	}
	return &addr, nil
}

// ListForUser returns the user's addresses, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var out []models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, db.ClassifyError(err, "list addresses")
	}
	return out, nil
}
