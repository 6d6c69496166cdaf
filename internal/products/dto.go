package product

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/marketcore-backend/pkg/db/models"
)

// Snapshot is the human-facing view of a product shown next to cart and
// order lines.
type Snapshot struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	ImageURL *string   `json:"image_url,omitempty"`
}

func SnapshotOf(p models.Product) Snapshot {
	return Snapshot{ID: p.ID, Name: p.Name, ImageURL: p.ImageURL}
}
