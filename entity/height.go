package entity

import (
	"time"

	"github.com/google/uuid"
)

// Bounds for a thumbnail height definition. 8640px is a 16K frame height.
const (
	MinHeightPixels = 25
	MaxHeightPixels = 8640
)

// ThumbnailHeight is a globally unique target height that thumbnails are
// materialized at. The value is written once at creation and never
// updated: already-materialized thumbnails would silently desynchronize
// from an edited height, so no update path exists anywhere in the service.
type ThumbnailHeight struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	HeightPixels int       `json:"height_pixels" gorm:"not null;uniqueIndex"`
	CreatedAt    time.Time `json:"created_at" gorm:"not null;autoCreateTime"`
}

// ValidHeightPixels reports whether h is inside the allowed range.
func ValidHeightPixels(h int) bool {
	return h >= MinHeightPixels && h <= MaxHeightPixels
}
