package dto

import (
	"time"

	"github.com/google/uuid"
)

// ImageResponseDTO is the originals list entry. Only tiers with original
// file access ever see it, so the download URL is always present.
type ImageResponseDTO struct {
	ID          uuid.UUID `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}

// ThumbnailResponseDTO is the thumbnail list entry for one height.
type ThumbnailResponseDTO struct {
	ID            uuid.UUID `json:"id"`
	ParentImageID uuid.UUID `json:"parent_image_id"`
	HeightPixels  int       `json:"height_pixels"`
	Width         int       `json:"width"`
	URL           string    `json:"url"`
	CreatedAt     time.Time `json:"created_at"`
}
