package dto

import "github.com/google/uuid"

// CreateLinkRequestDTO targets exactly one of image_id or thumbnail_id.
type CreateLinkRequestDTO struct {
	ImageID     *uuid.UUID `json:"image_id"`
	ThumbnailID *uuid.UUID `json:"thumbnail_id"`
	TTLSeconds  int        `json:"ttl_seconds" binding:"required"`
}

type LinkResponseDTO struct {
	Token     string `json:"token"`
	URL       string `json:"url"`
	ExpiresAt string `json:"expires_at"`
}
