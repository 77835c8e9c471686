package dto

import "github.com/google/uuid"

type CreateHeightRequestDTO struct {
	HeightPixels int `json:"height_pixels" binding:"required"`
}

type CreateTierRequestDTO struct {
	Name                string      `json:"name" binding:"required,min=1,max=128"`
	HeightIDs           []uuid.UUID `json:"height_ids"`
	AccessOriginalFile  bool        `json:"access_original_file"`
	AccessExpiringLinks bool        `json:"access_expiring_links"`
}

type UpdateTierHeightsRequestDTO struct {
	HeightIDs []uuid.UUID `json:"height_ids" binding:"required"`
}
