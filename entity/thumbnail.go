package entity

import (
	"time"

	"github.com/google/uuid"
)

// Thumbnail is the derived artifact for one (image, height) pair. The
// fan-out pipeline is the only writer. OwnerID duplicates the parent
// image's owner so per-user listing does not need a join.
//
// The composite unique index on (parent_image_id, height_id) is the
// storage-level guarantee that concurrent jobs racing on the same pair
// cannot both insert; the loser gets a duplicate-key error and drops
// its copy.
type Thumbnail struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ParentImageID uuid.UUID `json:"parent_image_id" gorm:"type:uuid;not null;uniqueIndex:idx_image_height"`
	HeightID      uuid.UUID `json:"height_id" gorm:"type:uuid;not null;uniqueIndex:idx_image_height"`
	OwnerID       uuid.UUID `json:"owner_id" gorm:"type:uuid;not null;index"`
	StoragePath   string    `json:"storage_path" gorm:"type:varchar(1024);not null"`
	Width         int       `json:"width" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at" gorm:"not null;autoCreateTime"`

	ParentImage *UploadedImage   `json:"parent_image,omitempty" gorm:"foreignKey:ParentImageID;constraint:OnDelete:CASCADE"`
	Height      *ThumbnailHeight `json:"height,omitempty" gorm:"foreignKey:HeightID;constraint:OnDelete:CASCADE"`
}
