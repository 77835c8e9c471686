package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UploadedImage is the original file as the user uploaded it.
// Rows are immutable after creation; deleting one cascades to its
// thumbnails and any expiring links pointing at it.
type UploadedImage struct {
	ID          uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	OwnerID     uuid.UUID         `json:"owner_id" gorm:"type:uuid;not null;index"`
	FileName    string            `json:"file_name" gorm:"type:varchar(512);not null"`
	StoragePath string            `json:"storage_path" gorm:"type:varchar(1024);not null"`
	ContentType string            `json:"content_type" gorm:"type:varchar(255)"`
	Size        int64             `json:"size" gorm:"not null"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty"` // pixel dimensions, decoded format
	CreatedAt   time.Time         `json:"created_at" gorm:"not null;autoCreateTime"`
}
