package entity

import (
	"time"

	"github.com/google/uuid"
)

// TTL bounds for an expiring link, in seconds.
const (
	MinLinkTTLSeconds = 300
	MaxLinkTTLSeconds = 30000
)

// ExpiringLink is a time-limited, token-addressed reference to exactly
// one of an uploaded image or a thumbnail. Rows are read-only after
// creation; the read path deletes a row lazily on the first access past
// its expiry.
type ExpiringLink struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	OwnerID     uuid.UUID  `json:"owner_id" gorm:"type:uuid;not null;index"`
	ImageID     *uuid.UUID `json:"image_id,omitempty" gorm:"type:uuid"`
	ThumbnailID *uuid.UUID `json:"thumbnail_id,omitempty" gorm:"type:uuid"`
	TTLSeconds  int        `json:"ttl_seconds" gorm:"not null"`
	Token       string     `json:"token" gorm:"type:varchar(100);not null;uniqueIndex"`
	CreatedAt   time.Time  `json:"created_at" gorm:"not null;autoCreateTime"`

	Image     *UploadedImage `json:"image,omitempty" gorm:"foreignKey:ImageID;constraint:OnDelete:CASCADE"`
	Thumbnail *Thumbnail     `json:"thumbnail,omitempty" gorm:"foreignKey:ThumbnailID;constraint:OnDelete:CASCADE"`
}

// ValidTarget reports whether exactly one of ImageID/ThumbnailID is set.
func (l *ExpiringLink) ValidTarget() bool {
	return (l.ImageID != nil) != (l.ThumbnailID != nil)
}

// ExpiresAt returns the instant the link stops being valid.
func (l *ExpiringLink) ExpiresAt() time.Time {
	return l.CreatedAt.Add(time.Duration(l.TTLSeconds) * time.Second)
}

// Expired reports whether the link is past its TTL at the given instant.
func (l *ExpiringLink) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt())
}

// ValidLinkTTL reports whether ttl is inside the allowed range.
func ValidLinkTTL(ttl int) bool {
	return ttl >= MinLinkTTLSeconds && ttl <= MaxLinkTTLSeconds
}
