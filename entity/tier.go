package entity

import (
	"time"

	"github.com/google/uuid"
)

// UserTier bundles the thumbnail heights a subscriber may view with the
// two capability flags of the plan.
type UserTier struct {
	ID                  uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	Name                string            `json:"name" gorm:"type:varchar(128);not null;uniqueIndex"`
	Heights             []ThumbnailHeight `json:"heights,omitempty" gorm:"many2many:tier_heights"`
	AccessOriginalFile  bool              `json:"access_original_file" gorm:"not null;default:false"`
	AccessExpiringLinks bool              `json:"access_expiring_links" gorm:"not null;default:false"`
	CreatedAt           time.Time         `json:"created_at" gorm:"not null;autoCreateTime"`
}

// AllowsHeight reports whether the tier includes the given pixel height.
func (t *UserTier) AllowsHeight(heightPixels int) bool {
	for _, h := range t.Heights {
		if h.HeightPixels == heightPixels {
			return true
		}
	}
	return false
}
