package repository

import (
	"github.com/google/uuid"
	"github.com/pixvault/pix-image-service/entity"
	"gorm.io/gorm"
)

type TierRepository struct {
	db *gorm.DB
}

func NewTierRepository(db *gorm.DB) *TierRepository {
	return &TierRepository{db: db}
}

func (r *TierRepository) Create(tier *entity.UserTier) error {
	return r.db.Create(tier).Error
}

// FindByID loads the tier with its height entitlements preloaded.
func (r *TierRepository) FindByID(id uuid.UUID) (*entity.UserTier, error) {
	var tier entity.UserTier
	err := r.db.Preload("Heights").Where("id = ?", id).First(&tier).Error
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

func (r *TierRepository) FindByName(name string) (*entity.UserTier, error) {
	var tier entity.UserTier
	err := r.db.Preload("Heights").Where("name = ?", name).First(&tier).Error
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

func (r *TierRepository) FindAll() ([]entity.UserTier, error) {
	var tiers []entity.UserTier
	err := r.db.Preload("Heights").Order("name ASC").Find(&tiers).Error
	if err != nil {
		return nil, err
	}
	return tiers, nil
}

// ReplaceHeights swaps the tier's height entitlements for the given set.
func (r *TierRepository) ReplaceHeights(tier *entity.UserTier, heights []entity.ThumbnailHeight) error {
	return r.db.Model(tier).Association("Heights").Replace(heights)
}
