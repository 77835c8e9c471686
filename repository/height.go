package repository

import (
	"github.com/google/uuid"
	"github.com/pixvault/pix-image-service/entity"
	"gorm.io/gorm"
)

type HeightRepository struct {
	db *gorm.DB
}

func NewHeightRepository(db *gorm.DB) *HeightRepository {
	return &HeightRepository{db: db}
}

func (r *HeightRepository) Create(height *entity.ThumbnailHeight) error {
	return r.db.Create(height).Error
}

func (r *HeightRepository) FindByID(id uuid.UUID) (*entity.ThumbnailHeight, error) {
	var height entity.ThumbnailHeight
	err := r.db.Where("id = ?", id).First(&height).Error
	if err != nil {
		return nil, err
	}
	return &height, nil
}

func (r *HeightRepository) FindByPixels(heightPixels int) (*entity.ThumbnailHeight, error) {
	var height entity.ThumbnailHeight
	err := r.db.Where("height_pixels = ?", heightPixels).First(&height).Error
	if err != nil {
		return nil, err
	}
	return &height, nil
}

func (r *HeightRepository) FindAll() ([]entity.ThumbnailHeight, error) {
	var heights []entity.ThumbnailHeight
	err := r.db.Order("height_pixels ASC").Find(&heights).Error
	if err != nil {
		return nil, err
	}
	return heights, nil
}

func (r *HeightRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&entity.ThumbnailHeight{}, "id = ?", id).Error
}
