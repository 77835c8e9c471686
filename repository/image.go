package repository

import (
	"github.com/google/uuid"
	"github.com/pixvault/pix-image-service/entity"
	"gorm.io/gorm"
)

type ImageRepository struct {
	db *gorm.DB
}

func NewImageRepository(db *gorm.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

func (r *ImageRepository) Create(image *entity.UploadedImage) error {
	return r.db.Create(image).Error
}

func (r *ImageRepository) FindByID(id uuid.UUID) (*entity.UploadedImage, error) {
	var image entity.UploadedImage
	err := r.db.Where("id = ?", id).First(&image).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

func (r *ImageRepository) FindAll() ([]entity.UploadedImage, error) {
	var images []entity.UploadedImage
	err := r.db.Find(&images).Error
	if err != nil {
		return nil, err
	}
	return images, nil
}

func (r *ImageRepository) FindByOwnerID(ownerID uuid.UUID) ([]entity.UploadedImage, error) {
	var images []entity.UploadedImage
	err := r.db.Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&images).Error
	if err != nil {
		return nil, err
	}
	return images, nil
}

func (r *ImageRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&entity.UploadedImage{}, "id = ?", id).Error
}
