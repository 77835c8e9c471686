package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/pixvault/pix-image-service/entity"
	"github.com/pixvault/pix-image-service/fanout"
	"gorm.io/gorm"
)

type ThumbnailRepository struct {
	db *gorm.DB
}

func NewThumbnailRepository(db *gorm.DB) *ThumbnailRepository {
	return &ThumbnailRepository{db: db}
}

// Create inserts a thumbnail row. A duplicate on the (image, height)
// unique index is reported as fanout.ErrThumbnailExists so the pipeline
// can treat a lost insert race as a skip.
func (r *ThumbnailRepository) Create(thumbnail *entity.Thumbnail) error {
	err := r.db.Create(thumbnail).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fanout.ErrThumbnailExists
	}
	return err
}

func (r *ThumbnailRepository) ExistsByImageAndHeight(imageID, heightID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&entity.Thumbnail{}).
		Where("parent_image_id = ? AND height_id = ?", imageID, heightID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ThumbnailRepository) FindByID(id uuid.UUID) (*entity.Thumbnail, error) {
	var thumbnail entity.Thumbnail
	err := r.db.Where("id = ?", id).First(&thumbnail).Error
	if err != nil {
		return nil, err
	}
	return &thumbnail, nil
}

func (r *ThumbnailRepository) FindByImageAndHeight(imageID, heightID uuid.UUID) (*entity.Thumbnail, error) {
	var thumbnail entity.Thumbnail
	err := r.db.Where("parent_image_id = ? AND height_id = ?", imageID, heightID).First(&thumbnail).Error
	if err != nil {
		return nil, err
	}
	return &thumbnail, nil
}

func (r *ThumbnailRepository) FindByOwnerAndHeight(ownerID, heightID uuid.UUID) ([]entity.Thumbnail, error) {
	var thumbnails []entity.Thumbnail
	err := r.db.Where("owner_id = ? AND height_id = ?", ownerID, heightID).
		Order("created_at DESC").Find(&thumbnails).Error
	if err != nil {
		return nil, err
	}
	return thumbnails, nil
}

func (r *ThumbnailRepository) FindByImageID(imageID uuid.UUID) ([]entity.Thumbnail, error) {
	var thumbnails []entity.Thumbnail
	err := r.db.Where("parent_image_id = ?", imageID).Find(&thumbnails).Error
	if err != nil {
		return nil, err
	}
	return thumbnails, nil
}

// DeleteByImageID removes all thumbnail rows of one image and returns
// the deleted rows so the caller can queue their blobs for cleanup.
func (r *ThumbnailRepository) DeleteByImageID(imageID uuid.UUID) ([]entity.Thumbnail, error) {
	var thumbnails []entity.Thumbnail
	err := r.db.Where("parent_image_id = ?", imageID).Find(&thumbnails).Error
	if err != nil {
		return nil, err
	}
	err = r.db.Delete(&entity.Thumbnail{}, "parent_image_id = ?", imageID).Error
	if err != nil {
		return nil, err
	}
	return thumbnails, nil
}

// DeleteByHeightID removes all thumbnail rows of one height and returns
// the deleted rows so the caller can queue their blobs for cleanup.
func (r *ThumbnailRepository) DeleteByHeightID(heightID uuid.UUID) ([]entity.Thumbnail, error) {
	var thumbnails []entity.Thumbnail
	err := r.db.Where("height_id = ?", heightID).Find(&thumbnails).Error
	if err != nil {
		return nil, err
	}
	err = r.db.Delete(&entity.Thumbnail{}, "height_id = ?", heightID).Error
	if err != nil {
		return nil, err
	}
	return thumbnails, nil
}
