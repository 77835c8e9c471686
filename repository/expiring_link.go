package repository

import (
	"github.com/google/uuid"
	"github.com/pixvault/pix-image-service/entity"
	"gorm.io/gorm"
)

type ExpiringLinkRepository struct {
	db *gorm.DB
}

func NewExpiringLinkRepository(db *gorm.DB) *ExpiringLinkRepository {
	return &ExpiringLinkRepository{db: db}
}

func (r *ExpiringLinkRepository) Create(link *entity.ExpiringLink) error {
	return r.db.Create(link).Error
}

func (r *ExpiringLinkRepository) FindByToken(token string) (*entity.ExpiringLink, error) {
	var link entity.ExpiringLink
	err := r.db.Where("token = ?", token).First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *ExpiringLinkRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&entity.ExpiringLink{}, "id = ?", id).Error
}
