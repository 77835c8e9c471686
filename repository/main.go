package repository

import (
	"github.com/pixvault/pix-image-service/infra"
	"gorm.io/gorm"
)

type Repository struct {
	ImageRepo        *ImageRepository
	ThumbnailRepo    *ThumbnailRepository
	HeightRepo       *HeightRepository
	TierRepo         *TierRepository
	ExpiringLinkRepo *ExpiringLinkRepository
}

var repository *Repository

func InitRepository(infra *infra.Infra) *Repository {
	repository = &Repository{
		ImageRepo:        NewImageRepository(infra.Postgres.DB),
		ThumbnailRepo:    NewThumbnailRepository(infra.Postgres.DB),
		HeightRepo:       NewHeightRepository(infra.Postgres.DB),
		TierRepo:         NewTierRepository(infra.Postgres.DB),
		ExpiringLinkRepo: NewExpiringLinkRepository(infra.Postgres.DB),
	}
	return repository
}

func GetRepository() *Repository {
	if repository == nil {
		panic("repository not initialized")
	}
	return repository
}

func (r *Repository) BeginTransaction(db *gorm.DB) *gorm.DB {
	return db.Begin()
}

func (r *Repository) WithTransaction(tx *gorm.DB) *Repository {
	return &Repository{
		ImageRepo:        NewImageRepository(tx),
		ThumbnailRepo:    NewThumbnailRepository(tx),
		HeightRepo:       NewHeightRepository(tx),
		TierRepo:         NewTierRepository(tx),
		ExpiringLinkRepo: NewExpiringLinkRepository(tx),
	}
}
