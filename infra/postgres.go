package infra

import (
	"fmt"

	"github.com/pixvault/pix-image-service/config"
	"github.com/pixvault/pix-image-service/entity"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type PostgresClient struct {
	DB *gorm.DB
}

func InitPostgresClient(cfg *config.EnvConfig) *PostgresClient {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.Postgres.Host,
		cfg.Postgres.Username,
		cfg.Postgres.Password,
		cfg.Postgres.Database,
		cfg.Postgres.Port,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true, // map driver errors to gorm.ErrDuplicatedKey etc.
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to Postgres: %v", err))
	}

	err = db.AutoMigrate(
		&entity.UploadedImage{},
		&entity.ThumbnailHeight{},
		&entity.UserTier{},
		&entity.Thumbnail{},
		&entity.ExpiringLink{},
	)
	if err != nil {
		panic(fmt.Sprintf("Failed to run database migrations: %v", err))
	}

	return &PostgresClient{DB: db}
}
