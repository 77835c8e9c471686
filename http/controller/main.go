package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pixvault/pix-image-service/config"
	"github.com/pixvault/pix-image-service/infra"
	"github.com/pixvault/pix-image-service/repository"
)

// listCacheTTL bounds staleness of the per-user list responses.
const listCacheTTL = 10 * time.Minute

type Controller struct {
	Config     *config.Config
	Infra      *infra.Infra
	Repository *repository.Repository
}

func NewController(config *config.Config, infra *infra.Infra, repo *repository.Repository) *Controller {
	if repo == nil {
		panic("Failed to initialize Repository")
	}
	return &Controller{
		Config:     config,
		Infra:      infra,
		Repository: repo,
	}
}

func imageListCacheKey(userID uuid.UUID) string {
	return fmt.Sprintf("images:user:%s", userID)
}

func thumbnailListCacheKey(userID uuid.UUID, heightPixels int) string {
	return fmt.Sprintf("thumbnails:user:%s:height:%d", userID, heightPixels)
}

// invalidateUserCaches drops every cached list response of one user.
// Called after uploads and deletions; thumbnail list keys are per-height
// so they are cleared by pattern.
func (ctrl *Controller) invalidateUserCaches(ctx context.Context, userID uuid.UUID) {
	keys := []string{imageListCacheKey(userID)}

	pattern := fmt.Sprintf("thumbnails:user:%s:height:*", userID)
	iter := ctrl.Infra.Redis.Client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Cache] Failed to scan thumbnail list keys for user %s: %v", userID, err)
	}

	if err := ctrl.Infra.Redis.Delete(ctx, keys...); err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Cache] Failed to invalidate list caches for user %s: %v", userID, err)
	}
}
