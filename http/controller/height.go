package controller

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pixvault/pix-image-service/entity"
	"github.com/pixvault/pix-image-service/http/controller/dto"
	"github.com/pixvault/pix-image-service/infra/produce"
	"github.com/pixvault/pix-image-service/utils"
	"gorm.io/gorm"
)

// CreateHeight defines a new thumbnail height and enqueues fan-out over
// every existing image. Heights are immutable once created.
func (ctrl *Controller) CreateHeight(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateHeightRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Height] Failed to bind JSON: %v", err)
		utils.JSON400(c, "Invalid request payload")
		return
	}

	if !entity.ValidHeightPixels(req.HeightPixels) {
		utils.JSON400(c, fmt.Sprintf("height_pixels must be between %d and %d", entity.MinHeightPixels, entity.MaxHeightPixels))
		return
	}

	height := &entity.ThumbnailHeight{
		ID:           uuid.New(),
		HeightPixels: req.HeightPixels,
	}

	if err := ctrl.Repository.HeightRepo.Create(height); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.JSON409(c, "Height already exists")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Height] Failed to create height %dpx: %v", req.HeightPixels, err)
		utils.JSON500(c, "Failed to create height")
		return
	}

	err := ctrl.Infra.Produce.ThumbnailService.PublishHeightCreated(ctx, produce.HeightCreatedMessage{HeightID: height.ID})
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Height] Failed to publish height created message: %v", err)
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Height] Created height %dpx (%s)", height.HeightPixels, height.ID)
	utils.JSON201(c, gin.H{
		"message": "Height created, thumbnails are being generated",
		"height":  height,
	})
}

func (ctrl *Controller) ListHeights(c *gin.Context) {
	ctx := c.Request.Context()

	heights, err := ctrl.Repository.HeightRepo.FindAll()
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Height] Failed to list heights: %v", err)
		utils.JSON500(c, "Failed to list heights")
		return
	}

	utils.JSON200(c, gin.H{"heights": heights})
}

// DeleteHeight retires a height. Its thumbnail rows are removed first
// and the blobs queued for audited deletion, so the cascade is visible
// in the cleanup consumer's log rather than silent.
func (ctrl *Controller) DeleteHeight(c *gin.Context) {
	ctx := c.Request.Context()

	heightID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.JSON400(c, "Invalid height id")
		return
	}

	height, err := ctrl.Repository.HeightRepo.FindByID(heightID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.JSON404(c, "Height not found")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Height] Failed to load height %s: %v", heightID, err)
		utils.JSON500(c, "Failed to delete height")
		return
	}

	thumbnails, err := ctrl.Repository.ThumbnailRepo.DeleteByHeightID(heightID)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Height] Failed to delete thumbnails of height %s: %v", heightID, err)
		utils.JSON500(c, "Failed to delete height")
		return
	}

	if err := ctrl.Repository.HeightRepo.Delete(heightID); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Height] Failed to delete height %s: %v", heightID, err)
		utils.JSON500(c, "Failed to delete height")
		return
	}

	if len(thumbnails) > 0 {
		storagePaths := make([]string, 0, len(thumbnails))
		for _, t := range thumbnails {
			storagePaths = append(storagePaths, t.StoragePath)
		}

		err = ctrl.Infra.Produce.CleanupService.PublishCleanup(ctx, produce.CleanupMessage{
			StoragePaths: storagePaths,
			Reason:       fmt.Sprintf("height %dpx (%s) deleted by admin", height.HeightPixels, heightID),
		})
		if err != nil {
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Height] Failed to publish cleanup for height %s: %v", heightID, err)
		}
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Height] Deleted height %dpx and %d thumbnails", height.HeightPixels, len(thumbnails))
	utils.JSON204(c)
}
