package controller

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pixvault/pix-image-service/http/controller/dto"
	"github.com/pixvault/pix-image-service/infra"
	"github.com/pixvault/pix-image-service/infra/produce"
	"github.com/pixvault/pix-image-service/utils"
	"gorm.io/gorm"
)

type listOutcome int

const (
	listReady listOutcome = iota
	listNoUploads
	listAwaitingRepair
)

// resolveThumbnailListOutcome classifies an empty thumbnail listing. A
// user with no uploads legitimately has nothing to list; a user with
// uploads but zero rows at an entitled height hit a pipeline gap that a
// repair sweep must fill.
func resolveThumbnailListOutcome(uploadCount, thumbnailCount int) listOutcome {
	if thumbnailCount > 0 {
		return listReady
	}
	if uploadCount == 0 {
		return listNoUploads
	}
	return listAwaitingRepair
}

// ListThumbnails returns the caller's thumbnails at one height. The
// height must be part of the caller's tier. No uploads at all answers
// 204; uploads with zero materialized rows enqueues a repair sweep and
// answers 503 so the client retries.
func (ctrl *Controller) ListThumbnails(c *gin.Context) {
	ctx := c.Request.Context()
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Unauthorized")
		return
	}

	heightPixels, err := strconv.Atoi(c.Param("height"))
	if err != nil {
		utils.JSON400(c, "Invalid height")
		return
	}

	tier, err := ctrl.resolveTier(c)
	if err != nil {
		utils.JSON403(c, "No subscription tier assigned")
		return
	}
	if !tier.AllowsHeight(heightPixels) {
		utils.JSON403(c, fmt.Sprintf("Your tier does not include %dpx thumbnails", heightPixels))
		return
	}

	cacheKey := thumbnailListCacheKey(userID, heightPixels)
	var cached []dto.ThumbnailResponseDTO
	if err := ctrl.Infra.Redis.Get(ctx, cacheKey, &cached); err == nil {
		utils.JSON200(c, gin.H{"thumbnails": cached})
		return
	} else if !errors.Is(err, infra.ErrCacheMiss) {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Thumbnail] Cache read failed for user %s: %v", userID, err)
	}

	height, err := ctrl.Repository.HeightRepo.FindByPixels(heightPixels)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.JSON404(c, "Height is not defined")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Thumbnail] Failed to load height %dpx: %v", heightPixels, err)
		utils.JSON500(c, "Failed to list thumbnails")
		return
	}

	thumbnails, err := ctrl.Repository.ThumbnailRepo.FindByOwnerAndHeight(userID, height.ID)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Thumbnail] Failed to list thumbnails for user %s: %v", userID, err)
		utils.JSON500(c, "Failed to list thumbnails")
		return
	}

	if len(thumbnails) == 0 {
		images, err := ctrl.Repository.ImageRepo.FindByOwnerID(userID)
		if err != nil {
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Thumbnail] Failed to list images for user %s: %v", userID, err)
			utils.JSON500(c, "Failed to list thumbnails")
			return
		}

		switch resolveThumbnailListOutcome(len(images), len(thumbnails)) {
		case listNoUploads:
			utils.JSON204(c)
		case listAwaitingRepair:
			ctrl.enqueueRepair(c, userID, fmt.Sprintf("no thumbnails at %dpx for %d uploaded images", heightPixels, len(images)))
			utils.JSON503(c, "Thumbnails are not ready yet, try again shortly")
		}
		return
	}

	response := make([]dto.ThumbnailResponseDTO, 0, len(thumbnails))
	for _, t := range thumbnails {
		response = append(response, dto.ThumbnailResponseDTO{
			ID:            t.ID,
			ParentImageID: t.ParentImageID,
			HeightPixels:  heightPixels,
			Width:         t.Width,
			URL:           fmt.Sprintf("/api/v1/images/%s/thumbnails/%d", t.ParentImageID, heightPixels),
			CreatedAt:     t.CreatedAt,
		})
	}

	if err := ctrl.Infra.Redis.Set(ctx, cacheKey, response, listCacheTTL); err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Thumbnail] Cache write failed for user %s: %v", userID, err)
	}

	utils.JSON200(c, gin.H{"thumbnails": response})
}

// GetThumbnailFile streams one thumbnail's JPEG bytes. When a thumbnail
// the caller is entitled to does not exist yet, the pipeline may still
// be running or a trigger was lost: the handler enqueues a repair sweep
// and answers 503 so the client retries.
func (ctrl *Controller) GetThumbnailFile(c *gin.Context) {
	ctx := c.Request.Context()
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Unauthorized")
		return
	}

	imageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.JSON400(c, "Invalid image id")
		return
	}

	heightPixels, err := strconv.Atoi(c.Param("height"))
	if err != nil {
		utils.JSON400(c, "Invalid height")
		return
	}

	tier, err := ctrl.resolveTier(c)
	if err != nil {
		utils.JSON403(c, "No subscription tier assigned")
		return
	}
	if !tier.AllowsHeight(heightPixels) {
		utils.JSON403(c, fmt.Sprintf("Your tier does not include %dpx thumbnails", heightPixels))
		return
	}

	image, err := ctrl.Repository.ImageRepo.FindByID(imageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.JSON404(c, "Image not found")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Thumbnail] Failed to load image %s: %v", imageID, err)
		utils.JSON500(c, "Failed to load thumbnail")
		return
	}
	if image.OwnerID != userID {
		utils.JSON404(c, "Image not found")
		return
	}

	height, err := ctrl.Repository.HeightRepo.FindByPixels(heightPixels)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.JSON404(c, "Height is not defined")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Thumbnail] Failed to load height %dpx: %v", heightPixels, err)
		utils.JSON500(c, "Failed to load thumbnail")
		return
	}

	thumbnail, err := ctrl.Repository.ThumbnailRepo.FindByImageAndHeight(imageID, height.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctrl.enqueueRepair(c, userID, fmt.Sprintf("missing thumbnail for image %s at %dpx", imageID, heightPixels))
			utils.JSON503(c, "Thumbnail is not ready yet, try again shortly")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Thumbnail] Failed to load thumbnail for image %s: %v", imageID, err)
		utils.JSON500(c, "Failed to load thumbnail")
		return
	}

	data, err := ctrl.Infra.Minio.GetObject(ctx, thumbnail.StoragePath)
	if err != nil {
		// Row without a blob; a repair run re-creates neither, so log
		// loudly. The client still gets a retryable answer.
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Thumbnail] Blob missing for thumbnail %s at '%s': %v", thumbnail.ID, thumbnail.StoragePath, err)
		utils.JSON503(c, "Thumbnail is temporarily unavailable, try again shortly")
		return
	}

	c.Data(200, "image/jpeg", data)
}

func (ctrl *Controller) enqueueRepair(c *gin.Context, userID uuid.UUID, reason string) {
	ctx := c.Request.Context()
	err := ctrl.Infra.Produce.ThumbnailService.PublishRepairUser(ctx, produce.RepairUserMessage{
		UserID: userID,
		Reason: reason,
	})
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Thumbnail] Failed to publish repair for user %s: %v", userID, err)
		return
	}
	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Thumbnail] Enqueued repair for user %s: %s", userID, reason)
}
