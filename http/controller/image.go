package controller

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pixvault/pix-image-service/entity"
	"github.com/pixvault/pix-image-service/http/controller/dto"
	"github.com/pixvault/pix-image-service/infra"
	"github.com/pixvault/pix-image-service/infra/produce"
	"github.com/pixvault/pix-image-service/processor"
	"github.com/pixvault/pix-image-service/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var allowedUploadExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// UploadImage stores the original bytes, records the metadata row and
// enqueues thumbnail fan-out. The upload is acknowledged before any
// thumbnail exists.
func (ctrl *Controller) UploadImage(c *gin.Context) {
	ctx := c.Request.Context()
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Invalid user_id: %v", err)
		utils.JSON401(c, "Unauthorized")
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Missing upload file: %v", err)
		utils.JSON400(c, "An 'image' form field is required")
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	contentType, ok := allowedUploadExtensions[ext]
	if !ok {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Image] Rejected upload with extension '%s'", ext)
		utils.JSON400(c, "Only jpg, jpeg and png files are accepted")
		return
	}

	if fileHeader.Size > ctrl.Config.EnvConfig.Upload.MaxSizeBytes {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Image] Rejected oversize upload: %d bytes", fileHeader.Size)
		utils.JSON400(c, fmt.Sprintf("File exceeds the %d byte limit", ctrl.Config.EnvConfig.Upload.MaxSizeBytes))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to open upload: %v", err)
		utils.JSON500(c, "Failed to read upload")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to read upload: %v", err)
		utils.JSON500(c, "Failed to read upload")
		return
	}

	// Decode up front so a corrupt file fails the request instead of
	// every fan-out job later.
	width, height, err := processor.Dimensions(data)
	if err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Image] Rejected undecodable upload '%s': %v", fileHeader.Filename, err)
		utils.JSON400(c, "File is not a decodable image")
		return
	}

	imageID := uuid.New()
	storagePath := fmt.Sprintf("originals/%s/%s%s", userID, imageID, ext)

	if err := ctrl.Infra.Minio.PutObject(ctx, storagePath, data, contentType); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to store upload blob: %v", err)
		utils.JSON500(c, "Failed to store upload")
		return
	}

	image := &entity.UploadedImage{
		ID:          imageID,
		OwnerID:     userID,
		FileName:    filepath.Base(fileHeader.Filename),
		StoragePath: storagePath,
		ContentType: contentType,
		Size:        int64(len(data)),
		Metadata: datatypes.JSONMap{
			"width":  width,
			"height": height,
		},
	}

	if err := ctrl.Repository.ImageRepo.Create(image); err != nil {
		if delErr := ctrl.Infra.Minio.DeleteObject(ctx, storagePath); delErr != nil {
			ctrl.Infra.Logger.ErrorWithContextf(ctx, delErr, "[Image] Failed to rollback blob after database error: %v", delErr)
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to create image record: %v", err)
		utils.JSON500(c, "Failed to record upload")
		return
	}

	err = ctrl.Infra.Produce.ThumbnailService.PublishImageCreated(ctx, produce.ImageCreatedMessage{ImageID: imageID})
	if err != nil {
		// The upload itself succeeded; the repair sweep will pick the
		// image up if the trigger is lost.
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to publish image created message: %v", err)
	}

	ctrl.invalidateUserCaches(ctx, userID)

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Image] Uploaded image %s (%dx%d) for user %s", imageID, width, height, userID)
	utils.JSON202(c, gin.H{
		"message": "Image uploaded, thumbnails are being generated",
		"image":   image,
	})
}

// ListImages returns the caller's original uploads. Only tiers with
// original file access may call it; everyone else browses thumbnails.
func (ctrl *Controller) ListImages(c *gin.Context) {
	ctx := c.Request.Context()
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Unauthorized")
		return
	}

	tier, err := ctrl.resolveTier(c)
	if err != nil {
		utils.JSON403(c, "No subscription tier assigned")
		return
	}
	if !tier.AccessOriginalFile {
		utils.JSON403(c, "Your tier does not include original file access")
		return
	}

	cacheKey := imageListCacheKey(userID)
	var cached []dto.ImageResponseDTO
	if err := ctrl.Infra.Redis.Get(ctx, cacheKey, &cached); err == nil {
		utils.JSON200(c, gin.H{"images": cached})
		return
	} else if !errors.Is(err, infra.ErrCacheMiss) {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Image] Cache read failed for user %s: %v", userID, err)
	}

	images, err := ctrl.Repository.ImageRepo.FindByOwnerID(userID)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to list images for user %s: %v", userID, err)
		utils.JSON500(c, "Failed to list images")
		return
	}

	if len(images) == 0 {
		utils.JSON204(c)
		return
	}

	response := make([]dto.ImageResponseDTO, 0, len(images))
	for _, img := range images {
		response = append(response, dto.ImageResponseDTO{
			ID:          img.ID,
			FileName:    img.FileName,
			ContentType: img.ContentType,
			Size:        img.Size,
			URL:         fmt.Sprintf("/api/v1/images/%s/file", img.ID),
			CreatedAt:   img.CreatedAt,
		})
	}

	if err := ctrl.Infra.Redis.Set(ctx, cacheKey, response, listCacheTTL); err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Image] Cache write failed for user %s: %v", userID, err)
	}

	utils.JSON200(c, gin.H{"images": response})
}

// GetImageFile streams the original bytes to an entitled owner.
func (ctrl *Controller) GetImageFile(c *gin.Context) {
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

	tier, err := ctrl.resolveTier(c)
	if err != nil {
		utils.JSON403(c, "No subscription tier assigned")
		return
	}
	if !tier.AccessOriginalFile {
		utils.JSON403(c, "Your tier does not include original file access")
		return
	}

	image, err := ctrl.Repository.ImageRepo.FindByID(imageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.JSON404(c, "Image not found")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to load image %s: %v", imageID, err)
		utils.JSON500(c, "Failed to load image")
		return
	}
	if image.OwnerID != userID {
		utils.JSON404(c, "Image not found")
		return
	}

	data, err := ctrl.Infra.Minio.GetObject(ctx, image.StoragePath)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to fetch blob for image %s: %v", imageID, err)
		utils.JSON500(c, "Failed to fetch image")
		return
	}

	c.Data(200, image.ContentType, data)
}

// DeleteImage removes the metadata rows first, then queues the blobs
// for audited deletion. A crash between the two leaves orphaned blobs
// behind, which the cleanup queue's requeue-on-failure covers; the
// reverse order would leave rows pointing at nothing.
func (ctrl *Controller) DeleteImage(c *gin.Context) {
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

	image, err := ctrl.Repository.ImageRepo.FindByID(imageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.JSON404(c, "Image not found")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to load image %s: %v", imageID, err)
		utils.JSON500(c, "Failed to load image")
		return
	}
	if image.OwnerID != userID {
		utils.JSON404(c, "Image not found")
		return
	}

	thumbnails, err := ctrl.Repository.ThumbnailRepo.DeleteByImageID(imageID)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to delete thumbnails of image %s: %v", imageID, err)
		utils.JSON500(c, "Failed to delete image")
		return
	}

	if err := ctrl.Repository.ImageRepo.Delete(imageID); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to delete image %s: %v", imageID, err)
		utils.JSON500(c, "Failed to delete image")
		return
	}

	storagePaths := make([]string, 0, len(thumbnails)+1)
	storagePaths = append(storagePaths, image.StoragePath)
	for _, t := range thumbnails {
		storagePaths = append(storagePaths, t.StoragePath)
	}

	err = ctrl.Infra.Produce.CleanupService.PublishCleanup(ctx, produce.CleanupMessage{
		StoragePaths: storagePaths,
		Reason:       fmt.Sprintf("image %s deleted by owner", imageID),
	})
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to publish cleanup for image %s: %v", imageID, err)
	}

	ctrl.invalidateUserCaches(ctx, userID)

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Image] Deleted image %s and %d thumbnails for user %s", imageID, len(thumbnails), userID)
	utils.JSON204(c)
}

// resolveTier loads the caller's tier with its height entitlements.
func (ctrl *Controller) resolveTier(c *gin.Context) (*entity.UserTier, error) {
	tierID, err := utils.GetTierIDFromContext(c)
	if err != nil {
		return nil, err
	}
	return ctrl.Repository.TierRepo.FindByID(tierID)
}
