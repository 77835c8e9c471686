package controller

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pixvault/pix-image-service/entity"
	"github.com/pixvault/pix-image-service/http/controller/dto"
	"github.com/pixvault/pix-image-service/utils"
	"gorm.io/gorm"
)

// CreateExpiringLink issues a token-addressed link to one of the
// caller's images or thumbnails. Requires the expiring links tier flag.
func (ctrl *Controller) CreateExpiringLink(c *gin.Context) {
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
	if !tier.AccessExpiringLinks {
		utils.JSON403(c, "Your tier does not include expiring links")
		return
	}

	var req dto.CreateLinkRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Link] Failed to bind JSON: %v", err)
		utils.JSON400(c, "Invalid request payload")
		return
	}

	if !entity.ValidLinkTTL(req.TTLSeconds) {
		utils.JSON400(c, fmt.Sprintf("ttl_seconds must be between %d and %d", entity.MinLinkTTLSeconds, entity.MaxLinkTTLSeconds))
		return
	}

	link := &entity.ExpiringLink{
		ID:          uuid.New(),
		OwnerID:     userID,
		ImageID:     req.ImageID,
		ThumbnailID: req.ThumbnailID,
		TTLSeconds:  req.TTLSeconds,
		Token:       utils.NewLinkToken(),
	}

	if !link.ValidTarget() {
		utils.JSON400(c, "Exactly one of image_id or thumbnail_id must be set")
		return
	}

	// The target must exist and belong to the caller.
	if req.ImageID != nil {
		image, err := ctrl.Repository.ImageRepo.FindByID(*req.ImageID)
		if err != nil || image.OwnerID != userID {
			utils.JSON404(c, "Image not found")
			return
		}
	} else {
		thumbnail, err := ctrl.Repository.ThumbnailRepo.FindByID(*req.ThumbnailID)
		if err != nil || thumbnail.OwnerID != userID {
			utils.JSON404(c, "Thumbnail not found")
			return
		}
	}

	if err := ctrl.Repository.ExpiringLinkRepo.Create(link); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Link] Failed to create link: %v", err)
		utils.JSON500(c, "Failed to create link")
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Link] Created link %s for user %s, ttl %ds", link.ID, userID, link.TTLSeconds)
	utils.JSON201(c, dto.LinkResponseDTO{
		Token:     link.Token,
		URL:       fmt.Sprintf("http://%s/api/v1/public/links/%s", ctrl.Config.EnvConfig.DomainName, link.Token),
		ExpiresAt: time.Now().Add(time.Duration(link.TTLSeconds) * time.Second).UTC().Format(time.RFC3339),
	})
}

// ResolveExpiringLink serves the linked bytes to anyone holding a live
// token. No authentication: the token is the credential. An expired
// link is deleted on first access past its TTL and answers 404.
func (ctrl *Controller) ResolveExpiringLink(c *gin.Context) {
	ctx := c.Request.Context()
	token := c.Param("token")

	link, err := ctrl.Repository.ExpiringLinkRepo.FindByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.JSON404(c, "Link not found or expired")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Link] Failed to look up token: %v", err)
		utils.JSON500(c, "Failed to resolve link")
		return
	}

	if link.Expired(time.Now()) {
		if err := ctrl.Repository.ExpiringLinkRepo.Delete(link.ID); err != nil {
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Link] Failed to delete expired link %s: %v", link.ID, err)
		}
		utils.JSON404(c, "Link not found or expired")
		return
	}

	var storagePath, contentType string
	if link.ImageID != nil {
		image, err := ctrl.Repository.ImageRepo.FindByID(*link.ImageID)
		if err != nil {
			utils.JSON404(c, "Link target no longer exists")
			return
		}
		storagePath, contentType = image.StoragePath, image.ContentType
	} else {
		thumbnail, err := ctrl.Repository.ThumbnailRepo.FindByID(*link.ThumbnailID)
		if err != nil {
			utils.JSON404(c, "Link target no longer exists")
			return
		}
		storagePath, contentType = thumbnail.StoragePath, "image/jpeg"
	}

	data, err := ctrl.Infra.Minio.GetObject(ctx, storagePath)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Link] Failed to fetch blob '%s': %v", storagePath, err)
		utils.JSON500(c, "Failed to fetch linked file")
		return
	}

	c.Data(200, contentType, data)
}
