package controller

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pixvault/pix-image-service/entity"
	"github.com/pixvault/pix-image-service/http/controller/dto"
	"github.com/pixvault/pix-image-service/utils"
	"gorm.io/gorm"
)

// CreateTier defines a subscription plan: a set of heights plus the two
// capability flags.
func (ctrl *Controller) CreateTier(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateTierRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Tier] Failed to bind JSON: %v", err)
		utils.JSON400(c, "Invalid request payload")
		return
	}

	heights, err := ctrl.loadHeights(req.HeightIDs)
	if err != nil {
		utils.JSON400(c, "One or more height_ids do not exist")
		return
	}

	tier := &entity.UserTier{
		ID:                  uuid.New(),
		Name:                req.Name,
		Heights:             heights,
		AccessOriginalFile:  req.AccessOriginalFile,
		AccessExpiringLinks: req.AccessExpiringLinks,
	}

	if err := ctrl.Repository.TierRepo.Create(tier); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.JSON409(c, "Tier with this name already exists")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Tier] Failed to create tier '%s': %v", req.Name, err)
		utils.JSON500(c, "Failed to create tier")
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Tier] Created tier '%s' with %d heights", tier.Name, len(heights))
	utils.JSON201(c, gin.H{"tier": tier})
}

func (ctrl *Controller) ListTiers(c *gin.Context) {
	ctx := c.Request.Context()

	tiers, err := ctrl.Repository.TierRepo.FindAll()
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Tier] Failed to list tiers: %v", err)
		utils.JSON500(c, "Failed to list tiers")
		return
	}

	utils.JSON200(c, gin.H{"tiers": tiers})
}

// UpdateTierHeights replaces the tier's height entitlements. Capability
// flags and the name stay as created.
func (ctrl *Controller) UpdateTierHeights(c *gin.Context) {
	ctx := c.Request.Context()

	tierID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.JSON400(c, "Invalid tier id")
		return
	}

	var req dto.UpdateTierHeightsRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Tier] Failed to bind JSON: %v", err)
		utils.JSON400(c, "Invalid request payload")
		return
	}

	tier, err := ctrl.Repository.TierRepo.FindByID(tierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.JSON404(c, "Tier not found")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Tier] Failed to load tier %s: %v", tierID, err)
		utils.JSON500(c, "Failed to update tier")
		return
	}

	heights, err := ctrl.loadHeights(req.HeightIDs)
	if err != nil {
		utils.JSON400(c, "One or more height_ids do not exist")
		return
	}

	if err := ctrl.Repository.TierRepo.ReplaceHeights(tier, heights); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Tier] Failed to replace heights of tier %s: %v", tierID, err)
		utils.JSON500(c, "Failed to update tier")
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Tier] Updated tier '%s' to %d heights", tier.Name, len(heights))
	utils.JSON200(c, gin.H{"message": "Tier heights updated"})
}

func (ctrl *Controller) loadHeights(ids []uuid.UUID) ([]entity.ThumbnailHeight, error) {
	heights := make([]entity.ThumbnailHeight, 0, len(ids))
	for _, id := range ids {
		height, err := ctrl.Repository.HeightRepo.FindByID(id)
		if err != nil {
			return nil, err
		}
		heights = append(heights, *height)
	}
	return heights, nil
}
