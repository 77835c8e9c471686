package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/pixvault/pix-image-service/utils"
)

// GetStorageInfo reports cluster and bucket usage from the MinIO admin
// API for capacity monitoring.
func (ctrl *Controller) GetStorageInfo(c *gin.Context) {
	ctx := c.Request.Context()

	storageInfo, err := ctrl.Infra.Minio.StorageInfo(ctx)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Storage] Failed to fetch storage info: %v", err)
		utils.JSON500(c, "Failed to fetch storage info")
		return
	}

	usageInfo, err := ctrl.Infra.Minio.DataUsageInfo(ctx)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Storage] Failed to fetch data usage info: %v", err)
		utils.JSON500(c, "Failed to fetch data usage info")
		return
	}

	utils.JSON200(c, gin.H{
		"backend":       storageInfo.Backend,
		"objects_count": usageInfo.ObjectsTotalCount,
		"objects_size":  usageInfo.ObjectsTotalSize,
		"buckets_usage": usageInfo.BucketsUsage,
	})
}
