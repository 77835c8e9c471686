package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/pixvault/pix-image-service/http/controller"
	middlewares "github.com/pixvault/pix-image-service/http/middleware"
)

func SetupRouter(ctrl *controller.Controller) *gin.Engine {
	r := gin.Default()
	middles, err := middlewares.NewMiddlewares(ctrl)
	if err != nil {
		panic(err)
	}

	r.Use(middles.CORSMiddleware)

	// Token-addressed, no auth: the token itself is the credential.
	r.GET("/api/v1/public/links/:token", ctrl.ResolveExpiringLink)

	apiRoutes := r.Group("/api/v1")
	{
		apiRoutes.Use(middles.AuthMiddleware)

		imageRoutes := apiRoutes.Group("/images")
		{
			imageRoutes.POST("/", ctrl.UploadImage)
			imageRoutes.GET("/", ctrl.ListImages)
			imageRoutes.GET("/:id/file", ctrl.GetImageFile)
			imageRoutes.GET("/:id/thumbnails/:height", ctrl.GetThumbnailFile)
			imageRoutes.DELETE("/:id", ctrl.DeleteImage)
		}

		apiRoutes.GET("/thumbnails/:height", ctrl.ListThumbnails)

		linkRoutes := apiRoutes.Group("/links")
		{
			linkRoutes.POST("/", ctrl.CreateExpiringLink)
		}

		adminRoutes := apiRoutes.Group("/admin")
		{
			adminRoutes.Use(middles.AdminMiddleware)

			adminRoutes.POST("/heights", ctrl.CreateHeight)
			adminRoutes.GET("/heights", ctrl.ListHeights)
			adminRoutes.DELETE("/heights/:id", ctrl.DeleteHeight)

			adminRoutes.POST("/tiers", ctrl.CreateTier)
			adminRoutes.GET("/tiers", ctrl.ListTiers)
			adminRoutes.PUT("/tiers/:id/heights", ctrl.UpdateTierHeights)

			adminRoutes.GET("/storage", ctrl.GetStorageInfo)
		}
	}
	return r
}
