package middlewares

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pixvault/pix-image-service/config"
)

func CORSMiddleware(config *config.EnvConfig) gin.HandlerFunc {
	allowed := []string{}
	for _, domain := range strings.Split(config.CORS.AllowDomains, ",") {
		domain = strings.TrimSpace(domain)
		if domain != "" {
			allowed = append(allowed, domain)
		}
	}

	corsConfig := cors.Config{
		AllowOrigins:     allowed,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if config.CORS.GlobalDomain != "" {
		globalDomain := config.CORS.GlobalDomain
		corsConfig.AllowOriginFunc = func(origin string) bool {
			return strings.HasSuffix(origin, globalDomain)
		}
	}

	return cors.New(corsConfig)
}
