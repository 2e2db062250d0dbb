package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"resumeforge/internal/api/middleware"
	"resumeforge/internal/asset"
	"resumeforge/internal/auth"
	"resumeforge/internal/config"
	"resumeforge/internal/storage"
	"resumeforge/internal/store"
)

// RegisterRoutes 注册 API 路由，不包含 /api 前缀。
func RegisterRoutes(
	router *gin.Engine,
	cfg *config.Config,
	db *gorm.DB,
	asynqClient *asynq.Client,
	authService *auth.AuthService,
	redisClient *redis.Client,
	logger *slog.Logger,
	storageClient *storage.Client,
	assetService *asset.Service,
	documents *store.Manager,
) {
	authHandler := NewAuthHandler(db, authService, redisClient, logger)
	resumeHandler := NewResumeHandler(db, documents, asynqClient, storageClient, logger, cfg.API.MaxResumesPerUser)
	documentHandler := NewDocumentHandler(db, documents, logger)
	templateHandler := NewTemplateHandler(db, asynqClient, storageClient, logger)
	fieldHandler := NewFieldConfigHandler(db, logger)
	assetHandler := NewAssetHandler(assetService, db, storageClient, logger)
	userHandler := NewUserHandler(db, storageClient, logger)
	wsHandler := NewWsHandler(redisClient, authService, logger, cfg.API.AllowedOriginList())
	authMiddleware := middleware.AuthMiddleware(authService)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		v1.GET("/public/resumes/:id", resumeHandler.ViewPublicResume)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
			authGroup.POST("/change-password", authMiddleware, authHandler.ChangePassword)
		}

		resumeGroup := v1.Group("/resumes")
		resumeGroup.Use(authMiddleware)
		{
			resumeGroup.POST("", resumeHandler.CreateResume)
			resumeGroup.GET("", resumeHandler.ListResumes)
			resumeGroup.GET("/:id", resumeHandler.GetResume)
			resumeGroup.PATCH("/:id", resumeHandler.UpdateResume)
			resumeGroup.DELETE("/:id", resumeHandler.DeleteResume)
			resumeGroup.POST("/:id/publish", resumeHandler.PublishResume)
			resumeGroup.POST("/:id/unpublish", resumeHandler.UnpublishResume)

			resumeGroup.GET("/:id/document", documentHandler.GetDocument)
			resumeGroup.PUT("/:id/document", documentHandler.SetDocument)
			resumeGroup.POST("/:id/document/reset", documentHandler.ResetDocument)
			resumeGroup.POST("/:id/flush", documentHandler.FlushDocument)
			resumeGroup.PATCH("/:id/personal-info", documentHandler.UpdatePersonalInfo)
			resumeGroup.POST("/:id/sections/:section/entries", documentHandler.AddEntry)
			resumeGroup.PATCH("/:id/sections/:section/entries/:entryID", documentHandler.UpdateEntry)
			resumeGroup.DELETE("/:id/sections/:section/entries/:entryID", documentHandler.DeleteEntry)

			resumeGroup.POST("/:id/export", resumeHandler.ExportResume)
			resumeGroup.GET("/:id/exports", resumeHandler.ListExports)
		}

		exportGroup := v1.Group("/exports")
		exportGroup.Use(authMiddleware)
		{
			exportGroup.GET("/:id/download-link", resumeHandler.GetDownloadLink)
		}

		templateGroup := v1.Group("/templates")
		templateGroup.Use(authMiddleware)
		{
			templateGroup.GET("", templateHandler.ListTemplates)
			templateGroup.GET("/:id", templateHandler.GetTemplate)
		}

		formGroup := v1.Group("/form")
		formGroup.Use(authMiddleware)
		{
			formGroup.GET("/fields", fieldHandler.ListFields)
			formGroup.GET("/sections", fieldHandler.ListSections)
			formGroup.POST("/validate", fieldHandler.ValidateValues)
		}

		assetGroup := v1.Group("/assets")
		assetGroup.Use(authMiddleware)
		{
			assetGroup.POST("/upload", assetHandler.UploadAsset)
			assetGroup.GET("", assetHandler.ListAssets)
			assetGroup.GET("/view", assetHandler.ViewAsset)
			assetGroup.DELETE("/:id", assetHandler.DeleteAsset)
		}

		adminGroup := v1.Group("/admin")
		adminGroup.Use(authMiddleware, middleware.RequireAdminMiddleware())
		{
			adminGroup.POST("/templates", templateHandler.CreateTemplate)
			adminGroup.PUT("/templates/:id", templateHandler.UpdateTemplate)
			adminGroup.DELETE("/templates/:id", templateHandler.DeleteTemplate)

			adminGroup.GET("/field-configs", fieldHandler.ListFieldConfigs)
			adminGroup.POST("/field-configs", fieldHandler.CreateFieldConfig)
			adminGroup.PUT("/field-configs/:id", fieldHandler.UpdateFieldConfig)
			adminGroup.DELETE("/field-configs/:id", fieldHandler.DeleteFieldConfig)

			adminGroup.GET("/users", userHandler.ListUsers)
			adminGroup.DELETE("/users/:id", userHandler.DeleteUser)
		}
	}
}
