// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"hidesync/internal/domain/auth"
	"hidesync/internal/domain/material"
	"hidesync/internal/domain/preset"
	"hidesync/internal/domain/schema/entitytype"
	"hidesync/internal/domain/schema/enumreg"
	"hidesync/internal/domain/schema/propertydef"
	"hidesync/internal/domain/settings"
	"hidesync/internal/domain/storage"
	"hidesync/internal/infrastructure/http/v1/handlers"
	"hidesync/internal/infrastructure/http/v1/middleware"
	"hidesync/pkg/logger"
)

// RouterConfig holds the wired services the router exposes.
type RouterConfig struct {
	Pool    *pgxpool.Pool
	Logger  *logger.Logger
	Version string

	AuthService     *auth.Service
	EnumService     *enumreg.Service
	PropertyService *propertydef.Service
	TypeService     *entitytype.Service
	MaterialService *material.Service
	StorageService  *storage.Service
	PresetService   *preset.Service
	SettingsService *settings.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	base := handlers.NewBaseHandler()

	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	authHandler := handlers.NewAuthHandler(base, cfg.AuthService)

	api := router.Group("/api/v1")
	{
		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/register", authHandler.Register)

		protected := api.Group("")
		protected.Use(middleware.Auth(cfg.AuthService))

		protected.GET("/auth/me", authHandler.Me)

		registerEnumRoutes(protected, base, cfg)
		registerSchemaRoutes(protected, base, cfg)
		registerInstanceRoutes(protected, base, cfg)
		registerPresetRoutes(protected, base, cfg)
		registerSettingsRoutes(protected, base, cfg)
	}

	return router
}

func registerEnumRoutes(g *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewEnumHandler(base, cfg.EnumService)

	enums := g.Group("/enums")
	{
		enums.GET("", h.ListTypes)
		enums.POST("", h.CreateType)
		enums.GET("/:enum/values", h.ListValues)
		enums.POST("/:enum/values", h.CreateValue)
		enums.PATCH("/:enum/values/:id", h.UpdateValue)
		enums.DELETE("/:enum/values/:id", h.DeleteValue)
		enums.PUT("/:enum/values/:code/translations", h.UpsertTranslation)
		enums.DELETE("/:enum/values/:code/translations/:locale", h.DeleteTranslation)
	}
}

func registerSchemaRoutes(g *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	props := handlers.NewPropertyHandler(base, cfg.PropertyService)

	properties := g.Group("/properties")
	{
		properties.GET("", props.List)
		properties.POST("", props.Create)
		properties.GET("/:id", props.Get)
		properties.PATCH("/:id", props.Update)
		properties.DELETE("/:id", props.Delete)
		properties.POST("/:id/options", props.AddOption)
		properties.DELETE("/:id/options/:optionId", props.DeleteOption)
		properties.POST("/:id/validate", props.ValidateValue)
	}

	materialTypes := handlers.NewEntityTypeHandler(base, cfg.TypeService, entitytype.KindMaterial)
	locationTypes := handlers.NewEntityTypeHandler(base, cfg.TypeService, entitytype.KindStorageLocation)

	registerTypeRoutes(g.Group("/material-types"), materialTypes)
	registerTypeRoutes(g.Group("/location-types"), locationTypes)
}

func registerTypeRoutes(g *gin.RouterGroup, h *handlers.EntityTypeHandler) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

func registerInstanceRoutes(g *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	materials := handlers.NewMaterialHandler(base, cfg.MaterialService)
	m := g.Group("/materials")
	{
		m.GET("", materials.List)
		m.POST("", materials.Create)
		m.GET("/:id", materials.Get)
		m.PATCH("/:id", materials.Update)
		m.DELETE("/:id", materials.Delete)
	}

	locations := handlers.NewStorageHandler(base, cfg.StorageService)
	l := g.Group("/locations")
	{
		l.GET("", locations.List)
		l.POST("", locations.Create)
		l.GET("/:id", locations.Get)
		l.PATCH("/:id", locations.Update)
		l.DELETE("/:id", locations.Delete)
	}
}

func registerPresetRoutes(g *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewPresetHandler(base, cfg.PresetService)

	presets := g.Group("/presets")
	{
		presets.GET("", h.List)
		presets.POST("", h.Create)
		presets.POST("/generate", h.Generate)
		presets.GET("/:id", h.Get)
		presets.DELETE("/:id", h.Delete)
		presets.POST("/:id/apply", h.Apply)
		presets.GET("/applications/:applicationId/errors", h.ApplicationErrors)
	}
}

func registerSettingsRoutes(g *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewSettingsHandler(base, cfg.SettingsService)

	s := g.Group("/settings")
	{
		s.GET("", h.List)
		s.GET("/:key", h.Get)
		s.PUT("/:key", h.Set)
		s.DELETE("/:key", h.Delete)
	}
}
