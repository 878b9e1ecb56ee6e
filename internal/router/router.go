package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"signet/internal/config"
	"signet/internal/handler"
	"signet/internal/metrics"
	"signet/internal/middleware"
	"signet/internal/token"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	m *metrics.Metrics,
	tokens *token.Manager,
	documentH *handler.DocumentHandler,
	placeholderH *handler.PlaceholderHandler,
	signingH *handler.SigningHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(m))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks and operational endpoints
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)
	r.GET("/metrics", gin.WrapH(m.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")

	// Document lifecycle
	documents := v1.Group("/documents")
	documents.POST("", documentH.Create)
	documents.GET("", documentH.List)
	documents.GET("/:id", documentH.GetByID)
	documents.DELETE("/:id", documentH.Delete)
	documents.POST("/:id/versions", documentH.AddVersion)
	documents.GET("/:id/versions", documentH.ListVersions)
	documents.PUT("/:id/status", documentH.ChangeStatus)
	documents.PUT("/:id/placeholders", placeholderH.Replace)
	documents.GET("/:id/placeholders", placeholderH.Get)
	documents.POST("/:id/signing", documentH.StartSigning)
	documents.PUT("/:id/expiry", documentH.ExtendExpiry)
	documents.GET("/:id/audit", documentH.AuditTrail)
	documents.GET("/:id/audit/export", documentH.ExportAudit)

	// Public signing surface, authenticated by the signing-link token
	sign := v1.Group("/sign/:token")
	sign.Use(middleware.SigningLink(tokens))
	sign.GET("", signingH.Session)
	sign.POST("", signingH.Sign)
	sign.POST("/decline", signingH.Decline)

	return r
}
