package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/radai/aiflow/internal/api/handler"
	"github.com/radai/aiflow/internal/config"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies, corsCfg config.CORSConfig) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware(corsCfg))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		if deps.DB != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := deps.DB.HealthCheck(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unhealthy",
					"service": "aiflow-api-service",
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "aiflow-api-service",
		})
	})

	documentHandler := handler.NewDocumentHandler(deps)
	conversionHandler := handler.NewConversionHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		documents := v1.Group("/documents")
		{
			// POST /api/v1/documents - Upload a PFD document
			documents.POST("", documentHandler.UploadDocument)

			// GET /api/v1/documents - List documents with pagination
			documents.GET("", documentHandler.ListDocuments)

			// GET /api/v1/documents/:document_id - Get document details
			documents.GET("/:document_id", documentHandler.GetDocument)
		}

		conversions := v1.Group("/conversions")
		{
			// POST /api/v1/conversions - Start a conversion job
			conversions.POST("", conversionHandler.StartConversion)

			// GET /api/v1/conversions - List jobs with filtering and pagination
			conversions.GET("", conversionHandler.ListConversions)

			// GET /api/v1/conversions/:job_id - Poll job state
			conversions.GET("/:job_id", conversionHandler.GetConversion)

			// GET /api/v1/conversions/:job_id/artifacts/:kind - Download artifact
			conversions.GET("/:job_id/artifacts/:kind", conversionHandler.DownloadArtifact)

			// DELETE /api/v1/conversions/:job_id - Delete a job and its artifacts
			conversions.DELETE("/:job_id", conversionHandler.DeleteConversion)
		}
	}

	return r
}
