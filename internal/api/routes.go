// Package api wires the HTTP surface: routing, CORS, and the metrics
// middleware.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pokebinder/pokebinder/internal/api/handlers"
	"github.com/pokebinder/pokebinder/internal/batch"
	"github.com/pokebinder/pokebinder/internal/catalog"
	"github.com/pokebinder/pokebinder/internal/manager"
	"github.com/pokebinder/pokebinder/internal/metrics"
	"github.com/pokebinder/pokebinder/internal/storage"
)

// Deps carries everything the handlers need.
type Deps struct {
	Store       *storage.Store
	Catalog     *catalog.Client
	Manager     *manager.Manager
	Queue       *batch.Queue[*catalog.SearchResult]
	CORSOrigins []string
}

func SetupRouter(deps Deps) *gin.Engine {
	router := gin.Default()

	config := cors.DefaultConfig()
	if len(deps.CORSOrigins) > 0 {
		config.AllowOrigins = deps.CORSOrigins
	} else {
		config.AllowOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	config.AllowCredentials = false
	router.Use(cors.New(config))
	router.Use(metricsMiddleware())

	cardHandler := handlers.NewCardHandler(deps.Manager, deps.Catalog)
	collectionHandler := handlers.NewCollectionHandler(deps.Manager, deps.Store)
	exportHandler := handlers.NewExportHandler(deps.Store, deps.Manager)
	settingsHandler := handlers.NewSettingsHandler(deps.Store, deps.Manager, deps.Catalog, deps.Queue)

	api := router.Group("/api")
	{
		cards := api.Group("/cards")
		{
			cards.GET("/search", cardHandler.SearchCards)
			cards.GET("/:id", cardHandler.GetCard)
		}

		sets := api.Group("/sets")
		{
			sets.GET("", cardHandler.ListSets)
			sets.GET("/:id/cards", cardHandler.GetSetCards)
		}

		collection := api.Group("/collection")
		{
			collection.GET("", collectionHandler.GetCollection)
			collection.POST("", collectionHandler.AddToCollection)
			collection.PUT("/:id", collectionHandler.UpdateCollectionItem)
			collection.DELETE("/:id", collectionHandler.DeleteCollectionItem)
			collection.GET("/stats", collectionHandler.GetStats)
			collection.GET("/history", collectionHandler.GetValueHistory)
			collection.POST("/sort", collectionHandler.SetSort)
		}

		export := api.Group("/export")
		{
			export.GET("/csv", exportHandler.ExportCSV)
			export.GET("/json", exportHandler.ExportJSON)
			export.GET("/html", exportHandler.ExportHTML)
		}
		api.POST("/import", exportHandler.Import)

		api.GET("/settings", settingsHandler.GetSettings)
		api.PUT("/settings", settingsHandler.UpdateSettings)

		history := api.Group("/search-history")
		{
			history.GET("", settingsHandler.GetSearchHistory)
			history.DELETE("", settingsHandler.ClearSearchHistory)
			history.GET("/suggest", settingsHandler.Suggest)
		}

		cache := api.Group("/cache")
		{
			cache.GET("/stats", settingsHandler.CacheStats)
			cache.POST("/precache", settingsHandler.Precache)
			cache.DELETE("", settingsHandler.ClearCache)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": storage.Version})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).
			Observe(time.Since(start).Seconds())
	}
}
