package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pokebinder/pokebinder/internal/batch"
	"github.com/pokebinder/pokebinder/internal/catalog"
	"github.com/pokebinder/pokebinder/internal/manager"
	"github.com/pokebinder/pokebinder/internal/models"
	"github.com/pokebinder/pokebinder/internal/storage"
)

const precacheTimeout = 2 * time.Minute

type SettingsHandler struct {
	store   *storage.Store
	manager *manager.Manager
	catalog *catalog.Client
	queue   *batch.Queue[*catalog.SearchResult]
}

func NewSettingsHandler(s *storage.Store, m *manager.Manager, c *catalog.Client, q *batch.Queue[*catalog.SearchResult]) *SettingsHandler {
	return &SettingsHandler{store: s, manager: m, catalog: c, queue: q}
}

// GetSettings handles GET /api/settings.
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Settings())
}

// UpdateSettings handles PUT /api/settings with a partial body; absent
// fields keep their stored values.
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var patch models.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings, err := h.store.UpdateSettings(patch)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// GetSearchHistory handles GET /api/search-history.
func (h *SettingsHandler) GetSearchHistory(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.SearchHistory())
}

// ClearSearchHistory handles DELETE /api/search-history.
func (h *SettingsHandler) ClearSearchHistory(c *gin.Context) {
	if err := h.store.ClearSearchHistory(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

// Suggest handles GET /api/search-history/suggest?q=, fuzzy matching
// past searches.
func (h *SettingsHandler) Suggest(c *gin.Context) {
	suggestions := h.manager.Suggest(c.Query("q"))
	if suggestions == nil {
		suggestions = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// CacheStats handles GET /api/cache/stats.
func (h *SettingsHandler) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Stats())
}

// ClearCache handles DELETE /api/cache.
func (h *SettingsHandler) ClearCache(c *gin.Context) {
	h.catalog.ClearCache()
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

// Precache handles POST /api/cache/precache. The given names (or a
// default list of popular Pokémon) are warmed through the batch queue
// so the burst is throttled; the request returns immediately.
func (h *SettingsHandler) Precache(c *gin.Context) {
	var req struct {
		Names []string `json:"names"`
	}
	// An empty body means "use the default list".
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	names := req.Names
	if len(names) == 0 {
		names = defaultPrecacheNames
	}

	ctx, cancel := context.WithTimeout(context.Background(), precacheTimeout)
	results := make([]<-chan batch.Result[*catalog.SearchResult], 0, len(names))
	for _, name := range names {
		name := name
		results = append(results, h.queue.Enqueue(ctx, func(ctx context.Context) (*catalog.SearchResult, error) {
			return h.catalog.SearchByName(ctx, name)
		}))
	}

	go func() {
		defer cancel()
		for _, out := range results {
			<-out
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"queued": len(names)})
}

var defaultPrecacheNames = []string{
	"Pikachu", "Charizard", "Blastoise", "Venusaur", "Mewtwo",
	"Mew", "Eevee", "Snorlax", "Gengar", "Dragonite",
}
