package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pokebinder/pokebinder/internal/manager"
	"github.com/pokebinder/pokebinder/internal/models"
	"github.com/pokebinder/pokebinder/internal/stats"
	"github.com/pokebinder/pokebinder/internal/storage"
)

type CollectionHandler struct {
	manager *manager.Manager
	store   *storage.Store
}

func NewCollectionHandler(m *manager.Manager, s *storage.Store) *CollectionHandler {
	return &CollectionHandler{manager: m, store: s}
}

// GetCollection handles GET /api/collection with filter, sort and
// pagination query parameters. Filters are applied fresh on every
// request; they never accumulate.
func (h *CollectionHandler) GetCollection(c *gin.Context) {
	filter := manager.Filter{
		Name:      c.Query("name"),
		Type:      c.Query("type"),
		Set:       c.Query("set"),
		Rarity:    c.Query("rarity"),
		Condition: c.Query("condition"),
	}
	if v, ok := parseFloat(c.Query("minValue")); ok {
		filter.MinValue = &v
	}
	if v, ok := parseFloat(c.Query("maxValue")); ok {
		filter.MaxValue = &v
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "0"))

	c.JSON(http.StatusOK, h.manager.View(filter, page, pageSize))
}

// AddToCollection handles POST /api/collection. Adding a card that is
// already in the collection merges into the existing entry.
func (h *CollectionHandler) AddToCollection(c *gin.Context) {
	var card models.Card
	if err := c.ShouldBindJSON(&card); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if card.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "card name is required"})
		return
	}
	if card.Condition != "" && !card.Condition.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid condition"})
		return
	}

	col, err := h.manager.Add(card)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, col)
}

// UpdateCollectionItem handles PUT /api/collection/:id with a partial
// update body.
func (h *CollectionHandler) UpdateCollectionItem(c *gin.Context) {
	var upd models.CardUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if upd.Condition != nil && !upd.Condition.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid condition"})
		return
	}

	col, err := h.manager.Update(c.Param("id"), upd)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, storage.ErrCardNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, col)
}

// DeleteCollectionItem handles DELETE /api/collection/:id.
func (h *CollectionHandler) DeleteCollectionItem(c *gin.Context) {
	col, err := h.manager.Remove(c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrCardNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, col)
}

// GetStats handles GET /api/collection/stats.
func (h *CollectionHandler) GetStats(c *gin.Context) {
	col := h.manager.Collection()
	c.JSON(http.StatusOK, stats.Compute(col.Cards))
}

// GetValueHistory handles GET /api/collection/history, the daily value
// snapshots.
func (h *CollectionHandler) GetValueHistory(c *gin.Context) {
	history := h.store.ValueHistory()
	c.JSON(http.StatusOK, models.ValueHistoryResponse{
		Snapshots: history,
		Days:      len(history),
	})
}

// SetSort handles POST /api/collection/sort. Posting the current key
// again flips the direction.
func (h *CollectionHandler) SetSort(c *gin.Context) {
	var req struct {
		Key string `json:"key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch key := manager.SortKey(req.Key); key {
	case manager.SortByName, manager.SortBySet, manager.SortByValue, manager.SortByRarity, manager.SortByDate:
		h.manager.SetSort(key)
		current, asc := h.manager.Sort()
		direction := "desc"
		if asc {
			direction = "asc"
		}
		c.JSON(http.StatusOK, gin.H{"key": current, "direction": direction})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown sort key"})
	}
}

func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
