package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pokebinder/pokebinder/internal/catalog"
	"github.com/pokebinder/pokebinder/internal/manager"
)

type CardHandler struct {
	manager *manager.Manager
	catalog *catalog.Client
}

func NewCardHandler(m *manager.Manager, c *catalog.Client) *CardHandler {
	return &CardHandler{manager: m, catalog: c}
}

// SearchCards handles GET /api/cards/search?q=name. Results come back
// grouped by set with a source tag indicating cache freshness.
func (h *CardHandler) SearchCards(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
		return
	}

	result, err := h.manager.SearchNow(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetCard handles GET /api/cards/:id, returning the card with current
// pricing or the rarity estimate filled in.
func (h *CardHandler) GetCard(c *gin.Context) {
	card, err := h.manager.SelectCard(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, card)
}

// ListSets handles GET /api/sets.
func (h *CardHandler) ListSets(c *gin.Context) {
	result, err := h.catalog.ListSets(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetSetCards handles GET /api/sets/:id/cards.
func (h *CardHandler) GetSetCards(c *gin.Context) {
	result, err := h.catalog.CardsBySet(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
