package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pokebinder/pokebinder/internal/export"
	"github.com/pokebinder/pokebinder/internal/manager"
	"github.com/pokebinder/pokebinder/internal/storage"
)

type ExportHandler struct {
	store   *storage.Store
	manager *manager.Manager
}

func NewExportHandler(s *storage.Store, m *manager.Manager) *ExportHandler {
	return &ExportHandler{store: s, manager: m}
}

func exportFilename(ext string) string {
	return fmt.Sprintf("pokemon-collection-%s.%s", time.Now().Format("2006-01-02"), ext)
}

// ExportCSV handles GET /api/export/csv as a file download.
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	col := h.store.LoadCollection()

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, col.Cards); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+exportFilename("csv"))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportJSON handles GET /api/export/json, the full backup bundle.
func (h *ExportHandler) ExportJSON(c *gin.Context) {
	col := h.store.LoadCollection()
	settings := h.store.Settings()
	history := h.store.SearchHistory()

	var buf bytes.Buffer
	if err := export.WriteBundle(&buf, col, settings, history, storage.Version); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+exportFilename("json"))
	c.Data(http.StatusOK, "application/json", buf.Bytes())
}

// ExportHTML handles GET /api/export/html, a printable summary page.
func (h *ExportHandler) ExportHTML(c *gin.Context) {
	col := h.store.LoadCollection()

	var buf bytes.Buffer
	if err := export.WriteHTML(&buf, col.Cards); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// Import handles POST /api/import. The bundle is validated in full
// before any section is written, so a bad upload leaves storage
// untouched.
func (h *ExportHandler) Import(c *gin.Context) {
	bundle, err := export.ParseBundle(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.SaveCollection(bundle.Collection.Cards); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.store.ReplaceSettings(*bundle.Settings); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.store.ReplaceSearchHistory(bundle.SearchHistory); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.manager.Refresh()

	c.JSON(http.StatusOK, gin.H{
		"imported": gin.H{
			"cards":         len(bundle.Collection.Cards),
			"searchHistory": len(bundle.SearchHistory),
		},
	})
}
