package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/akkupratap323/warehouse-inventory/models"
	"github.com/akkupratap323/warehouse-inventory/utils"
	"github.com/gin-gonic/gin"
)

// bindInventoryQuery reads search, category, sort and order. Without a sort
// field rows come back by name ascending, like the dashboard lists them.
func (h *Handler) bindInventoryQuery(c *gin.Context) (models.QueryCriteria, bool) {
	var criteria models.QueryCriteria
	if err := c.ShouldBindQuery(&criteria); err != nil {
		h.badRequest(c, models.CodeInvalidQuery, "invalid query parameters")
		return criteria, false
	}
	if criteria.SortField == "" {
		criteria.SortField = string(models.SortFieldName)
	}
	return criteria, true
}

// queryInventory answers GET /api/inventory/?search=&category=&sort=&order=.
func (h *Handler) queryInventory(c *gin.Context) {
	criteria, ok := h.bindInventoryQuery(c)
	if !ok {
		return
	}
	rows, err := h.engine.QueryInventory(c.Request.Context(), criteria)
	if err != nil {
		h.respondError(c, "queryInventory", err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) summary(c *gin.Context) {
	summary, err := h.engine.GetSummary(c.Request.Context())
	if err != nil {
		h.respondError(c, "summary", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) categories(c *gin.Context) {
	categories, err := h.engine.Categories(c.Request.Context())
	if err != nil {
		h.respondError(c, "categories", err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// exportInventory streams the snapshot as XLSX, or uploads it to GCS_BUCKET
// when called with ?target=gcs. The query filters of GET /api/inventory/ apply.
func (h *Handler) exportInventory(c *gin.Context) {
	ctx := c.Request.Context()
	criteria, ok := h.bindInventoryQuery(c)
	if !ok {
		return
	}
	rows, summary, err := h.engine.ExportInventory(ctx, criteria)
	if err != nil {
		h.respondError(c, "exportInventory", err)
		return
	}

	var buf bytes.Buffer
	if err := models.WriteSnapshotXlsx(&buf, rows, summary); err != nil {
		h.respondError(c, "exportInventory", err)
		return
	}

	fileName := fmt.Sprintf("inventory_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	if c.Query("target") == "gcs" {
		url, err := utils.UploadBytesToGCS(ctx, "exports/"+utils.GenerateUniqueFilename()+"_"+fileName, buf.Bytes(), utils.XlsxContentType)
		if err != nil {
			h.respondError(c, "exportInventory", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": url})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, utils.XlsxContentType, buf.Bytes())
}
