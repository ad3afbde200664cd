package api

import (
	"net/http"

	"github.com/akkupratap323/warehouse-inventory/models"
	"github.com/akkupratap323/warehouse-inventory/utils"
	"github.com/gin-gonic/gin"
)

const maxImportSizeBytes int64 = 5 * 1024 * 1024

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.engine.ListProducts(c.Request.Context())
	if err != nil {
		h.respondError(c, "listProducts", err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) getProduct(c *gin.Context) {
	id, ok := pathId(c, models.ErrProductNotFound)
	if !ok {
		return
	}
	product, err := h.engine.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "getProduct", err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) createProduct(c *gin.Context) {
	var input models.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, models.CodeInvalidProduct, "invalid request body")
		return
	}
	product, err := h.engine.CreateProduct(c.Request.Context(), input)
	if err != nil {
		h.respondError(c, "createProduct", err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) updateProduct(c *gin.Context) {
	id, ok := pathId(c, models.ErrProductNotFound)
	if !ok {
		return
	}
	var input models.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, models.CodeInvalidProduct, "invalid request body")
		return
	}
	product, err := h.engine.UpdateProduct(c.Request.Context(), id, input)
	if err != nil {
		h.respondError(c, "updateProduct", err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	id, ok := pathId(c, models.ErrProductNotFound)
	if !ok {
		return
	}
	if err := h.engine.DeleteProduct(c.Request.Context(), id); err != nil {
		h.respondError(c, "deleteProduct", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// importProducts creates catalog rows from an uploaded XLSX sheet (form field "file").
// Rows are independent; the response lists created products and failed rows.
func (h *Handler) importProducts(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		h.badRequest(c, models.CodeInvalidProduct, "file is required")
		return
	}
	if fh.Size > maxImportSizeBytes {
		h.badRequest(c, models.CodeInvalidProduct, "file size exceeds 5MB limit")
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.respondError(c, "importProducts", err)
		return
	}
	defer f.Close()

	rows, err := models.ReadProductsXlsx(f)
	if err != nil {
		h.badRequest(c, models.CodeInvalidProduct, err.Error())
		return
	}
	ctx := utils.SetRequestSourceInContext(c.Request.Context(), "import")
	result, err := h.engine.ImportProducts(ctx, rows)
	if err != nil {
		h.respondError(c, "importProducts", err)
		return
	}
	c.JSON(http.StatusOK, result)
}
