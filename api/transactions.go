package api

import (
	"net/http"

	"github.com/akkupratap323/warehouse-inventory/middlewares"
	"github.com/akkupratap323/warehouse-inventory/models"
	"github.com/gin-gonic/gin"
)

func (h *Handler) listTransactions(c *gin.Context) {
	views, err := h.engine.ListTransactions(c.Request.Context())
	if err != nil {
		h.respondError(c, "listTransactions", err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) getTransaction(c *gin.Context) {
	id, ok := pathId(c, models.ErrTransactionNotFound)
	if !ok {
		return
	}
	view, err := h.engine.GetTransaction(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "getTransaction", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// createTransaction submits a transaction and answers with the recorded entry,
// its lines enriched with product names and codes.
func (h *Handler) createTransaction(c *gin.Context) {
	var input models.TransactionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, models.CodeInvalidTransaction, "invalid request body")
		return
	}
	ctx := c.Request.Context()
	txn, err := h.engine.SubmitTransaction(ctx, input)
	if err != nil {
		h.respondError(c, "createTransaction", err)
		return
	}
	view := models.NewTransactionView(*txn, middlewares.ProductIndex(ctx, txn.ProductIds()))
	c.JSON(http.StatusCreated, view)
}
