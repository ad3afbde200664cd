package api

import (
	"net/http"
	"strconv"

	"github.com/akkupratap323/warehouse-inventory/config"
	"github.com/akkupratap323/warehouse-inventory/models"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const handlerModule = "api"

// Handler serves the inventory REST API over an InventoryEngine.
type Handler struct {
	engine *models.InventoryEngine
	logger *logrus.Logger
}

func NewHandler(engine *models.InventoryEngine, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = config.GetLogger()
	}
	return &Handler{engine: engine, logger: logger}
}

// RegisterRoutes mounts every endpoint under /api. Routes keep their trailing
// slash; gin redirects the bare form.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	api := r.Group("/api")

	products := api.Group("/products")
	products.GET("/", h.listProducts)
	products.POST("/", h.createProduct)
	products.POST("/import", h.importProducts)
	products.GET("/:id/", h.getProduct)
	products.PUT("/:id/", h.updateProduct)
	products.DELETE("/:id/", h.deleteProduct)

	transactions := api.Group("/transactions")
	transactions.GET("/", h.listTransactions)
	transactions.POST("/", h.createTransaction)
	transactions.GET("/:id/", h.getTransaction)

	inventory := api.Group("/inventory")
	inventory.GET("/", h.queryInventory)
	inventory.GET("/summary/", h.summary)
	inventory.GET("/categories/", h.categories)
	inventory.GET("/export", h.exportInventory)
}

// statusFor maps a domain error code to its HTTP status.
func statusFor(code models.ErrorCode) int {
	switch code {
	case models.CodeProductNotFound, models.CodeTransactionNotFound:
		return http.StatusNotFound
	case models.CodeProductInUse, models.CodeDuplicateProductCode, models.CodeImmutableProductCode:
		return http.StatusConflict
	case models.CodeInsufficientStock:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

// respondError writes domain errors as {"error": {...}} and everything else as
// a generic 500. Unexpected errors are attached to the gin context so the
// request error logger records them.
func (h *Handler) respondError(c *gin.Context, funcName string, err error) {
	if ve, ok := models.AsValidationError(err); ok {
		c.JSON(statusFor(ve.Code), gin.H{"error": ve})
		return
	}
	config.LogError(h.logger, handlerModule, funcName, c.Request.Method+" "+c.FullPath(), nil, err)
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"code": "InternalError", "message": "internal server error"}})
}

func (h *Handler) badRequest(c *gin.Context, code models.ErrorCode, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": &models.ValidationError{Code: code, Message: message}})
}

// pathId reads the :id parameter. Ids that cannot exist answer with notFound.
func pathId(c *gin.Context, notFound *models.ValidationError) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
		return 0, false
	}
	return id, true
}
