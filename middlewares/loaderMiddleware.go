package middlewares

import (
	"context"
	"time"

	"github.com/akkupratap323/warehouse-inventory/models"
	"github.com/akkupratap323/warehouse-inventory/utils"
	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader/v7"
)

type ctxKey string

const (
	loadersKey = ctxKey("dataloaders")
)

// Loaders batch catalog lookups made while serving one request.
type Loaders struct {
	productLoader *dataloader.Loader[int, *models.Product]
}

// NewLoaders instantiates data loaders for the middleware
func NewLoaders(store models.CatalogStore) *Loaders {
	productReader := &productReader{store: store}

	return &Loaders{
		productLoader: dataloader.NewBatchedLoader(productReader.getProducts, dataloader.WithWait[int, *models.Product](time.Millisecond)),
	}
}

func LoaderMiddleware(store models.CatalogStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		loader := NewLoaders(store)
		ctx := context.WithValue(c.Request.Context(), loadersKey, loader)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// WithLoaders attaches loaders to a context outside of a gin request.
func WithLoaders(ctx context.Context, store models.CatalogStore) context.Context {
	return context.WithValue(ctx, loadersKey, NewLoaders(store))
}

func For(ctx context.Context) *Loaders {
	return ctx.Value(loadersKey).(*Loaders)
}

// handleError creates array of result with the same error repeated for as many items requested
func handleError[T any](itemsLength int, err error) []*dataloader.Result[T] {
	result := make([]*dataloader.Result[T], itemsLength)
	for i := 0; i < itemsLength; i++ {
		result[i] = &dataloader.Result[T]{Error: err}
	}
	return result
}

// turns results from the store into dataloader results, in key order.
// Keys with no result get utils.ErrorRecordNotFound.
func generateLoaderResults[T any](results []T, ids []int, idOf func(T) int) []*dataloader.Result[*T] {
	resultMap := make(map[int]T, len(results))
	for _, result := range results {
		resultMap[idOf(result)] = result
	}

	loaderResults := make([]*dataloader.Result[*T], 0, len(ids))
	for _, id := range ids {
		data, ok := resultMap[id]
		if !ok {
			loaderResults = append(loaderResults, &dataloader.Result[*T]{Error: utils.ErrorRecordNotFound})
			continue
		}
		loaderResults = append(loaderResults, &dataloader.Result[*T]{Data: &data})
	}
	return loaderResults
}
