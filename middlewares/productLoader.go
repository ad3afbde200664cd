package middlewares

import (
	"context"

	"github.com/akkupratap323/warehouse-inventory/models"
	"github.com/graph-gophers/dataloader/v7"
)

type productReader struct {
	store models.CatalogStore
}

func (r *productReader) getProducts(ctx context.Context, ids []int) []*dataloader.Result[*models.Product] {
	results, err := r.store.GetProductsByIds(ctx, ids)
	if err != nil {
		return handleError[*models.Product](len(ids), err)
	}

	return generateLoaderResults(results, ids, func(p models.Product) int { return p.ID })
}

func GetProduct(ctx context.Context, id int) (*models.Product, error) {
	loaders := For(ctx)
	return loaders.productLoader.Load(ctx, id)()
}

func GetProducts(ctx context.Context, ids []int) ([]*models.Product, []error) {
	loaders := For(ctx)
	return loaders.productLoader.LoadMany(ctx, ids)()
}

// ProductIndex loads the given products into a lookup. Ids that fail to load are left out.
func ProductIndex(ctx context.Context, ids []int) map[int]*models.Product {
	products, _ := GetProducts(ctx, ids)
	index := make(map[int]*models.Product, len(products))
	for _, p := range products {
		if p != nil {
			index[p.ID] = p
		}
	}
	return index
}
