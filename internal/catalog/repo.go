package catalog

import (
	"context"

	"telemart/internal/types/catalog"
)

type CatalogRepository interface {
	ListActiveServices(ctx context.Context) ([]catalog.Service, error)
}
