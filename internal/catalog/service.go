package catalog

import (
	"context"

	"telemart/internal/types/catalog"
)

type Service struct {
	repo CatalogRepository
}

func NewService(r CatalogRepository) *Service {
	return &Service{repo: r}
}

// ListServices returns active services with their active plans embedded,
// ready for display.
func (s *Service) ListServices(ctx context.Context) ([]catalog.Service, error) {
	services, err := s.repo.ListActiveServices(ctx)
	if err != nil {
		return nil, err
	}
	if services == nil {
		services = []catalog.Service{}
	}
	return services, nil
}
