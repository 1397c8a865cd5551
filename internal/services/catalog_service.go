package services

import (
	"partforge/internal/domain"
	"partforge/internal/repos"
)

// CatalogService exposes the component catalog. It is the compat.Provider
// used by every evaluation; lookups are side-effect free.
type CatalogService struct {
	Components *repos.ComponentRepo
}

func NewCatalogService(components *repos.ComponentRepo) *CatalogService {
	return &CatalogService{Components: components}
}

func (s *CatalogService) Lookup(category domain.Category, id string) (domain.Component, bool, error) {
	return s.Components.Lookup(category, id)
}

func (s *CatalogService) List(category domain.Category) ([]domain.Component, error) {
	return s.Components.List(category)
}

// Resolve maps each selected id to its catalog entry, skipping ids that no
// longer resolve. Used by cart and build views.
func (s *CatalogService) Resolve(cfg domain.Configuration) (map[domain.Category]domain.Component, error) {
	out := make(map[domain.Category]domain.Component, len(cfg))
	for cat, id := range cfg {
		if id == "" {
			continue
		}
		comp, ok, err := s.Components.Lookup(cat, id)
		if err != nil {
			return nil, err
		}
		if ok {
			out[cat] = comp
		}
	}
	return out, nil
}
