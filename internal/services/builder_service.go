package services

import (
	"fmt"

	"partforge/internal/compat"
	"partforge/internal/domain"
	"partforge/internal/perf"
	"partforge/internal/repos"
)

// BuilderService holds the per-session working configuration: the selection
// a user assembles before it is priced into a cart. Last write wins per
// category.
type BuilderService struct {
	Selections *repos.SelectionRepo
	Catalog    *CatalogService
}

func NewBuilderService(selections *repos.SelectionRepo, catalog *CatalogService) *BuilderService {
	return &BuilderService{Selections: selections, Catalog: catalog}
}

// Select sets one category slot. The component id is accepted even if it no
// longer resolves in the catalog; evaluation degrades gracefully on stale
// ids, so selection does not need to hard-fail either.
func (s *BuilderService) Select(sessionID string, category domain.Category, componentID string) (domain.Configuration, error) {
	cfg, err := s.Selections.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if componentID == "" {
		delete(cfg, category)
	} else {
		cfg[category] = componentID
	}
	if err := s.Selections.Set(sessionID, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *BuilderService) Current(sessionID string) (domain.Configuration, error) {
	return s.Selections.Get(sessionID)
}

// Evaluate reports issues and total for the working configuration.
func (s *BuilderService) Evaluate(sessionID string) ([]domain.CompatibilityIssue, string, error) {
	cfg, err := s.Selections.Get(sessionID)
	if err != nil {
		return nil, "", err
	}
	issues, total, err := compat.Evaluate(s.Catalog, cfg)
	if err != nil {
		return nil, "", fmt.Errorf("evaluate working configuration: %w", err)
	}
	return issues, total.StringFixed(2), nil
}

// Estimate projects performance scores for the working configuration.
// ok=false means the selection is not far enough along to score (no CPU or
// GPU yet, or parts without benchmark data).
func (s *BuilderService) Estimate(sessionID string) (perf.Summary, bool, error) {
	cfg, err := s.Selections.Get(sessionID)
	if err != nil {
		return perf.Summary{}, false, err
	}
	summary, ok, err := perf.Estimate(s.Catalog, cfg)
	if err != nil {
		return perf.Summary{}, false, fmt.Errorf("estimate working configuration: %w", err)
	}
	return summary, ok, nil
}

// Load replaces the working configuration wholesale (saved build or prebuilt
// loaded into the builder).
func (s *BuilderService) Load(sessionID string, cfg domain.Configuration) error {
	return s.Selections.Set(sessionID, cfg.Clone())
}

func (s *BuilderService) Reset(sessionID string) error {
	return s.Selections.Clear(sessionID)
}
