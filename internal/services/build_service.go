package services

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"partforge/internal/compat"
	"partforge/internal/domain"
	"partforge/internal/repos"
)

// BuildService manages saved builds and the seeded prebuilt configurations.
type BuildService struct {
	Builds  *repos.BuildRepo
	Catalog *CatalogService
}

func NewBuildService(builds *repos.BuildRepo, catalog *CatalogService) *BuildService {
	return &BuildService{Builds: builds, Catalog: catalog}
}

// Save stores a named build for ownerRef, priced at save time.
func (s *BuildService) Save(ownerRef, name, description string, public bool, cfg domain.Configuration) (domain.Build, error) {
	if len(cfg) == 0 {
		return domain.Build{}, ErrEmptyConfiguration
	}
	_, total, err := compat.Evaluate(s.Catalog, cfg)
	if err != nil {
		return domain.Build{}, err
	}

	build := domain.Build{
		ID:          uuid.NewString(),
		OwnerRef:    ownerRef,
		Name:        name,
		Description: description,
		Public:      public,
		Config:      cfg.Clone(),
		TotalPrice:  total,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.Builds.Create(build); err != nil {
		return domain.Build{}, err
	}
	return build, nil
}

func (s *BuildService) Get(id, requester string) (domain.Build, error) {
	build, err := s.Builds.Get(id)
	if err == sql.ErrNoRows {
		return domain.Build{}, ErrBuildNotFound
	}
	if err != nil {
		return domain.Build{}, err
	}
	if !build.ViewableBy(requester) {
		return domain.Build{}, ErrForbidden
	}
	return build, nil
}

func (s *BuildService) List(requester string) ([]domain.Build, error) {
	return s.Builds.ListVisible(requester)
}

func (s *BuildService) Prebuilts() ([]domain.Build, error) {
	return s.Builds.ListPrebuilts()
}

func (s *BuildService) Delete(id, requester string) error {
	build, err := s.Builds.Get(id)
	if err == sql.ErrNoRows {
		return ErrBuildNotFound
	}
	if err != nil {
		return err
	}
	if build.OwnerRef == "" || build.OwnerRef != requester {
		return ErrForbidden
	}
	return s.Builds.Delete(id)
}

// LoadConfig returns the build's configuration for loading into the
// builder's working selection, along with its current compatibility report.
func (s *BuildService) LoadConfig(id, requester string) (domain.Configuration, []domain.CompatibilityIssue, error) {
	build, err := s.Get(id, requester)
	if err != nil {
		return nil, nil, err
	}
	issues, _, err := compat.Evaluate(s.Catalog, build.Config)
	if err != nil {
		return nil, nil, err
	}
	return build.Config.Clone(), issues, nil
}
