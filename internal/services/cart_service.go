package services

import (
	"database/sql"
	"time"

	"partforge/internal/compat"
	"partforge/internal/domain"
	"partforge/internal/repos"
)

const (
	minQuantity = 1
	maxQuantity = 10
)

type CartService struct {
	Carts   *repos.CartRepo
	Builds  *repos.BuildRepo
	Catalog *CatalogService
}

func NewCartService(carts *repos.CartRepo, builds *repos.BuildRepo, catalog *CatalogService) *CartService {
	return &CartService{Carts: carts, Builds: builds, Catalog: catalog}
}

func (s *CartService) GetOrCreate(owner domain.Owner) (domain.Cart, error) {
	return s.Carts.GetOrCreate(owner)
}

// SetConfiguration prices cfg, snapshots it into the owner's cart and
// returns the compatibility issues. Issues are advisory only and are not
// stored on the cart: an incompatible configuration may still be carted and
// checked out.
func (s *CartService) SetConfiguration(owner domain.Owner, cfg domain.Configuration) ([]domain.CompatibilityIssue, domain.Cart, error) {
	if len(cfg) == 0 {
		return nil, domain.Cart{}, ErrEmptyConfiguration
	}

	cart, err := s.Carts.GetOrCreate(owner)
	if err != nil {
		return nil, domain.Cart{}, err
	}

	issues, total, err := compat.Evaluate(s.Catalog, cfg)
	if err != nil {
		return nil, domain.Cart{}, err
	}

	snap := domain.ConfigurationSnapshot{
		Config:     cfg.Clone(),
		TotalPrice: total,
		TakenAt:    time.Now().UTC(),
	}
	if err := s.Carts.SetSnapshot(cart.ID, snap); err != nil {
		return nil, domain.Cart{}, err
	}

	cart, err = s.Carts.Get(cart.ID)
	return issues, cart, err
}

// SetBuild puts a saved build into the cart by reference, re-pricing its
// configuration at set time.
func (s *CartService) SetBuild(owner domain.Owner, buildID string) (domain.Cart, error) {
	build, err := s.Builds.Get(buildID)
	if err == sql.ErrNoRows {
		return domain.Cart{}, ErrBuildNotFound
	}
	if err != nil {
		return domain.Cart{}, err
	}
	if !build.ViewableBy(owner.Ref) {
		return domain.Cart{}, ErrForbidden
	}

	cart, err := s.Carts.GetOrCreate(owner)
	if err != nil {
		return domain.Cart{}, err
	}

	_, total, err := compat.Evaluate(s.Catalog, build.Config)
	if err != nil {
		return domain.Cart{}, err
	}
	if err := s.Carts.SetBuild(cart.ID, build.ID, total); err != nil {
		return domain.Cart{}, err
	}
	return s.Carts.Get(cart.ID)
}

func (s *CartService) Clear(owner domain.Owner) error {
	cart, err := s.Carts.GetOrCreate(owner)
	if err != nil {
		return err
	}
	return s.Carts.Clear(cart.ID)
}

// SetQuantity clamps n to [1, 10]; out-of-range requests are corrected, not
// rejected.
func (s *CartService) SetQuantity(owner domain.Owner, n int) (domain.Cart, error) {
	if n < minQuantity {
		n = minQuantity
	}
	if n > maxQuantity {
		n = maxQuantity
	}
	cart, err := s.Carts.GetOrCreate(owner)
	if err != nil {
		return domain.Cart{}, err
	}
	if err := s.Carts.SetQuantity(cart.ID, n); err != nil {
		return domain.Cart{}, err
	}
	return s.Carts.Get(cart.ID)
}

// CartView pairs the cart with its resolved component details for display.
type CartView struct {
	Cart       domain.Cart                          `json:"cart"`
	Components map[domain.Category]domain.Component `json:"components,omitempty"`
	Build      *domain.Build                        `json:"build,omitempty"`
	Empty      bool                                 `json:"empty"`
}

func (s *CartService) View(owner domain.Owner) (CartView, error) {
	cart, err := s.Carts.GetOrCreate(owner)
	if err != nil {
		return CartView{}, err
	}
	view := CartView{Cart: cart, Empty: cart.Empty()}

	var cfg domain.Configuration
	switch {
	case cart.Snapshot != nil:
		cfg = cart.Snapshot.Config
	case cart.BuildID != "":
		build, err := s.Builds.Get(cart.BuildID)
		if err != nil && err != sql.ErrNoRows {
			return CartView{}, err
		}
		if err == nil {
			view.Build = &build
			cfg = build.Config
		}
	}

	if len(cfg) > 0 {
		comps, err := s.Catalog.Resolve(cfg)
		if err != nil {
			return CartView{}, err
		}
		view.Components = comps
	}
	return view, nil
}
