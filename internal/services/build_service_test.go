package services_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"partforge/internal/domain"
	"partforge/internal/repos"
	"partforge/internal/services"
)

func buildFixture(t *testing.T) (*fixture, *services.BuildService, *services.BuilderService) {
	t.Helper()
	f := newFixture(t)
	catalog := services.NewCatalogService(repos.NewComponentRepo(f.db))
	builds := services.NewBuildService(repos.NewBuildRepo(f.db), catalog)
	builder := services.NewBuilderService(repos.NewSelectionRepo(f.db), catalog)
	return f, builds, builder
}

func TestBuildService_SaveAndLoad(t *testing.T) {
	_, builds, _ := buildFixture(t)

	saved, err := builds.Save("user-1", "My AM5 rig", "daily driver", false, scenarioConfig())
	require.NoError(t, err)
	require.True(t, saved.TotalPrice.Equal(decimal.NewFromInt(1270)))

	cfg, issues, err := builds.LoadConfig(saved.ID, "user-1")
	require.NoError(t, err)
	require.Empty(t, issues)
	require.Equal(t, "c1", cfg[domain.CategoryCPU])

	// Private builds are invisible to anyone else.
	_, _, err = builds.LoadConfig(saved.ID, "user-2")
	require.ErrorIs(t, err, services.ErrForbidden)

	// Owner-only delete.
	require.ErrorIs(t, builds.Delete(saved.ID, "user-2"), services.ErrForbidden)
	require.NoError(t, builds.Delete(saved.ID, "user-1"))
	_, err = builds.Get(saved.ID, "user-1")
	require.ErrorIs(t, err, services.ErrBuildNotFound)
}

func TestCartService_SetBuildClearsSnapshot(t *testing.T) {
	f, builds, _ := buildFixture(t)
	owner := domain.SessionOwner("sess-build")

	saved, err := builds.Save("user-1", "Public rig", "", true, scenarioConfig())
	require.NoError(t, err)

	// First a raw snapshot...
	_, cart, err := f.carts.SetConfiguration(owner, scenarioConfig())
	require.NoError(t, err)
	require.NotNil(t, cart.Snapshot)
	require.Empty(t, cart.BuildID)

	// ...then a build reference: exactly one of the two is ever set.
	cart, err = f.carts.SetBuild(owner, saved.ID)
	require.NoError(t, err)
	require.Nil(t, cart.Snapshot)
	require.Equal(t, saved.ID, cart.BuildID)
	require.True(t, cart.TotalPrice.Equal(decimal.NewFromInt(1270)))

	// And back again.
	_, cart, err = f.carts.SetConfiguration(owner, scenarioConfig())
	require.NoError(t, err)
	require.NotNil(t, cart.Snapshot)
	require.Empty(t, cart.BuildID)
}

func TestCheckout_FromSavedBuild(t *testing.T) {
	f, builds, _ := buildFixture(t)
	owner := domain.SessionOwner("sess-build-co")

	saved, err := builds.Save("user-1", "Public rig", "", true, scenarioConfig())
	require.NoError(t, err)
	_, err = f.carts.SetBuild(owner, saved.ID)
	require.NoError(t, err)

	order, err := f.checkout.Checkout(owner, testCustomer, testShipping)
	require.NoError(t, err)
	require.True(t, order.TotalAmount.Equal(decimal.NewFromInt(1270)))
	require.Equal(t, "c1", order.Snapshot.Config[domain.CategoryCPU])
}

func TestBuilderService_SelectAndEvaluate(t *testing.T) {
	_, _, builder := buildFixture(t)
	sid := "sess-builder"

	_, err := builder.Select(sid, domain.CategoryCPU, "c1")
	require.NoError(t, err)
	cfg, err := builder.Select(sid, domain.CategoryMotherboard, "m1")
	require.NoError(t, err)
	require.Len(t, cfg, 2)

	issues, total, err := builder.Evaluate(sid)
	require.NoError(t, err)
	require.Empty(t, issues)
	require.Equal(t, "500.00", total)

	// Last write wins per category.
	cfg, err = builder.Select(sid, domain.CategoryCPU, "c1")
	require.NoError(t, err)
	require.Equal(t, "c1", cfg[domain.CategoryCPU])
	require.Len(t, cfg, 2)

	// Deselect removes the slot.
	cfg, err = builder.Select(sid, domain.CategoryCPU, "")
	require.NoError(t, err)
	require.Len(t, cfg, 1)

	require.NoError(t, builder.Reset(sid))
	cfg, err = builder.Current(sid)
	require.NoError(t, err)
	require.Empty(t, cfg)
}
