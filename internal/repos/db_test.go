package repos_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"partforge/internal/compat"
	"partforge/internal/repos"
)

// The price a prebuilt advertises on the shelf must be the price the cart
// charges, which re-prices the config from the catalog. Seeding derives the
// stored total from the same evaluator, so the two can never drift.
func TestSeededPrebuiltPricesMatchCatalog(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	builds, err := repos.NewBuildRepo(db).ListPrebuilts()
	require.NoError(t, err)
	require.Len(t, builds, 3)

	catalog := repos.NewComponentRepo(db)
	for _, b := range builds {
		require.True(t, b.Config.Complete(), "prebuilt %s has missing slots", b.ID)
		_, total, err := compat.Evaluate(catalog, b.Config)
		require.NoError(t, err)
		require.True(t, total.IsPositive(), "prebuilt %s priced at zero", b.ID)
		require.Truef(t, b.TotalPrice.Equal(total),
			"prebuilt %s advertises %s but its parts sum to %s", b.ID, b.TotalPrice, total)
	}
}
