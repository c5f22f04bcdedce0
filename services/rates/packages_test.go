package rates

import (
	"testing"

	"soulseer/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListPackages(t *testing.T) {
	c, err := NewCatalog(nil)
	require.NoError(t, err)

	pkgs, err := c.ListPackages("reader_1", models.SessionTypeChat)
	require.NoError(t, err)
	require.Len(t, pkgs, 3)

	// 10 min at 399¢/min: 3990¢ full, 5% off -> 3790¢ (rounded down).
	assert.Equal(t, 10, pkgs[0].Minutes)
	assert.Equal(t, int64(3990), pkgs[0].FullPrice)
	assert.Equal(t, int64(3790), pkgs[0].Price)

	// 20 min, 10% off -> 7182¢; 30 min, 15% off -> 10174¢.
	assert.Equal(t, int64(7182), pkgs[1].Price)
	assert.Equal(t, int64(10174), pkgs[2].Price)

	for _, p := range pkgs {
		assert.Less(t, p.Price, p.FullPrice, "bundles always undercut the metered rate")
	}

	_, err = c.ListPackages("reader_1", "telepathy")
	assert.Error(t, err)
}

func TestListPackagesUsesReaderOverride(t *testing.T) {
	c, err := NewCatalog([]Override{
		{ReaderID: "reader_1", SessionType: models.SessionTypeChat, RatePerMin: 1000},
	})
	require.NoError(t, err)

	pkgs, err := c.ListPackages("reader_1", models.SessionTypeChat)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), pkgs[0].FullPrice)
	assert.Equal(t, int64(9500), pkgs[0].Price)
}
