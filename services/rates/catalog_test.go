package rates

import (
	"testing"

	"soulseer/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefaults(t *testing.T) {
	c, err := NewCatalog(nil)
	require.NoError(t, err)

	cases := map[string]int64{
		models.SessionTypeChat:  399,
		models.SessionTypePhone: 499,
		models.SessionTypeVideo: 699,
	}
	for sessionType, want := range cases {
		rate, err := c.Resolve("any_reader", sessionType)
		require.NoError(t, err)
		assert.Equal(t, want, rate)
	}

	_, err = c.Resolve("any_reader", "telepathy")
	assert.Error(t, err)
}

func TestResolveOverrides(t *testing.T) {
	c, err := NewCatalog([]Override{
		{ReaderID: "reader_1", SessionType: models.SessionTypeChat, RatePerMin: 1299},
	})
	require.NoError(t, err)

	rate, err := c.Resolve("reader_1", models.SessionTypeChat)
	require.NoError(t, err)
	assert.Equal(t, int64(1299), rate)

	// Other pairs still fall back to defaults.
	rate, err = c.Resolve("reader_1", models.SessionTypeVideo)
	require.NoError(t, err)
	assert.Equal(t, int64(699), rate)

	rate, err = c.Resolve("reader_2", models.SessionTypeChat)
	require.NoError(t, err)
	assert.Equal(t, int64(399), rate)
}

func TestNewCatalogValidation(t *testing.T) {
	_, err := NewCatalog([]Override{{ReaderID: "r", SessionType: "telepathy", RatePerMin: 100}})
	assert.Error(t, err)

	_, err = NewCatalog([]Override{{ReaderID: "r", SessionType: models.SessionTypeChat, RatePerMin: 0}})
	assert.Error(t, err)
}
