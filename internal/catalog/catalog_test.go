package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	assert.True(t, c.IsMembership("prod_NvpQdpWqm1BKPI"))
	assert.True(t, c.IsMembership("prod_NvUCgt8uiPmLkZ"))
	assert.False(t, c.IsMembership("prod_tshirt"))
	assert.Equal(t, "Household (non-renewal)", c.Name("prod_NvUCgt8uiPmLkZ"))
	assert.Equal(t, "prod_tshirt", c.Name("prod_tshirt"))
}

func TestNewRejectsEmptyAllowList(t *testing.T) {
	_, err := New([]Product{{ID: "prod_a", Name: "A"}})
	assert.ErrorIs(t, err, ErrEmptyCatalog)
}

func TestNewHolderWithoutPathServesDefaults(t *testing.T) {
	h, err := NewHolder("", zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.True(t, h.Get().IsMembership("prod_NvpQdpWqm1BKPI"))
}

func TestNewHolderLoadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
products:
  - id: prod_basic
    name: Basic
    membership: true
  - id: prod_mug
    name: Mug
`), 0o600))

	h, err := NewHolder(path, zaptest.NewLogger(t))
	require.NoError(t, err)

	c := h.Get()
	assert.True(t, c.IsMembership("prod_basic"))
	assert.False(t, c.IsMembership("prod_mug"))
	assert.Equal(t, "Mug", c.Name("prod_mug"))
	assert.False(t, c.IsMembership("prod_NvpQdpWqm1BKPI"))
}

func TestNewHolderRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("products: []\n"), 0o600))

	_, err := NewHolder(path, zaptest.NewLogger(t))
	assert.ErrorIs(t, err, ErrEmptyCatalog)
}
