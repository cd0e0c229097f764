package generator

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jittakal/ordersetl/internal/flatten"
)

func TestGenerator_FlattensToProductCount(t *testing.T) {
	g := NewGenerator(Config{Count: 25, MaxProducts: 4, Seed: 42})

	var buf bytes.Buffer
	require.NoError(t, g.Write(&buf))

	tbl, orders, err := flatten.FlattenJSON(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 25, orders)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	want := 0
	for _, o := range raw {
		products, _ := o["products"].([]any)
		want += len(products)
	}
	assert.Equal(t, want, tbl.Len())
}

func TestGenerator_MissingCustomer(t *testing.T) {
	g := NewGenerator(Config{Count: 3, MaxProducts: 2, MissingCustomer: true, Seed: 7})
	orders := g.Orders()
	require.Len(t, orders, 3)
	assert.Contains(t, orders[0], "customer")
	assert.NotContains(t, orders[2], "customer")

	var buf bytes.Buffer
	require.NoError(t, g.Write(&buf))
	_, _, err := flatten.FlattenJSON(buf.Bytes())
	require.Error(t, err)
}

func TestGenerator_SparseStillDecodes(t *testing.T) {
	g := NewGenerator(Config{Count: 50, MaxProducts: 3, Sparse: true, Seed: 99})
	orders := g.Orders()

	for _, o := range orders {
		assert.Contains(t, o, "customer", "customer is never dropped by sparse")
		assert.Contains(t, o, "products")
	}

	var buf bytes.Buffer
	require.NoError(t, g.Write(&buf))
	_, _, err := flatten.FlattenJSON(buf.Bytes())
	require.NoError(t, err)
}

func TestGenerator_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewGenerator(Config{}).Write(&buf))
	assert.JSONEq(t, `[]`, buf.String())

	tbl, _, err := flatten.FlattenJSON(buf.Bytes())
	require.NoError(t, err)
	assert.True(t, tbl.Empty())
}

func TestGenerator_SameSeedSameOutput(t *testing.T) {
	for _, sparse := range []bool{false, true} {
		cfg := Config{Count: 20, MaxProducts: 4, Sparse: sparse, Seed: 1234}

		var first, second bytes.Buffer
		require.NoError(t, NewGenerator(cfg).Write(&first))
		require.NoError(t, NewGenerator(cfg).Write(&second))
		assert.Equal(t, first.String(), second.String(), "sparse=%v", sparse)
	}
}
