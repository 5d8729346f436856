package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	names := map[string]bool{}
	for _, cmd := range root.Commands() {
		names[cmd.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["query"])
	assert.True(t, names["index"])
	assert.True(t, names["import"])
}

func TestQueryCmd_RequiresText(t *testing.T) {
	root := newRootCmd()
	root.PersistentPreRunE = nil
	root.SetArgs([]string{"query"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestReadProducts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	body := `[
		{"id": "p1", "name": "แก้วกระดาษ 16 oz", "stock_quantity": 12, "details": "{\"size\": \"16 oz\"}"},
		{"id": "p2", "name": "ฝาโดม", "stock_quantity": null, "details": {"material": ["pet", "clear"]}}
	]`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	products, err := readProducts(path)
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.True(t, products[0].InStock())
	require.True(t, products[0].Details.IsParsed())
	assert.Equal(t, "16 oz", products[0].Details.Value["size"].String())

	assert.Nil(t, products[1].StockQuantity)
	assert.Equal(t, "pet clear", products[1].Details.Value["material"].String())
}

func TestReadProducts_RequiresID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name": "ถุง"}]`), 0o600))

	_, err := readProducts(path)
	require.Error(t, err)
}
