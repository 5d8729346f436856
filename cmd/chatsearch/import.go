package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/chatsearch/internal/db/sqlite"
	"github.com/kailas-cloud/chatsearch/internal/domain"
	"github.com/kailas-cloud/chatsearch/internal/repository/catalog"
)

func newImportCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "import [products.json]",
		Short:   "Load a JSON array of products into the catalog",
		Example: `  chatsearch import data/products.json && chatsearch index`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			products, err := readProducts(args[0])
			if err != nil {
				return err
			}

			conn, err := sqlite.Open(c.cfg.Catalog.Path)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer func() { _ = conn.Close() }()

			repo := catalog.New(conn, c.logger)
			if err := repo.EnsureSchema(ctx); err != nil {
				return fmt.Errorf("migrate catalog: %w", err)
			}
			if err := repo.Upsert(ctx, products...); err != nil {
				return fmt.Errorf("import products: %w", err)
			}

			total, err := repo.Count(ctx)
			if err != nil {
				return fmt.Errorf("count catalog: %w", err)
			}
			c.logger.Info("Catalog imported", zap.Int("imported", len(products)), zap.Int("total", total))
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d products, catalog holds %d\n", len(products), total)
			return nil
		},
	}
}

// readProducts decodes a product file. Nested fields may be objects or
// JSON encoded in strings.
func readProducts(path string) ([]domain.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	for i := range products {
		if products[i].ID == "" {
			return nil, fmt.Errorf("product [%d]: id is required", i)
		}
	}
	return products, nil
}
