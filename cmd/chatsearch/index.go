package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	dombatch "github.com/kailas-cloud/chatsearch/internal/domain/batch"
)

func newIndexCmd(c *cli) *cobra.Command {
	var strict, rebuild bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Embed the catalog and upsert it into the vector index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.memIndex {
				c.logger.Warn("Memory driver selected, index lives only for this process")
			}

			sync := a.indexer.Sync
			if rebuild {
				sync = a.indexer.Rebuild
			}
			results, err := sync(ctx)
			if err != nil {
				return fmt.Errorf("sync index: %w", err)
			}

			sum := dombatch.Summarize(results)
			total, err := a.indexer.Indexed(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d products, %d failed, %d in %s\n",
				sum.OK, sum.Failed, total, c.cfg.Search.Collection)

			for _, r := range results {
				if r.Status() == dombatch.StatusError {
					c.logger.Debug("Product not indexed", zap.String("id", r.ID()), zap.Error(r.Err()))
				}
			}
			if strict {
				if err := dombatch.FirstError(results); err != nil {
					return fmt.Errorf("index incomplete: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "drop the index first (after changing the embedding model)")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero if any product failed")
	return cmd
}
