package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/chatsearch/internal/domain/search/result"
)

func newQueryCmd(c *cli) *cobra.Command {
	var (
		userID string
		sync   bool
	)

	cmd := &cobra.Command{
		Use:     "query [text]",
		Short:   "Run one search and print the JSON response",
		Example: `  chatsearch query "แก้วกาแฟ 16 oz" --user u1`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if sync || a.memIndex {
				if _, err := a.indexer.Sync(ctx); err != nil {
					return fmt.Errorf("sync index: %w", err)
				}
			}

			resp := a.search.SearchProducts(ctx, strings.Join(args, " "), userID)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(resp); err != nil {
				return fmt.Errorf("encode response: %w", err)
			}
			if resp.Metadata.SearchMethod == result.MethodFailed {
				return errors.New(resp.Metadata.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "cli", "conversation user id")
	cmd.Flags().BoolVar(&sync, "sync", false, "index the catalog before searching")
	return cmd
}
