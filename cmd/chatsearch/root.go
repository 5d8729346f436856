package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/chatsearch/internal/config"
	logpkg "github.com/kailas-cloud/chatsearch/internal/logger"
	"github.com/kailas-cloud/chatsearch/internal/version"
)

// cli carries state shared by subcommands after PersistentPreRunE.
type cli struct {
	env    string
	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "chatsearch",
		Short:         "Conversational product search for Thai and English chat messages",
		Version:       fmt.Sprintf("%s (%s, %s)", version.Version, version.Commit, version.Date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(c.env)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logpkg.NewLogger(c.env, cfg.Logging.Level)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			c.cfg, c.logger = cfg, logger
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&c.env, "env", "e", config.GetEnv(), "config environment (config/<env>.yaml)")

	root.AddCommand(newServeCmd(c), newQueryCmd(c), newIndexCmd(c), newImportCmd(c))
	return root
}
