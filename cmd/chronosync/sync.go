package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"chronosync/internal/authority"
	"chronosync/internal/config"
	"chronosync/internal/export"
	"chronosync/internal/logging"
)

var (
	syncConfigPath string
	syncSchemaPath string
	syncJSON       bool
	syncTimeout    time.Duration
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one synchronization and print the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(syncConfigPath, syncSchemaPath)
		if err != nil {
			return err
		}

		logger := logging.New()
		ctx, cancel := context.WithTimeout(logging.NewContext(context.Background(), logger), syncTimeout)
		defer cancel()

		auth := authority.FromConfig(cfg)
		res, err := auth.ForceResync(ctx)
		if err != nil {
			return err
		}

		var writer export.Writer = export.NewStdoutWriter()
		if syncJSON {
			writer = export.NewJSONStdoutWriter()
		}
		return writer.Write(export.NewRow(res, auth.Mode()))
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncConfigPath, "config", "config/timesync.yaml", "Path to configuration YAML")
	syncCmd.Flags().StringVar(&syncSchemaPath, "schema", "schemas/timesync.cue", "Path to CUE schema file")
	syncCmd.Flags().BoolVar(&syncJSON, "json", false, "Print the result as JSON")
	syncCmd.Flags().DurationVar(&syncTimeout, "timeout", 30*time.Second, "Overall timeout for the sync")
}
