package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"chronosync/internal/admin"
	"chronosync/internal/authority"
	"chronosync/internal/config"
	"chronosync/internal/export"
	"chronosync/internal/logging"
)

var (
	servePrintOnly  bool
	serveConfigPath string
	serveSchemaPath string
	serveInterval   time.Duration
	serveLogFile    string
	serveListen     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the time authority as a daemon",
	Long:  "serve keeps the clock offset fresh on a fixed interval, exports sync records, and exposes status and controls over HTTP.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(serveConfigPath, serveSchemaPath)
		if err != nil {
			return err
		}

		writer, cleanup, err := newWriters(servePrintOnly, serveLogFile)
		if err != nil {
			return err
		}
		defer cleanup()

		interval := serveInterval
		if envInterval := os.Getenv("SYNC_INTERVAL"); envInterval != "" {
			d, err := time.ParseDuration(envInterval)
			if err != nil {
				return err
			}
			interval = d
		}
		if interval <= 0 && cfg.SyncInterval > 0 {
			interval = cfg.SyncInterval.Std()
		}
		if interval <= 0 {
			interval = time.Minute
		}

		logger := logging.New()
		ctx, cancel := context.WithCancel(logging.NewContext(context.Background(), logger))
		defer cancel()

		auth := authority.FromConfig(cfg)

		srv := admin.NewServer(auth)
		go func() {
			logger.Info("admin server listening", "addr", serveListen)
			if err := srv.Start(ctx, serveListen); err != nil && err != http.ErrServerClosed {
				logger.Error("admin server failed", "error", err)
			}
		}()

		go auth.Run(ctx, interval, func(res *authority.SyncResult) {
			row := export.NewRow(res, auth.Mode())
			if err := writer.Write(row); err != nil {
				logger.Warn("sync record write failed", "error", err)
			}
		})

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs

		cancel()
		logger.Info("time authority stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().BoolVar(&servePrintOnly, "print-only", false, "Print sync records to STDOUT instead of writing to DB")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "config/timesync.yaml", "Path to configuration YAML")
	serveCmd.Flags().StringVar(&serveSchemaPath, "schema", "schemas/timesync.cue", "Path to CUE schema file")
	serveCmd.Flags().DurationVar(&serveInterval, "interval", 0, "Resync interval (e.g. 30s, 2m); defaults to the config value")
	serveCmd.Flags().StringVar(&serveLogFile, "log-file", "", "Path to export sync records (JSONL)")
	serveCmd.Flags().StringVar(&serveListen, "listen", ":8080", "Admin HTTP listen address")
}
