package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"chronosync/internal/tui"
)

var (
	watchAddr     string
	watchInterval time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live terminal view of a running time authority",
	Long:  "watch polls the admin HTTP endpoints of a running serve process and renders mode, counters, and a scrolling status log.",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := tui.NewClient(watchAddr)
		m := tui.NewModel(client, watchInterval)
		p := tea.NewProgram(m, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("watch: %w", err)
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchAddr, "addr", "http://localhost:8080", "Base URL of the admin server")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 2*time.Second, "Poll interval")
}
