package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/turbosort/turbosort/internal/sorter"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the copy history and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig()
		if err != nil {
			return err
		}

		cmd.SilenceUsage = true

		ledger, err := sorter.OpenLedger(cfg.HistoryPath)
		if err != nil {
			return err
		}
		if err := ledger.Acquire(); err != nil {
			return err
		}
		defer ledger.Close()

		count := ledger.Count()
		if err := ledger.Clear(); err != nil {
			return fmt.Errorf("clear history: %w", err)
		}

		slog.Info("history cleared", "removed", count)
		return nil
	},
}
