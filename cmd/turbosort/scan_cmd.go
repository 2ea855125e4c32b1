package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/turbosort/turbosort/internal/sorter"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Perform one full scan and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig()
		if err != nil {
			return err
		}

		cmd.SilenceUsage = true

		s, err := sorter.New(cfg)
		if err != nil {
			return err
		}

		slog.Info("one-shot scan")
		return s.RunOnce(cmd.Context())
	},
}
