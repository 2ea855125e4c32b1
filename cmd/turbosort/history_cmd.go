package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/turbosort/turbosort/internal/sorter"
)

var (
	heading = color.New(color.FgHiCyan, color.Bold).SprintFunc()
	dim     = color.New(color.Faint).SprintFunc()
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Display the copy history",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig()
		if err != nil {
			return err
		}

		cmd.SilenceUsage = true

		// read-only: no ledger lock, safe beside a running daemon
		ledger, err := sorter.OpenLedger(cfg.HistoryPath)
		if err != nil {
			return err
		}

		if ledger.Count() == 0 {
			fmt.Println("No files have been copied yet.")
			return nil
		}

		detailed, _ := cmd.Flags().GetBool("detailed")
		if detailed {
			printDetailed(ledger)
		} else {
			printTable(ledger)
		}

		fmt.Printf("\nTotal: %d files, %s\n", ledger.Count(), humanize.Bytes(uint64(ledger.TotalSize())))
		return nil
	},
}

func init() {
	historyCmd.Flags().Bool("detailed", false, "show full source, destination and timestamp per entry")
}

func printTable(ledger *sorter.Ledger) {
	fmt.Printf("%s\n", heading(fmt.Sprintf("TurboSort Copy History - %d files", ledger.Count())))
	fmt.Printf("%-40s | %-40s | %10s\n", "Source", "Destination", "Size")
	fmt.Printf("%s\n", dim(fmt.Sprintf("%-40s-+-%-40s-+-%10s", dashes(40), dashes(40), dashes(10))))

	for _, key := range ledger.Keys() {
		rec, _ := ledger.Get(key)
		fmt.Printf("%-40s | %-40s | %10s\n",
			truncate(filepath.Base(key), 40),
			truncate(filepath.Base(rec.Destination), 40),
			humanize.Bytes(uint64(rec.Size)),
		)
	}
}

func printDetailed(ledger *sorter.Ledger) {
	fmt.Printf("%s\n", heading(fmt.Sprintf("TurboSort Copy History - %d files", ledger.Count())))

	for _, key := range ledger.Keys() {
		rec, _ := ledger.Get(key)
		fmt.Printf("\nSource:      %s\n", key)
		fmt.Printf("Destination: %s\n", rec.Destination)
		fmt.Printf("Timestamp:   %s\n", rec.Timestamp.Format(time.RFC3339))
		fmt.Printf("Size:        %d bytes (%s)\n", rec.Size, humanize.Bytes(uint64(rec.Size)))
		fmt.Printf("Identity:    %s\n", dim(rec.Identity))
	}
}

func dashes(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '-'
	}
	return string(b)
}

// truncate shortens s to at most n runes without splitting a multi-byte one.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
