package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hrglue/sharepoint-list-sync/internal/config"
	"github.com/hrglue/sharepoint-list-sync/internal/journal"
	"github.com/hrglue/sharepoint-list-sync/internal/metrics"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent reconciliation runs from the audit journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		j, err := journal.New(cfg.JournalPath, metrics.New(false))
		if err != nil {
			return fmt.Errorf("open run journal %s: %w", cfg.JournalPath, err)
		}
		defer j.Close()

		entries, err := j.Recent(cmd.Context(), historyLimit)
		if err != nil {
			return fmt.Errorf("read run journal: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("No recorded runs.")
			return nil
		}

		for _, e := range entries {
			fmt.Println(formatEntry(e))
		}
		return nil
	},
}

func formatEntry(e journal.Entry) string {
	mode := "apply"
	if e.DryRun {
		mode = "dry-run"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %-7s  %s", e.Time().Format(time.RFC3339), mode, e.List)
	switch {
	case !e.ChangesDetected():
		b.WriteString("  no changes")
	default:
		if e.ListCreated {
			b.WriteString("  list created")
		}
		if len(e.FieldsAdded) > 0 {
			fmt.Fprintf(&b, "  added=%s", strings.Join(e.FieldsAdded, ","))
		}
		if len(e.FieldsUpdated) > 0 {
			fmt.Fprintf(&b, "  updated=%s", strings.Join(e.FieldsUpdated, ","))
		}
	}
	return b.String()
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "max runs to show, newest first")
	rootCmd.AddCommand(historyCmd)
}
