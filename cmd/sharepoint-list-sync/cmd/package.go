package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hrglue/sharepoint-list-sync/internal/archive"
	"github.com/hrglue/sharepoint-list-sync/internal/config"
	"github.com/hrglue/sharepoint-list-sync/internal/logger"
)

var (
	packageOut     string
	packageInclude []string
)

var packageCmd = &cobra.Command{
	Use:   "package",
	Short: "Zip deployment artifacts into a release archive",
	Long: `Bundles the schema document, config file and any extra artifacts named
with --include into a single zip for handoff to the deployment pipeline.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		level := cfg.Log.Level
		if verbose {
			level = "debug"
		}
		log, logCloser, err := logger.Configure(level, cfg.Log.Env, cfg.Log.Path)
		if err != nil {
			return fmt.Errorf("configure logging: %w", err)
		}
		if logCloser != nil {
			defer logCloser.Close()
		}

		out := packageOut
		if out == "" {
			out = archive.DefaultName(time.Now())
		}

		paths := []string{cfg.SchemaPath, configPath}
		paths = append(paths, packageInclude...)

		if err := archive.Build(out, paths, log); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", out)
		return nil
	},
}

func init() {
	packageCmd.Flags().StringVar(&packageOut, "out", "", "output archive path (default timestamped name)")
	packageCmd.Flags().StringSliceVar(&packageInclude, "include", nil, "extra files or directories to bundle")
	rootCmd.AddCommand(packageCmd)
}
