package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hrglue/sharepoint-list-sync/internal/config"
	"github.com/hrglue/sharepoint-list-sync/internal/journal"
	"github.com/hrglue/sharepoint-list-sync/internal/logger"
	"github.com/hrglue/sharepoint-list-sync/internal/metrics"
	"github.com/hrglue/sharepoint-list-sync/internal/monitoring"
	"github.com/hrglue/sharepoint-list-sync/internal/reconcile"
	"github.com/hrglue/sharepoint-list-sync/internal/schema"
	"github.com/hrglue/sharepoint-list-sync/internal/sharepoint"
)

var (
	syncSiteURL    string
	syncListName   string
	syncSchemaPath string
	syncDryRun     bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the list with the schema document",
	Long: `Loads the field schema, ensures the target list exists, then walks the
fields in declaration order creating missing ones and converging the required
flag on existing ones. With --dry-run every intended change is reported and
nothing is mutated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		mergeSyncFlags(cfg, cmd)

		if verbose {
			cfg.Log.Level = "debug"
		}
		log, logCloser, err := logger.Configure(cfg.Log.Level, cfg.Log.Env, cfg.Log.Path)
		if err != nil {
			return fmt.Errorf("configure logging: %w", err)
		}
		if logCloser != nil {
			defer logCloser.Close()
		}

		if cfg.Site.URL == "" {
			return fmt.Errorf("site url required, set --site-url or SP_LIST_SYNC_SITE_URL")
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		sentryEnabled := monitoring.InitSentry(cfg.Monitoring.SentryDSN, cfg.Monitoring.SentryEnvironment, log)
		if sentryEnabled {
			defer monitoring.FlushSentry(2 * time.Second)
		}
		insights := monitoring.NewInsights(cfg.Monitoring.AppInsightsKey, log)
		defer insights.Flush()

		m := metrics.New(true)
		if cfg.Metrics.Addr != "" {
			serveMetrics(cfg.Metrics.Addr, m, log)
		}

		sch, err := schema.Load(cfg.SchemaPath)
		if err != nil {
			return err
		}
		// Precedence: explicit flag, then schema document, then config default.
		if syncListName != "" {
			sch.ListName = syncListName
		} else if sch.ListName == "" {
			sch.ListName = cfg.List.Name
		}

		client := sharepoint.New(cfg.Site.URL, cfg.Site.Token, m, log)
		var executor reconcile.Executor
		if cfg.Reconcile.DryRun {
			executor = reconcile.NewPlanExecutor(log)
		} else {
			executor = reconcile.NewApplyExecutor(client)
		}
		engine := reconcile.NewEngine(client, executor, m, log)

		log.Info("Starting reconciliation run",
			"site", cfg.Site.URL, "list", sch.ListName, "schema", cfg.SchemaPath, "dryRun", cfg.Reconcile.DryRun)
		monitoring.AddBreadcrumb("reconcile start", "sync", map[string]any{"list": sch.ListName})

		start := time.Now()
		result, err := engine.Run(ctx, sch)
		m.SetSyncDuration(time.Since(start))
		m.IncSyncRun(err == nil)

		if err != nil {
			log.Error("Reconciliation run failed", "list", sch.ListName, "error", err)
			monitoring.CaptureError(err, map[string]string{"list": sch.ListName}, nil)
			insights.TrackException(err, map[string]string{"list": sch.ListName})
			return err
		}

		recordRun(ctx, cfg, sch.ListName, result, m, log)

		for _, name := range result.FieldsAdded {
			log.Info("Field added", "list", sch.ListName, "field", name)
		}
		for _, name := range result.FieldsUpdated {
			log.Info("Field updated", "list", sch.ListName, "field", name)
		}

		summary := reconcile.Summarize(result, cfg.Reconcile.DryRun)
		log.Info("Reconciliation run complete",
			"summary", summary,
			"listCreated", result.ListCreated,
			"added", len(result.FieldsAdded),
			"updated", len(result.FieldsUpdated),
			"duration", time.Since(start))

		insights.TrackEvent("sync_completed", map[string]string{
			"list":    sch.ListName,
			"dry_run": strconv.FormatBool(cfg.Reconcile.DryRun),
			"changed": strconv.FormatBool(result.ChangesDetected()),
		})
		insights.TrackMetric("fields_added", float64(len(result.FieldsAdded)))
		insights.TrackMetric("fields_updated", float64(len(result.FieldsUpdated)))

		fmt.Println(summary)
		if cfg.Log.Path != "" {
			fmt.Printf("Run log: %s\n", cfg.Log.Path)
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncSiteURL, "site-url", "", "SharePoint site URL")
	syncCmd.Flags().StringVar(&syncListName, "list", "", "target list name (overrides schema and config)")
	syncCmd.Flags().StringVar(&syncSchemaPath, "schema", "", "path to the schema document")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "report intended changes without mutating")
	rootCmd.AddCommand(syncCmd)
}

// mergeSyncFlags lets explicit flags win over config and env.
func mergeSyncFlags(cfg *config.Config, cmd *cobra.Command) {
	if syncSiteURL != "" {
		cfg.Site.URL = syncSiteURL
	}
	if syncSchemaPath != "" {
		cfg.SchemaPath = syncSchemaPath
	}
	if cmd.Flags().Changed("dry-run") {
		cfg.Reconcile.DryRun = syncDryRun
	}
}

// recordRun appends the run summary to the audit journal. Journal trouble is
// logged, never fatal, the reconciliation itself already succeeded.
func recordRun(ctx context.Context, cfg *config.Config, list string, result reconcile.RunResult, m *metrics.Metrics, log *slog.Logger) {
	j, err := journal.New(cfg.JournalPath, m)
	if err != nil {
		log.Warn("fail open run journal", "path", cfg.JournalPath, "error", err)
		return
	}
	defer j.Close()

	if err := j.Append(ctx, journal.NewEntry(list, cfg.Reconcile.DryRun, result)); err != nil {
		log.Warn("fail append run journal entry", "path", cfg.JournalPath, "error", err)
	}
}

func serveMetrics(addr string, m *metrics.Metrics, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		log.Info("Starting metrics server", "address", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Metrics server failed", "error", err)
		}
	}()
}
