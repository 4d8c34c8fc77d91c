package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultListName    = "New-Hire Requests"
	defaultSchemaPath  = "schema/newhire-list.json"
	defaultJournalPath = "splistsync.db"
	defaultLogLevel    = "info"
	defaultLogEnv      = "prod"
)

type Config struct {
	SchemaPath  string     `yaml:"schemaPath"`
	JournalPath string     `yaml:"journalPath"`
	Site        Site       `yaml:"site"`
	List        List       `yaml:"list"`
	Log         Log        `yaml:"log"`
	Reconcile   Reconcile  `yaml:"reconcile"`
	Metrics     Metrics    `yaml:"metrics"`
	Monitoring  Monitoring `yaml:"monitoring"`
}

type Site struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

type List struct {
	Name string `yaml:"name"`
}

type Log struct {
	Level string `yaml:"level"`
	Env   string `yaml:"env"`
	Path  string `yaml:"path"`
}

type Reconcile struct {
	DryRun bool `yaml:"dryRun"`
}

type Metrics struct {
	Addr string `yaml:"addr"`
}

type Monitoring struct {
	SentryDSN         string `yaml:"sentryDsn"`
	SentryEnvironment string `yaml:"sentryEnvironment"`
	AppInsightsKey    string `yaml:"appInsightsKey"`
}

func Load(path string) (*Config, error) {
	configFile := true
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Default().Warn("fail find config file, proceeding", "path", path)
		configFile = false
	}

	var cfg Config
	if configFile {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, err
		}
		if err := f.Close(); err != nil {
			slog.Default().Warn("fail close config file", "path", path, "error", err)
		}
	}

	if cfg.List.Name == "" {
		cfg.List.Name = defaultListName
	}
	if cfg.SchemaPath == "" {
		cfg.SchemaPath = defaultSchemaPath
	}
	if cfg.JournalPath == "" {
		cfg.JournalPath = defaultJournalPath
	}

	// Set log defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
	if cfg.Log.Env == "" {
		cfg.Log.Env = defaultLogEnv
	}

	// Override from environment if set
	if siteURL := os.Getenv("SP_LIST_SYNC_SITE_URL"); siteURL != "" {
		cfg.Site.URL = siteURL
	}
	if token := os.Getenv("SP_LIST_SYNC_TOKEN"); token != "" {
		cfg.Site.Token = token
	}
	if listName := os.Getenv("SP_LIST_SYNC_LIST_NAME"); listName != "" {
		cfg.List.Name = listName
	}
	if schemaPath := os.Getenv("SP_LIST_SYNC_SCHEMA_PATH"); schemaPath != "" {
		cfg.SchemaPath = schemaPath
	}
	if journalPath := os.Getenv("SP_LIST_SYNC_JOURNAL_PATH"); journalPath != "" {
		cfg.JournalPath = journalPath
	}
	if dryRun := os.Getenv("SP_LIST_SYNC_DRYRUN"); dryRun != "" {
		switch strings.ToLower(dryRun) {
		case "true":
			cfg.Reconcile.DryRun = true
		case "false":
			cfg.Reconcile.DryRun = false
		default:
			slog.Default().Warn("fail parse dryrun to bool from string", "dryrun", dryRun)
		}
	}
	if metricsAddr := os.Getenv("SP_LIST_SYNC_METRICS_ADDR"); metricsAddr != "" {
		cfg.Metrics.Addr = metricsAddr
	}
	if loglevel := os.Getenv("SP_LIST_SYNC_LOG_LEVEL"); loglevel != "" {
		cfg.Log.Level = loglevel
	}
	if logenv := os.Getenv("SP_LIST_SYNC_LOG_ENV"); logenv != "" {
		cfg.Log.Env = logenv
	}
	if logpath := os.Getenv("SP_LIST_SYNC_LOG_PATH"); logpath != "" {
		cfg.Log.Path = logpath
	}
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		cfg.Monitoring.SentryDSN = dsn
	}
	if env := os.Getenv("SENTRY_ENVIRONMENT"); env != "" {
		cfg.Monitoring.SentryEnvironment = env
	}
	if ikey := os.Getenv("APPINSIGHTS_INSTRUMENTATION_KEY"); ikey != "" {
		cfg.Monitoring.AppInsightsKey = ikey
	}
	return &cfg, nil
}
