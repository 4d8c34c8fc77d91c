package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.List.Name != "New-Hire Requests" {
		t.Errorf("List.Name = %q, want default", cfg.List.Name)
	}
	if cfg.SchemaPath != "schema/newhire-list.json" {
		t.Errorf("SchemaPath = %q, want default", cfg.SchemaPath)
	}
	if cfg.JournalPath != "splistsync.db" {
		t.Errorf("JournalPath = %q, want default", cfg.JournalPath)
	}
	if cfg.Log.Level != "info" || cfg.Log.Env != "prod" {
		t.Errorf("log defaults not applied: %+v", cfg.Log)
	}
	if cfg.Reconcile.DryRun {
		t.Error("dry run should default to false")
	}
}

func TestLoadFile(t *testing.T) {
	doc := `
schemaPath: fields.json
site:
  url: https://tenant.sharepoint.com/sites/hr
  token: secret
list:
  name: Onboarding
log:
  level: debug
  env: dev
reconcile:
  dryRun: true
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Site.URL != "https://tenant.sharepoint.com/sites/hr" {
		t.Errorf("Site.URL = %q", cfg.Site.URL)
	}
	if cfg.List.Name != "Onboarding" {
		t.Errorf("List.Name = %q", cfg.List.Name)
	}
	if cfg.SchemaPath != "fields.json" {
		t.Errorf("SchemaPath = %q", cfg.SchemaPath)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Env != "dev" {
		t.Errorf("log config not parsed: %+v", cfg.Log)
	}
	if !cfg.Reconcile.DryRun {
		t.Error("dryRun should be true")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SP_LIST_SYNC_SITE_URL", "https://env.sharepoint.com/sites/x")
	t.Setenv("SP_LIST_SYNC_TOKEN", "env-token")
	t.Setenv("SP_LIST_SYNC_LIST_NAME", "Env List")
	t.Setenv("SP_LIST_SYNC_DRYRUN", "true")
	t.Setenv("SP_LIST_SYNC_LOG_LEVEL", "warn")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Site.URL != "https://env.sharepoint.com/sites/x" {
		t.Errorf("Site.URL = %q", cfg.Site.URL)
	}
	if cfg.Site.Token != "env-token" {
		t.Errorf("Site.Token = %q", cfg.Site.Token)
	}
	if cfg.List.Name != "Env List" {
		t.Errorf("List.Name = %q", cfg.List.Name)
	}
	if !cfg.Reconcile.DryRun {
		t.Error("dryRun env override not applied")
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestLoadBadDryRunEnv(t *testing.T) {
	t.Setenv("SP_LIST_SYNC_DRYRUN", "maybe")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Reconcile.DryRun {
		t.Error("unparseable dryrun value should leave the default")
	}
}
