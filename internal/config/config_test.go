package config

import (
	"os"
	"path/filepath"
	"testing"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(oldWD)
	})
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
}

// isolate points every config source at empty temp locations.
func isolate(t *testing.T) (home, workspace string) {
	t.Helper()
	home = t.TempDir()
	workspace = t.TempDir()
	chdir(t, workspace)
	t.Setenv("HOME", home)
	t.Setenv(configDirEnvKey, "")
	t.Setenv(trustProjectConfigEnvKey, "")
	t.Setenv(dbPathEnvKey, "")
	t.Setenv(blobRootEnvKey, "")
	t.Setenv(logLevelEnvKey, "")
	return home, workspace
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.DBPath != "" || cfg.BlobRoot != "" {
		t.Fatalf("expected empty paths, got %q %q", cfg.DBPath, cfg.BlobRoot)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Fatalf("expected default log level %q, got %q", DefaultLogLevel, cfg.LogLevel)
	}
	if cfg.Blobs.SweepWorkers != DefaultSweepWorkers {
		t.Fatalf("expected sweep workers %d, got %d", DefaultSweepWorkers, cfg.Blobs.SweepWorkers)
	}
	if cfg.Blobs.SweepBatchSize != DefaultSweepBatch {
		t.Fatalf("expected sweep batch %d, got %d", DefaultSweepBatch, cfg.Blobs.SweepBatchSize)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), configFileName)
	if err := os.WriteFile(path, []byte(`db_path = "/data/prolly.db"
log_level = "warn"

[blobs]
sweep_workers = 8
`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := Default()
	if err := loadFile(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/data/prolly.db" {
		t.Fatalf("expected db_path, got %q", cfg.DBPath)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("expected log_level 'warn', got %q", cfg.LogLevel)
	}
	if cfg.Blobs.SweepWorkers != 8 {
		t.Fatalf("expected sweep_workers 8, got %d", cfg.Blobs.SweepWorkers)
	}
	if cfg.Blobs.SweepBatchSize != DefaultSweepBatch {
		t.Fatalf("expected untouched sweep batch, got %d", cfg.Blobs.SweepBatchSize)
	}
}

func TestLoadFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFile("/nonexistent/path/.prolly.toml", &cfg); err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Fatal("defaults should be preserved")
	}
}

func TestLoadFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), configFileName)
	if err := os.WriteFile(path, []byte("db_path = \n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg := Default()
	if err := loadFile(path, &cfg); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestIsAllowedKey(t *testing.T) {
	for _, key := range []string{"db_path", "blob_root", "log_level", "blobs.sweep_workers", "blobs.sweep_batch_size"} {
		if !IsAllowedKey(key) {
			t.Fatalf("expected %q to be allowed", key)
		}
	}
	if IsAllowedKey("invalid") {
		t.Fatal("expected 'invalid' to not be allowed")
	}
}

func TestGetKey(t *testing.T) {
	cfg := Config{
		DBPath:   "/tmp/test.db",
		BlobRoot: "/tmp/blobs",
		LogLevel: "debug",
		Blobs:    BlobConfig{SweepWorkers: 2, SweepBatchSize: 50},
	}

	for key, want := range map[string]string{
		"db_path":                "/tmp/test.db",
		"blob_root":              "/tmp/blobs",
		"log_level":              "debug",
		"blobs.sweep_workers":    "2",
		"blobs.sweep_batch_size": "50",
	} {
		got, err := cfg.Get(key)
		if err != nil || got != want {
			t.Fatalf("get %s: expected %q, got %q (err: %v)", key, want, got, err)
		}
	}
	if _, err := cfg.Get("invalid"); err == nil {
		t.Fatal("expected error for invalid key")
	}
}

func TestSetKeyCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "new.toml")
	if err := SetKey(path, "blob_root", "/srv/blobs"); err != nil {
		t.Fatalf("set: %v", err)
	}

	cfg := Default()
	if err := loadFile(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BlobRoot != "/srv/blobs" {
		t.Fatalf("expected blob_root, got %q", cfg.BlobRoot)
	}
}

func TestSetKeyUpdatesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "existing.toml")
	if err := os.WriteFile(path, []byte("db_path = \"/old.db\"\nlog_level = \"error\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := SetKey(path, "db_path", "/new.db"); err != nil {
		t.Fatalf("set: %v", err)
	}

	cfg := Default()
	if err := loadFile(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/new.db" {
		t.Fatalf("expected '/new.db', got %q", cfg.DBPath)
	}
	if cfg.LogLevel != "error" {
		t.Fatalf("expected preserved log_level, got %q", cfg.LogLevel)
	}
}

func TestSetNestedBlobKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blobs.toml")
	if err := SetKey(path, "blobs.sweep_batch_size", "321"); err != nil {
		t.Fatalf("set nested key: %v", err)
	}

	cfg := Default()
	if err := loadFile(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Blobs.SweepBatchSize != 321 {
		t.Fatalf("expected sweep_batch_size 321, got %d", cfg.Blobs.SweepBatchSize)
	}
}

func TestSetKeyRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.toml")
	for _, tc := range []struct{ key, value string }{
		{"invalid_key", "value"},
		{"blobs.sweep_workers", "0"},
		{"blobs.sweep_batch_size", "many"},
		{"log_level", "loud"},
	} {
		if err := SetKey(path, tc.key, tc.value); err == nil {
			t.Fatalf("expected error for %s=%s", tc.key, tc.value)
		}
	}
	if err := SetKey(path, "log_level", "WARNING"); err != nil {
		t.Fatalf("set log_level alias: %v", err)
	}
}

func TestConfigDirOverridePaths(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(configDirEnvKey, dir)

	globalPath, err := GlobalPath()
	if err != nil {
		t.Fatalf("global path: %v", err)
	}
	if globalPath != filepath.Join(dir, configFileName) {
		t.Fatalf("unexpected global path: %s", globalPath)
	}

	projectPath, err := ProjectPath()
	if err != nil {
		t.Fatalf("project path: %v", err)
	}
	if projectPath != filepath.Join(dir, configFileName) {
		t.Fatalf("unexpected project path: %s", projectPath)
	}
}

func TestLoadDefaultsResolveAgainstWorkspace(t *testing.T) {
	isolate(t)
	// t.TempDir may sit behind a symlink; compare against what Getwd reports.
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != filepath.Join(cwd, DefaultDBFileName) {
		t.Fatalf("expected default db path, got %q", cfg.DBPath)
	}
	if cfg.BlobRoot != filepath.Join(cwd, DefaultBlobDirName) {
		t.Fatalf("expected default blob root, got %q", cfg.BlobRoot)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Fatalf("expected default log level, got %q", cfg.LogLevel)
	}
}

func TestLoadConfigDirOverride(t *testing.T) {
	_, workspace := isolate(t)
	configDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(configDir, configFileName), []byte("db_path = \"/override.db\"\n"), 0o644); err != nil {
		t.Fatalf("write override config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(workspace, configFileName), []byte("db_path = \"/workspace.db\"\n"), 0o644); err != nil {
		t.Fatalf("write workspace config: %v", err)
	}
	t.Setenv(configDirEnvKey, configDir)
	t.Setenv(trustProjectConfigEnvKey, "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/override.db" {
		t.Fatalf("expected config-dir db_path, got %q", cfg.DBPath)
	}
}

func TestEnvOverrides(t *testing.T) {
	home, _ := isolate(t)
	if err := os.WriteFile(filepath.Join(home, configFileName), []byte("db_path = \"/home.db\"\nlog_level = \"error\"\n"), 0o644); err != nil {
		t.Fatalf("write home config: %v", err)
	}
	t.Setenv(dbPathEnvKey, "/tmp/override.db")
	t.Setenv(blobRootEnvKey, "/tmp/blobs")
	t.Setenv(logLevelEnvKey, "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/tmp/override.db" {
		t.Fatalf("expected env override for DB path, got %q", cfg.DBPath)
	}
	if cfg.BlobRoot != "/tmp/blobs" {
		t.Fatalf("expected env override for blob root, got %q", cfg.BlobRoot)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected env override for log level, got %q", cfg.LogLevel)
	}
}

func TestLoadFallsBackToDefaultsWhenConfiguredEmpty(t *testing.T) {
	home, _ := isolate(t)
	if err := os.WriteFile(filepath.Join(home, configFileName), []byte("log_level = \"\"\n[blobs]\nsweep_workers = 0\n"), 0o644); err != nil {
		t.Fatalf("write home config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Fatalf("expected default log level %q, got %q", DefaultLogLevel, cfg.LogLevel)
	}
	if cfg.Blobs.SweepWorkers != DefaultSweepWorkers {
		t.Fatalf("expected default sweep workers, got %d", cfg.Blobs.SweepWorkers)
	}
}

func TestLoadIgnoresProjectConfigByDefault(t *testing.T) {
	home, workspace := isolate(t)
	if err := os.WriteFile(filepath.Join(home, configFileName), []byte("db_path = \"/home.db\"\n"), 0o644); err != nil {
		t.Fatalf("write home config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(workspace, configFileName), []byte("db_path = \"/project.db\"\n"), 0o644); err != nil {
		t.Fatalf("write project config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/home.db" {
		t.Fatalf("expected global db_path, got %q", cfg.DBPath)
	}
	if cfg.TrustedProjectConfigPath != "" {
		t.Fatalf("expected no trusted project config path, got %q", cfg.TrustedProjectConfigPath)
	}
}

func TestLoadAppliesProjectConfigWhenTrusted(t *testing.T) {
	home, workspace := isolate(t)
	if err := os.WriteFile(filepath.Join(home, configFileName), []byte("db_path = \"/home.db\"\nlog_level = \"warn\"\n"), 0o644); err != nil {
		t.Fatalf("write home config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(workspace, configFileName), []byte("db_path = \"/project.db\"\n"), 0o644); err != nil {
		t.Fatalf("write project config: %v", err)
	}
	t.Setenv(trustProjectConfigEnvKey, "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/project.db" {
		t.Fatalf("expected trusted project db_path, got %q", cfg.DBPath)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("expected home log_level kept, got %q", cfg.LogLevel)
	}
	if cfg.TrustedProjectConfigPath == "" {
		t.Fatal("expected trusted project config path to be recorded")
	}
}
