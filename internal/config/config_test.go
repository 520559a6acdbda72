package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"cinescan/internal/config"
)

func TestLoadDefaultConfigUsesEnvKeysAndExpandsPaths(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "test-key")
	t.Setenv("GOOGLE_VISION_API_KEY", "vision-key")
	t.Setenv("AUDD_API_KEY", "audd-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "cinescan")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.LogDir != filepath.Join(wantData, "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.Server.Bind != "0.0.0.0:8001" {
		t.Fatalf("unexpected api bind: %q", cfg.Server.Bind)
	}
	if cfg.TMDB.APIKey != "test-key" {
		t.Fatalf("expected TMDB key from env, got %q", cfg.TMDB.APIKey)
	}
	if cfg.Vision.APIKey != "vision-key" {
		t.Fatalf("expected Vision key from env, got %q", cfg.Vision.APIKey)
	}
	if cfg.AudD.APIToken != "audd-key" {
		t.Fatalf("expected AudD token from env, got %q", cfg.AudD.APIToken)
	}
	if cfg.TMDB.BaseURL != config.Default().TMDB.BaseURL {
		t.Fatalf("unexpected TMDB base url: %q", cfg.TMDB.BaseURL)
	}
	if cfg.Vision.WebMaxResults != 25 {
		t.Fatalf("expected 25 web entities requested, got %d", cfg.Vision.WebMaxResults)
	}
	if !cfg.History.Enabled {
		t.Fatal("expected history enabled by default")
	}
	if cfg.HistoryPath() != filepath.Join(wantData, "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.HistoryPath())
	}
	if cfg.FFmpegBinary() != "ffmpeg" {
		t.Fatalf("unexpected ffmpeg binary: %q", cfg.FFmpegBinary())
	}
	if cfg.MaxUploadBytes() != 25<<20 {
		t.Fatalf("unexpected upload cap: %d", cfg.MaxUploadBytes())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "cinescan.toml")

	type payload struct {
		TMDB struct {
			APIKey  string `toml:"api_key"`
			BaseURL string `toml:"base_url"`
		} `toml:"tmdb"`
		Recognition struct {
			AcceptThreshold int      `toml:"accept_threshold"`
			GenericTerms    []string `toml:"generic_terms"`
		} `toml:"recognition"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.TMDB.APIKey = "abc123"
	custom.TMDB.BaseURL = "https://example.com/tmdb"
	custom.Recognition.AcceptThreshold = 5000
	custom.Recognition.GenericTerms = []string{" Trailer ", "trailer", ""}
	custom.Logging.Format = "XML"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.TMDB.APIKey != "abc123" {
		t.Fatalf("expected TMDB key from file, got %q", cfg.TMDB.APIKey)
	}
	if cfg.TMDB.BaseURL != "https://example.com/tmdb" {
		t.Fatalf("expected TMDB base url override, got %q", cfg.TMDB.BaseURL)
	}
	if cfg.Recognition.AcceptThreshold != 5000 {
		t.Fatalf("expected accept threshold 5000, got %d", cfg.Recognition.AcceptThreshold)
	}
	if len(cfg.Recognition.GenericTerms) != 1 || cfg.Recognition.GenericTerms[0] != "trailer" {
		t.Fatalf("expected generic terms deduped and lowered, got %v", cfg.Recognition.GenericTerms)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("expected unknown log format to fall back to console, got %q", cfg.Logging.Format)
	}
}

func TestFileKeyWinsOverEnv(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "cinescan.toml")
	contents := "[tmdb]\napi_key = \"file-tmdb\"\n\n[vision]\napi_key = \"file-vision\"\n"
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TMDB_API_KEY", "env-tmdb")
	t.Setenv("GOOGLE_VISION_API_KEY", "env-vision")
	t.Setenv("AUDD_API_KEY", "env-audd")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.TMDB.APIKey != "file-tmdb" {
		t.Errorf("expected TMDB key from file, got %q", cfg.TMDB.APIKey)
	}
	if cfg.Vision.APIKey != "file-vision" {
		t.Errorf("expected Vision key from file, got %q", cfg.Vision.APIKey)
	}
	if cfg.AudD.APIToken != "env-audd" {
		t.Errorf("expected AudD token from env when file is blank, got %q", cfg.AudD.APIToken)
	}
}

func TestLoadRequiresTMDBKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TMDB_API_KEY", "")
	configPath := filepath.Join(t.TempDir(), "missing.toml")
	_, _, _, err := config.Load(configPath)
	if err == nil {
		t.Fatal("expected error when TMDB key missing")
	}
	if !strings.Contains(err.Error(), "tmdb.api_key") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "your_tmdb_api_key_here") {
		t.Fatalf("sample config missing placeholder TMDB key: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.DataDir, "cinescan") {
		t.Fatalf("expected data dir to contain cinescan, got %q", cfg.Paths.DataDir)
	}
	if cfg.Vision.WebMaxResults != 25 {
		t.Fatalf("expected sample web_max_results 25, got %d", cfg.Vision.WebMaxResults)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.TMDB.APIKey = "key"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}

	cfg = config.Default()
	cfg.TMDB.APIKey = "key"
	cfg.Vision.TimeoutSeconds = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive timeout")
	}

	cfg = config.Default()
	cfg.TMDB.APIKey = "key"
	cfg.Server.Bind = "not-a-bind"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for malformed bind address")
	}

	cfg = config.Default()
	cfg.TMDB.APIKey = "key"
	cfg.Recognition.AcceptThreshold = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative accept threshold")
	}

	cfg = config.Default()
	cfg.TMDB.APIKey = "key"
	cfg.Server.RateLimitRequests = -5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative rate limit")
	}

	cfg = config.Default()
	cfg.TMDB.APIKey = "key"
	cfg.History.PruneSchedule = "sometimes"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for malformed prune schedule")
	}
}

func TestHistoryRetention(t *testing.T) {
	cfg := config.Default()
	if cfg.HistoryRetention() != 0 {
		t.Fatalf("expected retention disabled by default, got %v", cfg.HistoryRetention())
	}
	cfg.History.RetentionDays = 2
	if cfg.HistoryRetention() != 48*time.Hour {
		t.Fatalf("unexpected retention %v", cfg.HistoryRetention())
	}
}
