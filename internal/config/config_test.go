package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	if cfg.Enrichment.BatchSize != 5 || cfg.Enrichment.Throttle != time.Second {
		t.Fatalf("unexpected enrichment defaults: %+v", cfg.Enrichment)
	}
	if cfg.Enrichment.BriefLookback != 12*time.Hour || cfg.Enrichment.BriefMaxStories != 6 {
		t.Fatalf("unexpected brief defaults: %+v", cfg.Enrichment)
	}
	if cfg.Scheduler.MorningBriefCron != "0 6 * * *" || cfg.Scheduler.EveningBriefCron != "0 18 * * *" {
		t.Fatalf("unexpected brief schedule: %+v", cfg.Scheduler)
	}
	if cfg.Summarizer.OpenAI.Model != "gpt-4o-mini" || cfg.Summarizer.OpenAI.MaxTokens != 300 {
		t.Fatalf("unexpected openai defaults: %+v", cfg.Summarizer.OpenAI)
	}
}

func TestMergeConfigKeepsDefaultsForEmptyFields(t *testing.T) {
	t.Parallel()

	override := Config{
		Database:   DatabaseConfig{Driver: "sqlite", DSN: "file:news.db"},
		Enrichment: EnrichmentConfig{BatchSize: 10},
		Sources:    []SourceConfig{{Name: "Fana", URL: "https://www.fanabc.com/english/feed/", Category: "state"}},
	}
	merged := mergeConfig(defaultConfig(), override)

	if merged.Database.Driver != "sqlite" || merged.Database.DSN != "file:news.db" {
		t.Fatalf("database not overridden: %+v", merged.Database)
	}
	if merged.Database.ConnectAttempts != 10 {
		t.Fatalf("connect attempts lost: %d", merged.Database.ConnectAttempts)
	}
	if merged.Enrichment.BatchSize != 10 || merged.Enrichment.Throttle != time.Second {
		t.Fatalf("unexpected enrichment: %+v", merged.Enrichment)
	}
	if len(merged.Sources) != 1 {
		t.Fatalf("sources not overridden: %+v", merged.Sources)
	}
	if merged.Summarizer.Provider != "openai" {
		t.Fatalf("provider default lost: %s", merged.Summarizer.Provider)
	}
}

func TestLoadReadsFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `
logging:
  level: debug
redis:
  addr: localhost:6379
  cacheTtl: 30s
scheduler:
  ingestCron: "*/30 * * * *"
speech:
  provider: openai
  openai:
    voice: nova
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv(databaseDSNEnv, "postgres://env")
	t.Setenv(openAIAPIKeyEnv, "sk-test")
	t.Setenv(frontendURLEnv, "http://localhost:3000, https://news.example.et")
	t.Setenv(timezoneEnv, "")

	cfg := Load()

	if cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected level %s", cfg.Logging.Level)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.CacheTTL != 30*time.Second {
		t.Fatalf("unexpected redis config: %+v", cfg.Redis)
	}
	if cfg.Scheduler.IngestCron != "*/30 * * * *" || cfg.Scheduler.SummarizeCron != "*/5 * * * *" {
		t.Fatalf("unexpected scheduler config: %+v", cfg.Scheduler)
	}
	if cfg.Database.DSN != "postgres://env" {
		t.Fatalf("env dsn not applied: %s", cfg.Database.DSN)
	}
	if cfg.Summarizer.OpenAI.APIKey != "sk-test" || cfg.Speech.OpenAI.APIKey != "sk-test" {
		t.Fatalf("api key not shared")
	}
	if cfg.Speech.Provider != "openai" || cfg.Speech.OpenAI.Voice != "nova" || cfg.Speech.OpenAI.Model != "tts-1" {
		t.Fatalf("unexpected speech config: %+v", cfg.Speech)
	}
	if len(cfg.HTTP.AllowedOrigins) != 2 || cfg.HTTP.AllowedOrigins[1] != "https://news.example.et" {
		t.Fatalf("unexpected origins: %v", cfg.HTTP.AllowedOrigins)
	}
	if cfg.Scheduler.Location().String() != defaultTimezone {
		t.Fatalf("unexpected location %s", cfg.Scheduler.Location())
	}
}

func TestBindTimezoneFallsBackToUTC(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Scheduler.Timezone = "Mars/Olympus"
	cfg.bindTimezone()

	if cfg.Scheduler.Location() != time.UTC || cfg.Scheduler.Timezone != fallbackTimezone {
		t.Fatalf("expected UTC fallback, got %s", cfg.Scheduler.Location())
	}
}
