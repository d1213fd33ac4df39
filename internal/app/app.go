package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"EthioNews/internal/api"
	"EthioNews/internal/config"
	"EthioNews/internal/domain"
	"EthioNews/internal/infrastructure/audiofs"
	"EthioNews/internal/infrastructure/cache"
	"EthioNews/internal/infrastructure/llm"
	"EthioNews/internal/infrastructure/parser"
	"EthioNews/internal/infrastructure/scheduler"
	"EthioNews/internal/infrastructure/storage"
	"EthioNews/internal/infrastructure/telegram"
	"EthioNews/internal/infrastructure/tts"
	"EthioNews/internal/logging"
	"EthioNews/internal/ports"
	"EthioNews/internal/source"
	"EthioNews/internal/usecase"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

const shutdownTimeout = 15 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	log       *slog.Logger
	db        *sqlx.DB
	cache     *cache.RedisCache
	scheduler *usecase.Scheduler
	server    *http.Server
}

// New connects the store, migrates it and builds every component.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := storage.Open(ctx, cfg.Database, baseLogger.With("component", "storage"))
	if err != nil {
		return nil, err
	}
	if err := storage.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	repo := storage.NewRepository(db, cfg.Database.Driver)

	a := &Application{cfg: cfg, log: baseLogger, db: db}
	if err := a.wire(ctx, repo); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *Application) wire(ctx context.Context, repo *storage.Repository) error {
	cfg, log := a.cfg, a.log

	registry, err := buildRegistry(cfg.Sources)
	if err != nil {
		return err
	}
	log.Info("source registry loaded", "sources", registry.Len())

	summarizer, err := buildSummarizer(cfg.Summarizer, log)
	if err != nil {
		return err
	}
	synthesizer, err := buildSynthesizer(cfg.Speech, log)
	if err != nil {
		return err
	}

	var queryCache ports.QueryCache
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(cfg.Redis)
		if err != nil {
			return err
		}
		if err := rc.Ping(ctx); err != nil {
			log.Warn("redis unavailable, cache requests will be bypassed", "error", err)
		}
		a.cache = rc
		queryCache = rc
	}

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.Enabled() {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram)
	}

	loc := cfg.Scheduler.Location()
	clock := func() time.Time { return time.Now().In(loc) }

	ingest := usecase.NewIngestPipeline(usecase.IngestDeps{
		Sources: registry,
		Feeds: parser.NewRSSSource(
			&http.Client{Timeout: cfg.Feeds.Timeout},
			cfg.Feeds.UserAgent,
			log.With("component", "rss"),
		),
		Stories: repo,
		Logger:  log.With("component", "ingest"),
		Clock:   clock,
	})
	summarize := usecase.NewSummarizeJob(usecase.SummarizeDeps{
		Stories:    repo,
		Summarizer: summarizer,
		Logger:     log.With("component", "summarize"),
		BatchSize:  cfg.Enrichment.BatchSize,
		Throttle:   cfg.Enrichment.Throttle,
	})
	narrator := usecase.NewNarrator(usecase.NarratorDeps{
		Stories:     repo,
		Audio:       repo,
		Synthesizer: synthesizer,
		Files:       audiofs.New(cfg.Speech.AudioDir),
		Notifier:    notifier,
		Logger:      log.With("component", "narrator"),
		Clock:       clock,
		Lookback:    cfg.Enrichment.BriefLookback,
		MaxStories:  cfg.Enrichment.BriefMaxStories,
	})
	a.scheduler = usecase.NewScheduler(usecase.SchedulerDeps{
		Driver:    scheduler.NewCronScheduler(loc, log.With("component", "scheduler")),
		Ingest:    ingest,
		Summarize: summarize,
		Narrator:  narrator,
		Schedule: usecase.Schedule{
			Ingest:       cfg.Scheduler.IngestCron,
			Summarize:    cfg.Scheduler.SummarizeCron,
			MorningBrief: cfg.Scheduler.MorningBriefCron,
			EveningBrief: cfg.Scheduler.EveningBriefCron,
		},
		Logger: log.With("component", "scheduler"),
		Clock:  clock,
	})

	query := usecase.NewQuery(usecase.QueryDeps{
		Stories:       repo,
		Audio:         repo,
		Sources:       registry,
		Cache:         queryCache,
		CacheTTL:      cfg.Redis.CacheTTL,
		BriefLimit:    narrator.MaxStories(),
		BriefLookback: narrator.Lookback(),
		Logger:        log.With("component", "query"),
		Clock:         clock,
	})

	if !strings.EqualFold(cfg.Logging.Level, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := api.NewHandler(api.HandlerDeps{
		Service: query,
		Audio:   narrator,
		Version: Version,
		Logger:  log.With("component", "api"),
	})
	a.server = &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.NewRouter(handler, cfg.HTTP.AllowedOrigins, log.With("component", "http")),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// Handler exposes the HTTP surface.
func (a *Application) Handler() http.Handler {
	return a.server.Handler
}

// Run starts the jobs and serves HTTP until ctx is cancelled or the listener fails.
func (a *Application) Run(ctx context.Context) error {
	defer a.close()

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		a.log.Info("http server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutting down")
	case err := <-serveErr:
		runErr = fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.Error("http shutdown failed", "error", err)
	}
	if err := a.scheduler.Stop(shutdownCtx); err != nil {
		a.log.Error("scheduler shutdown failed", "error", err)
	}
	return runErr
}

func (a *Application) close() {
	if a.cache != nil {
		_ = a.cache.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func buildRegistry(cfg []config.SourceConfig) (*source.Registry, error) {
	if len(cfg) == 0 {
		return source.NewRegistry(source.Defaults())
	}
	sources := make([]domain.Source, 0, len(cfg))
	for _, s := range cfg {
		sources = append(sources, domain.Source{
			Name:     s.Name,
			FeedURL:  s.URL,
			Category: domain.SourceCategory(s.Category),
		})
	}
	return source.NewRegistry(sources)
}

// buildSummarizer returns nil when no provider is usable; the job then relies on the fallback summary.
func buildSummarizer(cfg config.SummarizerConfig, log *slog.Logger) (ports.Summarizer, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "none":
		log.Warn("no summarizer configured, using fallback summaries")
		return nil, nil
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			log.Warn("OPENAI_API_KEY not set, using fallback summaries")
			return nil, nil
		}
		return llm.NewOpenAISummarizer(cfg.OpenAI)
	case "ollama":
		return llm.NewOllamaSummarizer(cfg.Ollama), nil
	default:
		return nil, fmt.Errorf("unknown summarizer provider %q", cfg.Provider)
	}
}

// buildSynthesizer returns nil when speech is disabled; briefs are then skipped and story audio fails.
func buildSynthesizer(cfg config.SpeechConfig, log *slog.Logger) (ports.Synthesizer, error) {
	switch strings.ToLower(cfg.Provider) {
	case "none":
		log.Warn("speech synthesis disabled")
		return nil, nil
	case "", "gtts":
		return tts.NewGoogleTTS(cfg.GTTS), nil
	case "openai":
		return tts.NewOpenAISpeech(cfg.OpenAI)
	default:
		return nil, fmt.Errorf("unknown speech provider %q", cfg.Provider)
	}
}
