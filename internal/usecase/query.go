package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"EthioNews/internal/domain"
	"EthioNews/internal/ports"
)

// QueryDeps wires the read side.
type QueryDeps struct {
	Stories ports.StoryRepository
	Audio   ports.AudioRepository
	Sources SourceLister
	Cache   ports.QueryCache
	// CacheTTL is how long feed and search results are served from Cache.
	CacheTTL time.Duration
	// BriefLimit and BriefLookback bound the stories listed next to a brief.
	BriefLimit    int
	BriefLookback time.Duration
	Logger        *slog.Logger
	Clock         func() time.Time
}

// Query serves feed, search, story, brief and audio lookups.
type Query struct {
	stories    ports.StoryRepository
	audio      ports.AudioRepository
	sources    SourceLister
	cache      ports.QueryCache
	cacheTTL      time.Duration
	briefLimit    int
	briefLookback time.Duration
	logger        *slog.Logger
	clock         func() time.Time
}

// Brief pairs the latest brief narration with recent stories in the same language.
type Brief struct {
	Audio   *domain.Audio  `json:"audio"`
	Stories []domain.Story `json:"stories"`
}

// NewQuery constructs the read service; BriefLimit defaults to 6 and BriefLookback to 12h.
func NewQuery(deps QueryDeps) *Query {
	limit := deps.BriefLimit
	if limit <= 0 {
		limit = 6
	}
	lookback := deps.BriefLookback
	if lookback <= 0 {
		lookback = 12 * time.Hour
	}
	return &Query{
		stories:       deps.Stories,
		audio:         deps.Audio,
		sources:       deps.Sources,
		cache:         deps.Cache,
		cacheTTL:      deps.CacheTTL,
		briefLimit:    limit,
		briefLookback: lookback,
		logger:        loggerOrDiscard(deps.Logger),
		clock:         clockOrNow(deps.Clock),
	}
}

// Feed lists summarized stories, newest first.
func (q *Query) Feed(ctx context.Context, query ports.FeedQuery) ([]domain.Story, error) {
	key := fmt.Sprintf("feed:%s:%s:%s:%d:%d",
		query.Lang, strings.ToLower(query.Topic), strings.ToLower(query.Source), query.Since.Unix(), query.Limit)
	return q.cached(ctx, key, func() ([]domain.Story, error) {
		return q.stories.Feed(ctx, query)
	})
}

// Search matches text in titles and summaries.
func (q *Query) Search(ctx context.Context, query ports.SearchQuery) ([]domain.Story, error) {
	key := fmt.Sprintf("search:%s:%d", strings.ToLower(query.Text), query.Limit)
	return q.cached(ctx, key, func() ([]domain.Story, error) {
		return q.stories.Search(ctx, query)
	})
}

// Story loads a single story.
func (q *Query) Story(ctx context.Context, id string) (domain.Story, error) {
	return q.stories.Get(ctx, id)
}

// DailyBrief returns the newest brief audio for slot and lang, if any, plus the stories
// published within the brief lookback.
func (q *Query) DailyBrief(ctx context.Context, slot domain.Slot, lang domain.Lang) (Brief, error) {
	brief := Brief{Stories: []domain.Story{}}

	audio, err := q.audio.LatestAudio(ctx, domain.SlotOwner{Slot: slot}, lang)
	switch {
	case err == nil:
		brief.Audio = &audio
	case errors.Is(err, domain.ErrNotFound):
		return brief, nil
	default:
		return brief, fmt.Errorf("load daily brief audio: %w", err)
	}

	stories, err := q.stories.Feed(ctx, ports.FeedQuery{
		Lang:  lang,
		Since: q.clock().Add(-q.briefLookback),
		Limit: q.briefLimit,
	})
	if err != nil {
		return brief, fmt.Errorf("load daily brief stories: %w", err)
	}
	brief.Stories = stories
	return brief, nil
}

// Audio loads one audio record.
func (q *Query) Audio(ctx context.Context, id string) (domain.Audio, error) {
	return q.audio.GetAudio(ctx, id)
}

// Sources enumerates the registry.
func (q *Query) Sources() []domain.Source {
	if q.sources == nil {
		return []domain.Source{}
	}
	return q.sources.All()
}

// Ping reports store connectivity.
func (q *Query) Ping(ctx context.Context) error {
	return q.stories.Ping(ctx)
}

func (q *Query) cached(ctx context.Context, key string, load func() ([]domain.Story, error)) ([]domain.Story, error) {
	if q.cache == nil || q.cacheTTL <= 0 {
		return load()
	}

	if raw, ok, err := q.cache.Get(ctx, key); err != nil {
		q.logger.Warn("cache read failed", "key", key, "error", err)
	} else if ok {
		var stories []domain.Story
		if err := json.Unmarshal(raw, &stories); err == nil {
			return stories, nil
		}
		q.logger.Warn("cache entry corrupt", "key", key)
	}

	stories, err := load()
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(stories); err == nil {
		if err := q.cache.Set(ctx, key, raw, q.cacheTTL); err != nil {
			q.logger.Warn("cache write failed", "key", key, "error", err)
		}
	}
	return stories, nil
}
