package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"EthioNews/internal/domain"
	"EthioNews/internal/ports"
	"EthioNews/internal/topic"
)

// SourceLister enumerates the configured feeds in registry order.
type SourceLister interface {
	All() []domain.Source
}

// IngestDeps wires the driven adapters into the ingestion pipeline.
type IngestDeps struct {
	Sources SourceLister
	Feeds   ports.FeedSource
	Stories ports.StoryRepository
	Logger  *slog.Logger
	Clock   func() time.Time
}

// IngestPipeline pulls every feed and stores stories it has not seen before.
type IngestPipeline struct {
	sources SourceLister
	feeds   ports.FeedSource
	stories ports.StoryRepository
	logger  *slog.Logger
	clock   func() time.Time
}

// IngestStats summarizes one ingestion pass.
type IngestStats struct {
	Sources       int
	FailedSources int
	Entries       int
	Created       int
	Skipped       int
	Failed        int
}

// NewIngestPipeline constructs the ingestion component.
func NewIngestPipeline(deps IngestDeps) *IngestPipeline {
	return &IngestPipeline{
		sources: deps.Sources,
		feeds:   deps.Feeds,
		stories: deps.Stories,
		logger:  loggerOrDiscard(deps.Logger),
		clock:   clockOrNow(deps.Clock),
	}
}

// FetchAllFeeds ingests each source independently. A failing source or entry
// is logged and skipped; only context cancellation stops the pass early.
func (p *IngestPipeline) FetchAllFeeds(ctx context.Context) IngestStats {
	var stats IngestStats
	if p.sources == nil || p.feeds == nil || p.stories == nil {
		return stats
	}

	for _, src := range p.sources.All() {
		if ctx.Err() != nil {
			p.logger.Warn("ingestion interrupted", "error", ctx.Err())
			break
		}
		stats.Sources++

		entries, err := p.feeds.Fetch(ctx, src)
		if err != nil {
			stats.FailedSources++
			p.logger.Error("fetch feed failed", "source", src.Name, "url", src.FeedURL, "error", err)
			continue
		}

		for _, entry := range entries {
			stats.Entries++
			created, err := p.ingestEntry(ctx, src, entry)
			switch {
			case err != nil:
				stats.Failed++
				p.logger.Warn("ingest entry failed", "source", src.Name, "link", entry.Link, "error", err)
			case created:
				stats.Created++
			default:
				stats.Skipped++
			}
		}
		p.logger.Debug("source ingested", "source", src.Name, "entries", len(entries))
	}

	p.logger.Info("ingestion finished",
		"sources", stats.Sources,
		"failed_sources", stats.FailedSources,
		"entries", stats.Entries,
		"created", stats.Created,
		"skipped", stats.Skipped,
		"failed", stats.Failed)
	return stats
}

func (p *IngestPipeline) ingestEntry(ctx context.Context, src domain.Source, entry domain.FeedEntry) (bool, error) {
	if entry.Link == "" {
		return false, fmt.Errorf("entry %q has no link", entry.Title)
	}

	hash := domain.ContentIdentity(entry.Link)
	exists, err := p.stories.Exists(ctx, entry.Link, hash)
	if err != nil {
		return false, fmt.Errorf("check existing: %w", err)
	}
	if exists {
		return false, nil
	}

	title := entry.Title
	if title == "" {
		title = entry.Link
	}
	content := entry.BestContent()
	if content == "" {
		content = title
	}
	published := entry.PublishedAt
	if published.IsZero() {
		published = p.clock()
	}

	story := domain.Story{
		Title:       title,
		Content:     content,
		Topic:       topic.Classify(title, content),
		Source:      src,
		OriginalURL: entry.Link,
		ContentHash: hash,
		PublishedAt: published.UTC(),
	}

	if err := p.stories.Create(ctx, &story); err != nil {
		if errors.Is(err, domain.ErrDuplicateStory) {
			// Lost a race with a concurrent pass.
			return false, nil
		}
		return false, fmt.Errorf("create story: %w", err)
	}

	p.logger.Debug("story created", "story_id", story.ID, "source", src.Name, "topic", story.Topic)
	return true, nil
}

func loggerOrDiscard(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

func clockOrNow(clock func() time.Time) func() time.Time {
	if clock != nil {
		return clock
	}
	return time.Now
}
