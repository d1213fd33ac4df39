package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"EthioNews/internal/domain"
	"EthioNews/internal/ports"
)

// SummarizeDeps wires the summarization job.
type SummarizeDeps struct {
	Stories    ports.StoryRepository
	Summarizer ports.Summarizer
	Logger     *slog.Logger
	// BatchSize caps stories per run; Throttle is the minimum gap between stories.
	BatchSize int
	Throttle  time.Duration
}

// SummarizeJob fills missing per-language summaries.
type SummarizeJob struct {
	stories    ports.StoryRepository
	summarizer ports.Summarizer
	logger     *slog.Logger
	batchSize  int
	limiter    *rate.Limiter
}

// SummarizeStats summarizes one run.
type SummarizeStats struct {
	Stories   int
	Generated int
	Fallbacks int
	Failed    int
}

// NewSummarizeJob constructs the job; BatchSize defaults to 5.
func NewSummarizeJob(deps SummarizeDeps) *SummarizeJob {
	batch := deps.BatchSize
	if batch <= 0 {
		batch = 5
	}
	limit := rate.Inf
	if deps.Throttle > 0 {
		limit = rate.Every(deps.Throttle)
	}
	return &SummarizeJob{
		stories:    deps.Stories,
		summarizer: deps.Summarizer,
		logger:     loggerOrDiscard(deps.Logger),
		batchSize:  batch,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// SummarizeUnsummarizedStories processes one batch of stories missing a summary.
// Provider failures fall back to an extractive summary, so every processed
// story leaves with both languages filled.
func (j *SummarizeJob) SummarizeUnsummarizedStories(ctx context.Context) (SummarizeStats, error) {
	var stats SummarizeStats

	stories, err := j.stories.ListMissingSummary(ctx, j.batchSize)
	if err != nil {
		return stats, fmt.Errorf("list unsummarized stories: %w", err)
	}

	for _, story := range stories {
		if err := j.limiter.Wait(ctx); err != nil {
			return stats, err
		}
		stats.Stories++

		update := domain.Summaries{}
		for _, lang := range story.Summary.Missing() {
			text, fromProvider := j.summarize(ctx, story, lang)
			update.Set(lang, text)
			story.Summary.Set(lang, text)
			if fromProvider {
				stats.Generated++
			} else {
				stats.Fallbacks++
			}
		}

		if err := j.stories.SaveSummaries(ctx, story.ID, update); err != nil {
			stats.Failed++
			j.logger.Error("save summaries failed", "story_id", story.ID, "error", err)
			continue
		}
		j.logger.Debug("story summarized", "story_id", story.ID, "title", story.Title, "status", story.SummaryStatus())
	}

	j.logger.Info("summarization finished",
		"stories", stats.Stories,
		"generated", stats.Generated,
		"fallbacks", stats.Fallbacks,
		"failed", stats.Failed)
	return stats, nil
}

// summarize returns the provider summary, or the fallback with false on any provider failure.
func (j *SummarizeJob) summarize(ctx context.Context, story domain.Story, lang domain.Lang) (string, bool) {
	if j.summarizer != nil {
		content := story.Content
		if content == "" {
			content = story.Title
		}
		summary, err := j.summarizer.Summarize(ctx, story.Title, content, lang)
		if err == nil {
			if text := joinBullets(summary.Bullets); text != "" {
				return text, true
			}
			err = domain.ErrNoSummary
		}
		j.logger.Warn("summarizer failed, using fallback", "story_id", story.ID, "lang", lang, "error", err)
	}
	return fallbackSummary(story.Title, story.Content), false
}

func joinBullets(bullets []string) string {
	lines := make([]string, 0, len(bullets))
	for _, b := range bullets {
		if b = strings.TrimSpace(b); b != "" {
			lines = append(lines, b)
		}
	}
	return strings.Join(lines, "\n")
}

const (
	fallbackSentences = 3
	minSentenceRunes  = 20
)

// fallbackSummary keeps the first few substantial sentences of content, or the title.
func fallbackSummary(title, content string) string {
	parts := strings.FieldsFunc(content, func(r rune) bool {
		switch r {
		case '.', '!', '?', '።', '፧':
			return true
		}
		return false
	})

	var picked []string
	for _, part := range parts {
		sentence := strings.Join(strings.Fields(part), " ")
		if utf8.RuneCountInString(sentence) > minSentenceRunes {
			picked = append(picked, sentence)
			if len(picked) == fallbackSentences {
				break
			}
		}
	}

	if len(picked) == 0 {
		if title = strings.TrimSpace(title); title != "" {
			return title
		}
		return "Insufficient details"
	}
	return strings.Join(picked, "\n")
}
