package ports

import (
	"context"
	"io"
	"time"

	"EthioNews/internal/domain"
)

// FeedSource fetches and parses one configured feed.
type FeedSource interface {
	Fetch(ctx context.Context, src domain.Source) ([]domain.FeedEntry, error)
}

// FeedQuery selects summarized stories for the feed and brief paths.
type FeedQuery struct {
	Lang   domain.Lang
	Topic  string
	Source string
	Since  time.Time
	Limit  int
}

// SearchQuery matches text against titles and both summaries.
type SearchQuery struct {
	Text  string
	Limit int
}

// StoryRepository persists stories and owns their uniqueness constraints.
type StoryRepository interface {
	// Exists reports whether a story with the url or the content hash is stored.
	Exists(ctx context.Context, originalURL, contentHash string) (bool, error)
	// Create assigns id and timestamps. Returns domain.ErrDuplicateStory on a uniqueness conflict.
	Create(ctx context.Context, story *domain.Story) error
	Get(ctx context.Context, id string) (domain.Story, error)
	ListMissingSummary(ctx context.Context, limit int) ([]domain.Story, error)
	// SaveSummaries writes only the languages that are still empty in the store.
	SaveSummaries(ctx context.Context, id string, summary domain.Summaries) error
	SetAudioURL(ctx context.Context, id, audioURL string) error
	Feed(ctx context.Context, q FeedQuery) ([]domain.Story, error)
	Search(ctx context.Context, q SearchQuery) ([]domain.Story, error)
	Ping(ctx context.Context) error
}

// AudioRepository persists immutable narration records.
type AudioRepository interface {
	CreateAudio(ctx context.Context, audio *domain.Audio) error
	GetAudio(ctx context.Context, id string) (domain.Audio, error)
	// LatestAudio returns the newest record for owner and lang, or domain.ErrNotFound.
	LatestAudio(ctx context.Context, owner domain.AudioOwner, lang domain.Lang) (domain.Audio, error)
}

// Summarizer produces neutral bullet summaries in the requested language.
type Summarizer interface {
	Summarize(ctx context.Context, title, content string, lang domain.Lang) (domain.Summary, error)
}

// Synthesizer renders text to speech, writing MP3 bytes to w.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, lang domain.Lang, w io.Writer) error
}

// AudioFiles stores rendered narrations; a file only appears once render succeeds.
type AudioFiles interface {
	Save(ctx context.Context, name string, render func(io.Writer) error) (string, error)
}

// Notifier streams brief announcements to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// QueryCache stores serialized query responses for a short time.
type QueryCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Task is a named recurring job. An empty Spec means the task only runs at start.
type Task struct {
	Name       string
	Spec       string
	RunOnStart bool
	Run        func(ctx context.Context)
}

// Scheduler controls when jobs execute.
type Scheduler interface {
	Register(task Task) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
