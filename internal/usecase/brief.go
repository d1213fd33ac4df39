package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"EthioNews/internal/domain"
	"EthioNews/internal/ports"
)

// NarratorDeps wires the audio-generation flows.
type NarratorDeps struct {
	Stories     ports.StoryRepository
	Audio       ports.AudioRepository
	Synthesizer ports.Synthesizer
	Files       ports.AudioFiles
	Notifier    ports.Notifier
	Logger      *slog.Logger
	Clock       func() time.Time
	// Lookback and MaxStories bound which stories a daily brief narrates.
	Lookback   time.Duration
	MaxStories int
}

// Narrator produces daily-brief and per-story audio.
type Narrator struct {
	stories     ports.StoryRepository
	audio       ports.AudioRepository
	synthesizer ports.Synthesizer
	files       ports.AudioFiles
	notifier    ports.Notifier
	logger      *slog.Logger
	clock       func() time.Time
	lookback    time.Duration
	maxStories  int

	inflight singleflight.Group
}

// NewNarrator constructs the component; Lookback defaults to 12h and MaxStories to 6.
func NewNarrator(deps NarratorDeps) *Narrator {
	lookback := deps.Lookback
	if lookback <= 0 {
		lookback = 12 * time.Hour
	}
	maxStories := deps.MaxStories
	if maxStories <= 0 {
		maxStories = 6
	}
	return &Narrator{
		stories:     deps.Stories,
		audio:       deps.Audio,
		synthesizer: deps.Synthesizer,
		files:       deps.Files,
		notifier:    deps.Notifier,
		logger:      loggerOrDiscard(deps.Logger),
		clock:       clockOrNow(deps.Clock),
		lookback:    lookback,
		maxStories:  maxStories,
	}
}

// MaxStories is the number of stories a brief covers.
func (n *Narrator) MaxStories() int {
	return n.maxStories
}

// Lookback is how far back a brief reaches for stories.
func (n *Narrator) Lookback() time.Duration {
	return n.lookback
}

// GenerateDailyBrief narrates the latest summarized stories for slot in lang.
// It returns nil without error when there is nothing to narrate or synthesis fails;
// store failures are returned.
func (n *Narrator) GenerateDailyBrief(ctx context.Context, slot domain.Slot, lang domain.Lang) (*domain.Audio, error) {
	now := n.clock()
	stories, err := n.stories.Feed(ctx, ports.FeedQuery{
		Lang:  lang,
		Since: now.Add(-n.lookback),
		Limit: n.maxStories,
	})
	if err != nil {
		return nil, fmt.Errorf("load brief stories: %w", err)
	}
	if len(stories) == 0 {
		n.logger.Info("no stories for daily brief", "slot", slot, "lang", lang)
		return nil, nil
	}

	text := composeBrief(slot, lang, stories)
	name := fmt.Sprintf("daily_brief_%s_%s_%d.mp3", slot, lang, now.UnixMilli())
	path, err := n.render(ctx, name, text, lang)
	if err != nil {
		n.logger.Error("daily brief synthesis failed", "slot", slot, "lang", lang, "error", err)
		return nil, nil
	}

	audio := domain.Audio{
		Owner:       domain.SlotOwner{Slot: slot},
		Lang:        lang,
		FilePath:    path,
		DurationSec: domain.EstimateDuration(text),
		CreatedAt:   now.UTC(),
	}
	if err := n.audio.CreateAudio(ctx, &audio); err != nil {
		return nil, fmt.Errorf("save daily brief audio: %w", err)
	}

	n.logger.Info("daily brief generated", "slot", slot, "lang", lang, "stories", len(stories), "audio_id", audio.ID)
	n.announce(ctx, slot, lang, stories)
	return &audio, nil
}

// StoryAudio returns the latest narration of a story in lang, synthesizing one
// if none exists. Concurrent calls for the same story and language share one synthesis,
// which is not cut short when the caller that started it goes away.
func (n *Narrator) StoryAudio(ctx context.Context, storyID string, lang domain.Lang) (domain.Audio, error) {
	key := storyID + "/" + string(lang)
	v, err, _ := n.inflight.Do(key, func() (interface{}, error) {
		return n.storyAudio(context.WithoutCancel(ctx), storyID, lang)
	})
	if err != nil {
		return domain.Audio{}, err
	}
	return v.(domain.Audio), nil
}

func (n *Narrator) storyAudio(ctx context.Context, storyID string, lang domain.Lang) (domain.Audio, error) {
	owner := domain.StoryOwner{StoryID: storyID}
	existing, err := n.audio.LatestAudio(ctx, owner, lang)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Audio{}, fmt.Errorf("lookup story audio: %w", err)
	}

	story, err := n.stories.Get(ctx, storyID)
	if err != nil {
		return domain.Audio{}, err
	}

	now := n.clock()
	text := story.NarrationText(lang)
	name := fmt.Sprintf("story_%s_%s_%d.mp3", story.ID, lang, now.UnixMilli())
	path, err := n.render(ctx, name, text, lang)
	if err != nil {
		return domain.Audio{}, fmt.Errorf("synthesize story audio: %w", err)
	}

	audio := domain.Audio{
		Owner:       owner,
		Lang:        lang,
		FilePath:    path,
		DurationSec: domain.EstimateDuration(text),
		CreatedAt:   now.UTC(),
	}
	if err := n.audio.CreateAudio(ctx, &audio); err != nil {
		return domain.Audio{}, fmt.Errorf("save story audio: %w", err)
	}

	if err := n.stories.SetAudioURL(ctx, story.ID, audio.URL()); err != nil {
		n.logger.Warn("set story audio url failed", "story_id", story.ID, "error", err)
	}
	n.logger.Info("story audio generated", "story_id", story.ID, "lang", lang, "audio_id", audio.ID)
	return audio, nil
}

func (n *Narrator) render(ctx context.Context, name, text string, lang domain.Lang) (string, error) {
	if n.synthesizer == nil || n.files == nil {
		return "", fmt.Errorf("speech synthesis is not configured")
	}
	return n.files.Save(ctx, name, func(w io.Writer) error {
		return n.synthesizer.Synthesize(ctx, text, lang, w)
	})
}

func (n *Narrator) announce(ctx context.Context, slot domain.Slot, lang domain.Lang, stories []domain.Story) {
	if n.notifier == nil {
		return
	}
	var b strings.Builder
	b.WriteString(briefIntro(slot, lang))
	b.WriteString("\n")
	for _, story := range stories {
		fmt.Fprintf(&b, "- %s\n%s\n", story.Title, story.OriginalURL)
	}
	if err := n.notifier.PublishDigest(ctx, b.String()); err != nil {
		n.logger.Warn("brief announcement failed", "slot", slot, "lang", lang, "error", err)
	}
}

func briefIntro(slot domain.Slot, lang domain.Lang) string {
	if lang == domain.LangAmharic {
		if slot == domain.SlotMorning {
			return "የዕለቱ ዜና ማጠቃለያ - ጠዋት"
		}
		return "የዕለቱ ዜና ማጠቃለያ - ማታ"
	}
	if slot == domain.SlotMorning {
		return "Daily Brief - Morning"
	}
	return "Daily Brief - Evening"
}

func composeBrief(slot domain.Slot, lang domain.Lang, stories []domain.Story) string {
	var b strings.Builder
	b.WriteString(briefIntro(slot, lang))
	b.WriteString(". ")
	for _, story := range stories {
		fmt.Fprintf(&b, "%s. %s. ", story.Title, domain.Spoken(story.Summary.Get(lang)))
	}
	return strings.TrimSpace(b.String())
}
