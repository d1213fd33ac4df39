package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"EthioNews/internal/domain"
	"EthioNews/internal/ports"
)

var fixedNow = time.Date(2024, time.May, 1, 7, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type staticSources []domain.Source

func (s staticSources) All() []domain.Source { return s }

type fakeFeeds struct {
	entries map[string][]domain.FeedEntry
	errs    map[string]error
	calls   []string
}

func (f *fakeFeeds) Fetch(_ context.Context, src domain.Source) ([]domain.FeedEntry, error) {
	f.calls = append(f.calls, src.Name)
	if err := f.errs[src.Name]; err != nil {
		return nil, err
	}
	return f.entries[src.Name], nil
}

type memoryStories struct {
	mu        sync.Mutex
	stories   map[string]domain.Story
	order     []string
	seq       int
	existsErr error
	saveErr   map[string]error
	// raceOnCreate simulates a concurrent insert landing between Exists and Create.
	raceOnCreate bool
}

func newMemoryStories() *memoryStories {
	return &memoryStories{stories: map[string]domain.Story{}, saveErr: map[string]error{}}
}

func (m *memoryStories) Exists(_ context.Context, url, hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsErr != nil {
		return false, m.existsErr
	}
	for _, s := range m.stories {
		if s.OriginalURL == url || s.ContentHash == hash {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStories) Create(_ context.Context, story *domain.Story) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.raceOnCreate {
		return domain.ErrDuplicateStory
	}
	for _, s := range m.stories {
		if s.OriginalURL == story.OriginalURL || s.ContentHash == story.ContentHash {
			return domain.ErrDuplicateStory
		}
	}
	m.seq++
	story.ID = fmt.Sprintf("story-%d", m.seq)
	story.CreatedAt = fixedNow
	story.UpdatedAt = fixedNow
	m.stories[story.ID] = *story
	m.order = append(m.order, story.ID)
	return nil
}

func (m *memoryStories) add(story domain.Story) domain.Story {
	if story.ContentHash == "" {
		story.ContentHash = domain.ContentIdentity(story.OriginalURL)
	}
	if err := m.Create(context.Background(), &story); err != nil {
		panic(err)
	}
	return story
}

func (m *memoryStories) Get(_ context.Context, id string) (domain.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stories[id]
	if !ok {
		return domain.Story{}, fmt.Errorf("story %s: %w", id, domain.ErrNotFound)
	}
	return s, nil
}

func (m *memoryStories) ListMissingSummary(_ context.Context, limit int) ([]domain.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Story
	for _, id := range m.order {
		s := m.stories[id]
		if len(s.Summary.Missing()) > 0 {
			out = append(out, s)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memoryStories) SaveSummaries(_ context.Context, id string, summary domain.Summaries) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.saveErr[id]; err != nil {
		return err
	}
	s, ok := m.stories[id]
	if !ok {
		return domain.ErrNotFound
	}
	for _, lang := range domain.Languages() {
		if s.Summary.Get(lang) == "" {
			s.Summary.Set(lang, summary.Get(lang))
		}
	}
	m.stories[id] = s
	return nil
}

func (m *memoryStories) SetAudioURL(_ context.Context, id, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stories[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.AudioURL = url
	m.stories[id] = s
	return nil
}

func (m *memoryStories) Feed(_ context.Context, q ports.FeedQuery) ([]domain.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Story
	for _, s := range m.stories {
		if s.Summary.Get(q.Lang) == "" {
			continue
		}
		if q.Topic != "" && !strings.Contains(strings.ToLower(s.Topic), strings.ToLower(q.Topic)) {
			continue
		}
		if q.Source != "" && !strings.Contains(strings.ToLower(s.Source.Name), strings.ToLower(q.Source)) {
			continue
		}
		if !q.Since.IsZero() && s.PublishedAt.Before(q.Since) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublishedAt.After(out[j].PublishedAt) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *memoryStories) Search(_ context.Context, q ports.SearchQuery) ([]domain.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	needle := strings.ToLower(q.Text)
	var out []domain.Story
	for _, s := range m.stories {
		text := strings.ToLower(s.Title + " " + s.Summary.EN + " " + s.Summary.AM)
		if strings.Contains(text, needle) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memoryStories) Ping(context.Context) error { return nil }

func (m *memoryStories) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stories)
}

type memoryAudio struct {
	mu      sync.Mutex
	records []domain.Audio
	seq     int
}

func (m *memoryAudio) CreateAudio(_ context.Context, audio *domain.Audio) error {
	if err := audio.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	audio.ID = fmt.Sprintf("audio-%d", m.seq)
	m.records = append(m.records, *audio)
	return nil
}

func (m *memoryAudio) GetAudio(_ context.Context, id string) (domain.Audio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.records {
		if a.ID == id {
			return a, nil
		}
	}
	return domain.Audio{}, domain.ErrNotFound
}

func (m *memoryAudio) LatestAudio(_ context.Context, owner domain.AudioOwner, lang domain.Lang) (domain.Audio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.records) - 1; i >= 0; i-- {
		a := m.records[i]
		if a.Owner == owner && a.Lang == lang {
			return a, nil
		}
	}
	return domain.Audio{}, domain.ErrNotFound
}

func (m *memoryAudio) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

type scriptedSummarizer struct {
	mu      sync.Mutex
	bullets map[domain.Lang][]string
	err     error
	calls   []domain.Lang
}

func (s *scriptedSummarizer) Summarize(_ context.Context, _, _ string, lang domain.Lang) (domain.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, lang)
	if s.err != nil {
		return domain.Summary{}, s.err
	}
	return domain.Summary{Title: "t", Bullets: s.bullets[lang], Language: lang}, nil
}

type recordingSynth struct {
	mu      sync.Mutex
	texts   []string
	err     error
	gate    chan struct{}
	entered chan struct{}
}

func (r *recordingSynth) Synthesize(ctx context.Context, text string, _ domain.Lang, w io.Writer) error {
	if r.entered != nil {
		select {
		case r.entered <- struct{}{}:
		default:
		}
	}
	if r.gate != nil {
		<-r.gate
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.texts = append(r.texts, text)
	r.mu.Unlock()
	if r.err != nil {
		_, _ = w.Write([]byte("partial"))
		return r.err
	}
	_, err := w.Write([]byte("ID3" + text))
	return err
}

func (r *recordingSynth) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.texts)
}

type memoryFiles struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemoryFiles() *memoryFiles { return &memoryFiles{files: map[string][]byte{}} }

func (m *memoryFiles) Save(_ context.Context, name string, render func(io.Writer) error) (string, error) {
	var buf strings.Builder
	if err := render(&buf); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	path := "/audio/" + name
	m.files[path] = []byte(buf.String())
	return path, nil
}

type recordingNotifier struct {
	messages []string
	err      error
}

func (r *recordingNotifier) PublishDigest(_ context.Context, digest string) error {
	r.messages = append(r.messages, digest)
	return r.err
}

type recordingDriver struct {
	tasks   []ports.Task
	started bool
	stopped bool
}

func (d *recordingDriver) Register(task ports.Task) error {
	if task.Run == nil {
		return errors.New("task without run func")
	}
	d.tasks = append(d.tasks, task)
	return nil
}

func (d *recordingDriver) Start(context.Context) error {
	d.started = true
	return nil
}

func (d *recordingDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = map[string][]byte{}
	}
	m.entries[key] = value
	return nil
}
