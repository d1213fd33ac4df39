package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/assert/v2"

	"EthioNews/internal/domain"
	"EthioNews/internal/ports"
	"EthioNews/internal/usecase"
)

type fakeService struct {
	stories   []domain.Story
	story     domain.Story
	brief     usecase.Brief
	audio     domain.Audio
	sources   []domain.Source
	err       error
	pingErr   error
	lastFeed  ports.FeedQuery
	lastQuery ports.SearchQuery
	lastSlot  domain.Slot
	lastLang  domain.Lang
}

func (f *fakeService) Feed(_ context.Context, q ports.FeedQuery) ([]domain.Story, error) {
	f.lastFeed = q
	return f.stories, f.err
}

func (f *fakeService) Search(_ context.Context, q ports.SearchQuery) ([]domain.Story, error) {
	f.lastQuery = q
	return f.stories, f.err
}

func (f *fakeService) Story(context.Context, string) (domain.Story, error) {
	return f.story, f.err
}

func (f *fakeService) DailyBrief(_ context.Context, slot domain.Slot, lang domain.Lang) (usecase.Brief, error) {
	f.lastSlot, f.lastLang = slot, lang
	return f.brief, f.err
}

func (f *fakeService) Audio(context.Context, string) (domain.Audio, error) {
	return f.audio, f.err
}

func (f *fakeService) Sources() []domain.Source { return f.sources }

func (f *fakeService) Ping(context.Context) error { return f.pingErr }

type fakeGenerator struct {
	audio    domain.Audio
	err      error
	lastID   string
	lastLang domain.Lang
}

func (f *fakeGenerator) StoryAudio(_ context.Context, id string, lang domain.Lang) (domain.Audio, error) {
	f.lastID, f.lastLang = id, lang
	return f.audio, f.err
}

var testNow = time.Date(2024, time.May, 1, 7, 0, 0, 0, time.UTC)

func newTestRouter(svc Service, gen AudioGenerator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(HandlerDeps{
		Service: svc,
		Audio:   gen,
		Version: "test",
		Clock:   func() time.Time { return testNow },
	})
	return NewRouter(h, nil, nil)
}

func serve(r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestFeed_Defaults(t *testing.T) {
	svc := &fakeService{stories: []domain.Story{{ID: "s1", Title: "Coffee exports rise"}}}
	r := newTestRouter(svc, nil)

	w := serve(r, http.MethodGet, "/api/feed?topic=all&source=Fana", "")
	assert.Equal(t, w.Code, http.StatusOK)

	var res struct {
		Stories []domain.Story `json:"stories"`
	}
	assert.Equal(t, json.Unmarshal(w.Body.Bytes(), &res), nil)
	assert.Equal(t, len(res.Stories), 1)
	assert.Equal(t, res.Stories[0].ID, "s1")

	assert.Equal(t, svc.lastFeed.Lang, domain.LangEnglish)
	assert.Equal(t, svc.lastFeed.Topic, "")
	assert.Equal(t, svc.lastFeed.Source, "Fana")
	assert.Equal(t, svc.lastFeed.Limit, defaultLimit)
	assert.Equal(t, svc.lastFeed.Since.IsZero(), true)
}

func TestFeed_Filters(t *testing.T) {
	svc := &fakeService{}
	r := newTestRouter(svc, nil)

	w := serve(r, http.MethodGet, "/api/feed?lang=am&topic=economy&since=2024-04-30T18:00:00Z&limit=500", "")
	assert.Equal(t, w.Code, http.StatusOK)
	assert.Equal(t, w.Body.String(), `{"stories":[]}`)

	assert.Equal(t, svc.lastFeed.Lang, domain.LangAmharic)
	assert.Equal(t, svc.lastFeed.Topic, "economy")
	assert.Equal(t, svc.lastFeed.Limit, maxLimit)
	assert.Equal(t, svc.lastFeed.Since.Equal(time.Date(2024, 4, 30, 18, 0, 0, 0, time.UTC)), true)
}

func TestFeed_InvalidParams(t *testing.T) {
	r := newTestRouter(&fakeService{}, nil)

	for _, target := range []string{
		"/api/feed?lang=fr",
		"/api/feed?limit=0",
		"/api/feed?limit=abc",
		"/api/feed?since=yesterday",
	} {
		w := serve(r, http.MethodGet, target, "")
		assert.Equal(t, w.Code, http.StatusBadRequest)
	}
}

func TestFeed_StoreError(t *testing.T) {
	r := newTestRouter(&fakeService{err: errors.New("connection refused")}, nil)

	w := serve(r, http.MethodGet, "/api/feed", "")
	assert.Equal(t, w.Code, http.StatusInternalServerError)
	assert.Equal(t, strings.Contains(w.Body.String(), "connection refused"), true)
}

func TestSearch(t *testing.T) {
	svc := &fakeService{stories: []domain.Story{{ID: "s1"}}}
	r := newTestRouter(svc, nil)

	w := serve(r, http.MethodGet, "/api/search", "")
	assert.Equal(t, w.Code, http.StatusBadRequest)

	w = serve(r, http.MethodGet, "/api/search?q=coffee&limit=5", "")
	assert.Equal(t, w.Code, http.StatusOK)
	var res struct {
		Stories []domain.Story `json:"stories"`
	}
	assert.Equal(t, json.Unmarshal(w.Body.Bytes(), &res), nil)
	assert.Equal(t, len(res.Stories), 1)
	assert.Equal(t, res.Stories[0].ID, "s1")
	assert.Equal(t, svc.lastQuery.Text, "coffee")
	assert.Equal(t, svc.lastQuery.Limit, 5)
}

func TestStory(t *testing.T) {
	svc := &fakeService{story: domain.Story{ID: "s1", Title: "Coffee exports rise"}}
	r := newTestRouter(svc, nil)

	w := serve(r, http.MethodGet, "/api/story/s1", "")
	assert.Equal(t, w.Code, http.StatusOK)
	var res struct {
		Story domain.Story `json:"story"`
	}
	assert.Equal(t, json.Unmarshal(w.Body.Bytes(), &res), nil)
	assert.Equal(t, res.Story.ID, "s1")
	assert.Equal(t, res.Story.Title, "Coffee exports rise")
}

func TestStory_NotFound(t *testing.T) {
	r := newTestRouter(&fakeService{err: domain.ErrNotFound}, nil)

	w := serve(r, http.MethodGet, "/api/story/missing", "")
	assert.Equal(t, w.Code, http.StatusNotFound)
}

func TestDailyBrief(t *testing.T) {
	audio := &domain.Audio{ID: "a1", Owner: domain.SlotOwner{Slot: domain.SlotEvening}, Lang: domain.LangAmharic}
	svc := &fakeService{brief: usecase.Brief{Audio: audio, Stories: []domain.Story{{ID: "s1"}}}}
	r := newTestRouter(svc, nil)

	w := serve(r, http.MethodGet, "/api/daily-brief?slot=pm&lang=am", "")
	assert.Equal(t, w.Code, http.StatusOK)
	assert.Equal(t, svc.lastSlot, domain.SlotEvening)
	assert.Equal(t, svc.lastLang, domain.LangAmharic)

	var res struct {
		Audio struct {
			ID   string `json:"id"`
			Slot string `json:"slot"`
			URL  string `json:"url"`
		} `json:"audio"`
		Stories []domain.Story `json:"stories"`
	}
	assert.Equal(t, json.Unmarshal(w.Body.Bytes(), &res), nil)
	assert.Equal(t, res.Audio.ID, "a1")
	assert.Equal(t, res.Audio.Slot, "pm")
	assert.Equal(t, res.Audio.URL, "/api/audio/a1")
	assert.Equal(t, len(res.Stories), 1)

	w = serve(r, http.MethodGet, "/api/daily-brief?slot=noon", "")
	assert.Equal(t, w.Code, http.StatusBadRequest)
}

func TestDailyBrief_Empty(t *testing.T) {
	svc := &fakeService{brief: usecase.Brief{Stories: []domain.Story{}}}
	r := newTestRouter(svc, nil)

	w := serve(r, http.MethodGet, "/api/daily-brief", "")
	assert.Equal(t, w.Code, http.StatusOK)
	assert.Equal(t, w.Body.String(), `{"audio":null,"stories":[]}`)
	assert.Equal(t, svc.lastSlot, domain.SlotMorning)
}

func TestStoryAudio(t *testing.T) {
	gen := &fakeGenerator{audio: domain.Audio{
		ID:    "a9",
		Owner: domain.StoryOwner{StoryID: "s1"},
		Lang:  domain.LangAmharic,
	}}
	r := newTestRouter(&fakeService{}, gen)

	w := serve(r, http.MethodPost, "/api/story/s1/audio", `{"lang":"am"}`)
	assert.Equal(t, w.Code, http.StatusOK)
	assert.Equal(t, gen.lastID, "s1")
	assert.Equal(t, gen.lastLang, domain.LangAmharic)
	var res struct {
		Audio struct {
			ID      string `json:"id"`
			StoryID string `json:"storyId"`
			URL     string `json:"url"`
		} `json:"audio"`
	}
	assert.Equal(t, json.Unmarshal(w.Body.Bytes(), &res), nil)
	assert.Equal(t, res.Audio.ID, "a9")
	assert.Equal(t, res.Audio.StoryID, "s1")
	assert.Equal(t, res.Audio.URL, "/api/audio/a9")

	w = serve(r, http.MethodPost, "/api/story/s1/audio", "")
	assert.Equal(t, w.Code, http.StatusOK)
	assert.Equal(t, gen.lastLang, domain.LangEnglish)

	w = serve(r, http.MethodPost, "/api/story/s1/audio", `{"lang":"fr"}`)
	assert.Equal(t, w.Code, http.StatusBadRequest)
}

func TestStoryAudio_ProviderError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("synthesize story audio: insufficient_quota")}
	r := newTestRouter(&fakeService{}, gen)

	w := serve(r, http.MethodPost, "/api/story/s1/audio", `{"lang":"en"}`)
	assert.Equal(t, w.Code, http.StatusInternalServerError)
	assert.Equal(t, strings.Contains(w.Body.String(), "insufficient_quota"), true)

	gen.err = domain.ErrNotFound
	w = serve(r, http.MethodPost, "/api/story/s1/audio", `{"lang":"en"}`)
	assert.Equal(t, w.Code, http.StatusNotFound)
}

func TestAudioFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "story_s1_en_1.mp3")
	assert.Equal(t, os.WriteFile(path, []byte("ID3audio"), 0o644), nil)

	svc := &fakeService{audio: domain.Audio{ID: "a1", FilePath: path}}
	r := newTestRouter(svc, nil)

	w := serve(r, http.MethodGet, "/api/audio/a1", "")
	assert.Equal(t, w.Code, http.StatusOK)
	assert.Equal(t, w.Body.String(), "ID3audio")
	assert.Equal(t, w.Header().Get("Content-Type"), "audio/mpeg")

	svc.audio.FilePath = filepath.Join(t.TempDir(), "gone.mp3")
	w = serve(r, http.MethodGet, "/api/audio/a1", "")
	assert.Equal(t, w.Code, http.StatusNotFound)
}

func TestSources(t *testing.T) {
	svc := &fakeService{sources: []domain.Source{{Name: "Fana", FeedURL: "https://fana.example/feed", Category: domain.CategoryState}}}
	r := newTestRouter(svc, nil)

	w := serve(r, http.MethodGet, "/api/sources", "")
	assert.Equal(t, w.Code, http.StatusOK)
	assert.Equal(t, w.Body.String(), `{"sources":[{"name":"Fana","url":"https://fana.example/feed","category":"state"}]}`)
}

func TestTopics(t *testing.T) {
	r := newTestRouter(&fakeService{}, nil)

	w := serve(r, http.MethodGet, "/api/topics", "")
	assert.Equal(t, w.Code, http.StatusOK)
	var res struct {
		Topics []string `json:"topics"`
	}
	assert.Equal(t, json.Unmarshal(w.Body.Bytes(), &res), nil)
	assert.Equal(t, res.Topics[0], "economy")
	assert.Equal(t, res.Topics[len(res.Topics)-1], "national")
}

func TestHealth(t *testing.T) {
	svc := &fakeService{}
	r := newTestRouter(svc, nil)

	w := serve(r, http.MethodGet, "/health", "")
	assert.Equal(t, w.Code, http.StatusOK)
	var res map[string]string
	assert.Equal(t, json.Unmarshal(w.Body.Bytes(), &res), nil)
	assert.Equal(t, res["status"], "ok")
	assert.Equal(t, res["database"], "connected")
	assert.Equal(t, res["version"], "test")
	assert.Equal(t, res["timestamp"], "2024-05-01T07:00:00Z")

	svc.pingErr = errors.New("db down")
	w = serve(r, http.MethodGet, "/api/health", "")
	assert.Equal(t, w.Code, http.StatusServiceUnavailable)
	assert.Equal(t, json.Unmarshal(w.Body.Bytes(), &res), nil)
	assert.Equal(t, res["status"], "error")
	assert.Equal(t, res["database"], "disconnected")
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(HandlerDeps{Service: &fakeService{}})
	r := NewRouter(h, []string{"https://ethionews.example"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://ethionews.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, w.Header().Get("Access-Control-Allow-Origin"), "https://ethionews.example")

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, w.Code, http.StatusForbidden)
}
