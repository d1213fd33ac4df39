package tts

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"EthioNews/internal/config"
	"EthioNews/internal/domain"
)

func TestSplitChunks(t *testing.T) {
	t.Parallel()

	if chunks := splitChunks("   ", 10); len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %v", chunks)
	}

	chunks := splitChunks("one two three four", 9)
	want := []string{"one two", "three", "four"}
	if strings.Join(chunks, "|") != strings.Join(want, "|") {
		t.Fatalf("chunks = %q, want %q", chunks, want)
	}

	long := strings.Repeat("ሀ", 25)
	chunks = splitChunks("ab "+long, 10)
	if len(chunks) != 4 || chunks[0] != "ab" || utf8.RuneCountInString(chunks[1]) != 10 || utf8.RuneCountInString(chunks[3]) != 5 {
		t.Fatalf("unexpected long-word split %q", chunks)
	}

	text := strings.Repeat("word ", 120)
	for _, chunk := range splitChunks(text, maxChunkRunes) {
		if utf8.RuneCountInString(chunk) > maxChunkRunes {
			t.Fatalf("chunk exceeds limit: %d", utf8.RuneCountInString(chunk))
		}
	}
}

func TestGoogleTTSConcatenatesChunks(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		langs []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translate_tts" {
			http.NotFound(w, r)
			return
		}
		mu.Lock()
		langs = append(langs, r.URL.Query().Get("tl"))
		mu.Unlock()
		_, _ = w.Write([]byte("[" + r.URL.Query().Get("idx") + "]"))
	}))
	defer server.Close()

	g := NewGoogleTTS(config.GTTSConfig{BaseURL: server.URL})
	var buf bytes.Buffer
	text := strings.Repeat("ዜና ", 150)
	if err := g.Synthesize(context.Background(), text, domain.LangAmharic, &buf); err != nil {
		t.Fatalf("Synthesize error: %v", err)
	}

	if buf.String() != "[0][1][2]" {
		t.Fatalf("unexpected audio bytes %q", buf.String())
	}
	mu.Lock()
	defer mu.Unlock()
	for _, lang := range langs {
		if lang != "am" {
			t.Fatalf("unexpected tl %s", lang)
		}
	}
}

func TestGoogleTTSFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	g := NewGoogleTTS(config.GTTSConfig{BaseURL: server.URL})
	if err := g.Synthesize(context.Background(), "hello", domain.LangEnglish, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error")
	}
	if err := g.Synthesize(context.Background(), "", domain.LangEnglish, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for empty text")
	}
}

func TestOpenAISpeech(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/speech" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3mp3"))
	}))
	defer server.Close()

	speech, err := NewOpenAISpeech(config.OpenAISpeechConfig{APIKey: "sk", BaseURL: server.URL + "/v1"})
	if err != nil {
		t.Fatalf("new speech: %v", err)
	}
	var buf bytes.Buffer
	if err := speech.Synthesize(context.Background(), "Daily Brief", domain.LangEnglish, &buf); err != nil {
		t.Fatalf("Synthesize error: %v", err)
	}
	if buf.String() != "ID3mp3" {
		t.Fatalf("unexpected audio %q", buf.String())
	}
}
