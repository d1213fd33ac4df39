// Package tts holds the speech-synthesis providers.
package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"EthioNews/internal/config"
	"EthioNews/internal/domain"
	"EthioNews/internal/ports"
)

// maxChunkRunes is the longest text the translate_tts endpoint accepts per request.
const maxChunkRunes = 200

// GoogleTTS synthesizes speech through the Google Translate TTS endpoint.
// It is the only free provider here that speaks Amharic.
type GoogleTTS struct {
	baseURL string
	client  *http.Client
}

var _ ports.Synthesizer = (*GoogleTTS)(nil)

// NewGoogleTTS builds a client; BaseURL defaults to translate.google.com.
func NewGoogleTTS(cfg config.GTTSConfig) *GoogleTTS {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://translate.google.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &GoogleTTS{baseURL: base, client: &http.Client{Timeout: timeout}}
}

// Synthesize fetches each chunk as MP3 and writes them to w in order.
func (g *GoogleTTS) Synthesize(ctx context.Context, text string, lang domain.Lang, w io.Writer) error {
	chunks := splitChunks(text, maxChunkRunes)
	if len(chunks) == 0 {
		return fmt.Errorf("gtts: empty text")
	}

	for i, chunk := range chunks {
		if err := g.fetchChunk(ctx, chunk, lang, i, len(chunks), w); err != nil {
			return fmt.Errorf("gtts chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}
	return nil
}

func (g *GoogleTTS) fetchChunk(ctx context.Context, chunk string, lang domain.Lang, idx, total int, w io.Writer) error {
	query := url.Values{}
	query.Set("ie", "UTF-8")
	query.Set("client", "tw-ob")
	query.Set("tl", string(lang))
	query.Set("q", chunk)
	query.Set("total", strconv.Itoa(total))
	query.Set("idx", strconv.Itoa(idx))
	query.Set("textlen", strconv.Itoa(utf8.RuneCountInString(chunk)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/translate_tts?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Referer", g.baseURL+"/")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("copy audio: %w", err)
	}
	return nil
}

// splitChunks breaks text into pieces of at most limit runes, on word boundaries
// where possible.
func splitChunks(text string, limit int) []string {
	var (
		chunks  []string
		current []rune
	)
	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, string(current))
			current = current[:0]
		}
	}

	for _, word := range strings.Fields(text) {
		runes := []rune(word)
		for len(runes) > limit {
			flush()
			chunks = append(chunks, string(runes[:limit]))
			runes = runes[limit:]
		}
		if len(current) > 0 && len(current)+1+len(runes) > limit {
			flush()
		}
		if len(current) > 0 {
			current = append(current, ' ')
		}
		current = append(current, runes...)
	}
	flush()
	return chunks
}
