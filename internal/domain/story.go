package domain

import (
	"fmt"
	"strings"
	"time"
)

// SourceCategory describes who operates a news source.
type SourceCategory string

const (
	CategoryState    SourceCategory = "state"
	CategoryPrivate  SourceCategory = "private"
	CategoryDiaspora SourceCategory = "diaspora"
)

// Valid reports whether c is one of the known provenance categories.
func (c SourceCategory) Valid() bool {
	switch c {
	case CategoryState, CategoryPrivate, CategoryDiaspora:
		return true
	}
	return false
}

// Source is a configured feed endpoint and its provenance.
type Source struct {
	Name     string         `json:"name"`
	FeedURL  string         `json:"url"`
	Category SourceCategory `json:"category"`
}

// Summaries holds one summary per supported language; empty means not yet produced.
type Summaries struct {
	EN string `json:"en"`
	AM string `json:"am"`
}

// Get returns the summary for lang.
func (s Summaries) Get(lang Lang) string {
	if lang == LangAmharic {
		return s.AM
	}
	return s.EN
}

// Set stores text as the summary for lang.
func (s *Summaries) Set(lang Lang, text string) {
	if lang == LangAmharic {
		s.AM = text
		return
	}
	s.EN = text
}

// Missing lists the languages still lacking a summary.
func (s Summaries) Missing() []Lang {
	var missing []Lang
	for _, lang := range Languages() {
		if s.Get(lang) == "" {
			missing = append(missing, lang)
		}
	}
	return missing
}

// SummaryStatus enumerates enrichment milestones of a story.
type SummaryStatus string

const (
	StatusPending    SummaryStatus = "pending"
	StatusPartial    SummaryStatus = "partial"
	StatusSummarized SummaryStatus = "summarized"
)

// Story is a single ingested news item.
type Story struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Topic       string    `json:"topic"`
	Source      Source    `json:"source"`
	OriginalURL string    `json:"originalUrl"`
	ContentHash string    `json:"contentHash"`
	PublishedAt time.Time `json:"publishedAt"`
	Summary     Summaries `json:"summary"`
	AudioURL    string    `json:"audioUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SummaryStatus derives the enrichment state from the summary fields.
func (s Story) SummaryStatus() SummaryStatus {
	switch len(s.Summary.Missing()) {
	case 0:
		return StatusSummarized
	case len(Languages()):
		return StatusPending
	default:
		return StatusPartial
	}
}

// NarrationText is the text spoken for a per-story audio in lang.
func (s Story) NarrationText(lang Lang) string {
	body := Spoken(s.Summary.Get(lang))
	if body == "" {
		body = s.Content
	}
	if body == "" || body == s.Title {
		return s.Title
	}
	return fmt.Sprintf("%s. %s", s.Title, body)
}

// Spoken turns a newline-separated bullet summary into sentences for narration.
func Spoken(summary string) string {
	var parts []string
	for _, line := range strings.Split(summary, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimRight(line, ".።")
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, ". ")
}

// FeedEntry is one parsed item returned by a feed source.
type FeedEntry struct {
	Title       string
	Link        string
	PublishedAt time.Time
	Content     string
	Snippet     string
}

// BestContent picks the snippet, the raw content, or the title, in that order.
func (e FeedEntry) BestContent() string {
	switch {
	case e.Snippet != "":
		return e.Snippet
	case e.Content != "":
		return e.Content
	default:
		return e.Title
	}
}

// Summary is the structured output of a summarization provider.
type Summary struct {
	Title    string   `json:"title"`
	Bullets  []string `json:"bullets"`
	Language Lang     `json:"language"`
}
