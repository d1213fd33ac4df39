package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"EthioNews/internal/domain"
	"EthioNews/internal/ports"
)

// DefaultUserAgent mimics a desktop browser; several outlets reject bot agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// RSSSource implements FeedSource over RSS/Atom endpoints.
type RSSSource struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

var _ ports.FeedSource = (*RSSSource)(nil)

// NewRSSSource wires an HTTP client; a nil client gets a 20s timeout.
func NewRSSSource(client *http.Client, userAgent string, log *slog.Logger) *RSSSource {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = DefaultUserAgent
	}
	return &RSSSource{client: client, userAgent: userAgent, logger: log}
}

// Fetch downloads and parses the source's feed, returning entries in feed order.
func (s *RSSSource) Fetch(ctx context.Context, src domain.Source) ([]domain.FeedEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.FeedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s returned %s", src.Name, resp.Status)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	entries := make([]domain.FeedEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, toEntry(item))
	}

	s.debug("feed parsed", "source", src.Name, "items", len(entries))
	return entries, nil
}

func toEntry(item *gofeed.Item) domain.FeedEntry {
	entry := domain.FeedEntry{
		Title:   strings.TrimSpace(item.Title),
		Link:    strings.TrimSpace(item.Link),
		Content: strings.TrimSpace(item.Content),
	}
	if entry.Link == "" && strings.HasPrefix(item.GUID, "http") {
		entry.Link = strings.TrimSpace(item.GUID)
	}

	switch {
	case item.PublishedParsed != nil:
		entry.PublishedAt = item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		entry.PublishedAt = item.UpdatedParsed.UTC()
	}

	snippetSource := item.Description
	if strings.TrimSpace(snippetSource) == "" {
		snippetSource = item.Content
	}
	entry.Snippet = plainText(snippetSource)
	return entry
}

// plainText strips markup and collapses whitespace.
func plainText(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return ""
	}
	text := fragment
	if strings.ContainsAny(fragment, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
		if err == nil {
			doc.Find("script, style").Remove()
			text = doc.Text()
		}
	}
	return strings.Join(strings.Fields(text), " ")
}

func (s *RSSSource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
