// Package source holds the static list of feeds the ingestion pipeline polls.
package source

import (
	"fmt"
	"strings"

	"EthioNews/internal/domain"
)

// Registry is an ordered, read-only set of feed sources.
type Registry struct {
	sources []domain.Source
}

// NewRegistry validates the entries and keeps them in the given order.
func NewRegistry(sources []domain.Source) (*Registry, error) {
	r := &Registry{sources: make([]domain.Source, 0, len(sources))}
	seen := make(map[string]struct{}, len(sources))
	for i, src := range sources {
		src.Name = strings.TrimSpace(src.Name)
		src.FeedURL = strings.TrimSpace(src.FeedURL)
		if src.Name == "" {
			return nil, fmt.Errorf("source %d: name is empty", i)
		}
		if src.FeedURL == "" {
			return nil, fmt.Errorf("source %s: feed url is empty", src.Name)
		}
		if !src.Category.Valid() {
			return nil, fmt.Errorf("source %s: unknown category %q", src.Name, src.Category)
		}
		key := strings.ToLower(src.Name)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("source %s is registered twice", src.Name)
		}
		seen[key] = struct{}{}
		r.sources = append(r.sources, src)
	}
	return r, nil
}

// All returns a copy of the sources in registry order.
func (r *Registry) All() []domain.Source {
	out := make([]domain.Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// Len reports the number of sources.
func (r *Registry) Len() int {
	return len(r.sources)
}

// Defaults are the Ethiopian outlets polled when no sources are configured.
// EBC publishes no working feed, so it reads Fana's.
func Defaults() []domain.Source {
	return []domain.Source{
		{Name: "Fana", FeedURL: "https://www.fanabc.com/english/feed/", Category: domain.CategoryState},
		{Name: "EBC", FeedURL: "https://www.fanabc.com/english/feed/", Category: domain.CategoryState},
		{Name: "EBS", FeedURL: "https://ebstv.tv/feed/", Category: domain.CategoryPrivate},
		{Name: "ESAT", FeedURL: "https://ethsat.com/feed/", Category: domain.CategoryDiaspora},
		{Name: "Addis Standard", FeedURL: "https://addisstandard.com/feed/", Category: domain.CategoryPrivate},
		{Name: "Ethiopian Herald", FeedURL: "https://allafrica.com/tools/headlines/rdf/latest/latestec_et_all.xml", Category: domain.CategoryState},
	}
}
