package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is portable between Postgres and SQLite; statements run one at a time.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS stories (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		topic TEXT NOT NULL,
		source_name TEXT NOT NULL,
		source_url TEXT NOT NULL,
		source_category TEXT NOT NULL,
		original_url TEXT NOT NULL UNIQUE,
		content_hash TEXT NOT NULL UNIQUE,
		published_at TIMESTAMP NOT NULL,
		summary_en TEXT NOT NULL DEFAULT '',
		summary_am TEXT NOT NULL DEFAULT '',
		audio_url TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stories_published ON stories(published_at)`,
	`CREATE INDEX IF NOT EXISTS idx_stories_topic ON stories(topic)`,
	`CREATE TABLE IF NOT EXISTS audio (
		id TEXT PRIMARY KEY,
		story_id TEXT,
		slot TEXT,
		lang TEXT NOT NULL,
		file_path TEXT NOT NULL,
		duration_sec INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL,
		CHECK ((story_id IS NULL) <> (slot IS NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audio_story_lang ON audio(story_id, lang)`,
	`CREATE INDEX IF NOT EXISTS idx_audio_slot_lang ON audio(slot, lang)`,
	`CREATE INDEX IF NOT EXISTS idx_audio_created ON audio(created_at)`,
}

// Migrate creates the tables and indexes when missing.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
