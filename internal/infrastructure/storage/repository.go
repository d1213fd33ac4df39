package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"EthioNews/internal/domain"
	"EthioNews/internal/ports"
)

const storyColumns = "id, title, content, topic, source_name, source_url, source_category, original_url, content_hash, " +
	"published_at, summary_en, summary_am, audio_url, created_at, updated_at"

// Repository persists stories and audio records in Postgres or SQLite.
type Repository struct {
	db  *sqlx.DB
	sb  sq.StatementBuilderType
	now func() time.Time
}

var (
	_ ports.StoryRepository = (*Repository)(nil)
	_ ports.AudioRepository = (*Repository)(nil)
)

// NewRepository wires an open database; driver selects the placeholder style.
func NewRepository(db *sqlx.DB, driver string) *Repository {
	var format sq.PlaceholderFormat = sq.Dollar
	if driver == DriverSQLite {
		format = sq.Question
	}
	return &Repository{
		db:  db,
		sb:  sq.StatementBuilder.PlaceholderFormat(format),
		now: func() time.Time { return time.Now().UTC() },
	}
}

type storyRow struct {
	ID             string         `db:"id"`
	Title          string         `db:"title"`
	Content        string         `db:"content"`
	Topic          string         `db:"topic"`
	SourceName     string         `db:"source_name"`
	SourceURL      string         `db:"source_url"`
	SourceCategory string         `db:"source_category"`
	OriginalURL    string         `db:"original_url"`
	ContentHash    string         `db:"content_hash"`
	PublishedAt    time.Time      `db:"published_at"`
	SummaryEN      string         `db:"summary_en"`
	SummaryAM      string         `db:"summary_am"`
	AudioURL       sql.NullString `db:"audio_url"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func (r storyRow) toDomain() domain.Story {
	return domain.Story{
		ID:      r.ID,
		Title:   r.Title,
		Content: r.Content,
		Topic:   r.Topic,
		Source: domain.Source{
			Name:     r.SourceName,
			FeedURL:  r.SourceURL,
			Category: domain.SourceCategory(r.SourceCategory),
		},
		OriginalURL: r.OriginalURL,
		ContentHash: r.ContentHash,
		PublishedAt: r.PublishedAt.UTC(),
		Summary:     domain.Summaries{EN: r.SummaryEN, AM: r.SummaryAM},
		AudioURL:    r.AudioURL.String,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

// Exists reports whether a story with the url or the content hash is stored.
func (r *Repository) Exists(ctx context.Context, originalURL, contentHash string) (bool, error) {
	query, args, err := r.sb.Select("1").From("stories").
		Where(sq.Or{sq.Eq{"original_url": originalURL}, sq.Eq{"content_hash": contentHash}}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	err = r.db.GetContext(ctx, &one, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query story exists: %w", err)
	}
	return true, nil
}

// Create inserts a new story, assigning its id and timestamps.
func (r *Repository) Create(ctx context.Context, story *domain.Story) error {
	now := r.now()
	id := uuid.NewString()
	published := story.PublishedAt
	if published.IsZero() {
		published = now
	}

	var audioURL any
	if story.AudioURL != "" {
		audioURL = story.AudioURL
	}

	query, args, err := r.sb.Insert("stories").
		Columns("id", "title", "content", "topic", "source_name", "source_url", "source_category",
			"original_url", "content_hash", "published_at", "summary_en", "summary_am", "audio_url",
			"created_at", "updated_at").
		Values(id, story.Title, story.Content, story.Topic, story.Source.Name, story.Source.FeedURL,
			string(story.Source.Category), story.OriginalURL, story.ContentHash, published.UTC(),
			story.Summary.EN, story.Summary.AM, audioURL, now, now).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert story: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert story: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert story rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrDuplicateStory
	}

	story.ID = id
	story.PublishedAt = published.UTC()
	story.CreatedAt = now
	story.UpdatedAt = now
	return nil
}

// Get loads one story by id.
func (r *Repository) Get(ctx context.Context, id string) (domain.Story, error) {
	query, args, err := r.sb.Select(storyColumns).From("stories").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Story{}, fmt.Errorf("build get story: %w", err)
	}

	var row storyRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Story{}, fmt.Errorf("story %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Story{}, fmt.Errorf("get story %s: %w", id, err)
	}
	return row.toDomain(), nil
}

// ListMissingSummary returns up to limit stories lacking a summary in either language, newest first.
func (r *Repository) ListMissingSummary(ctx context.Context, limit int) ([]domain.Story, error) {
	return r.selectStories(ctx, r.sb.Select(storyColumns).From("stories").
		Where(sq.Or{sq.Eq{"summary_en": ""}, sq.Eq{"summary_am": ""}}).
		OrderBy("published_at DESC").
		Limit(limitOf(limit)))
}

// SaveSummaries fills only the languages that are still empty in the store.
func (r *Repository) SaveSummaries(ctx context.Context, id string, summary domain.Summaries) error {
	query, args, err := r.sb.Update("stories").
		Set("summary_en", sq.Expr("CASE WHEN summary_en = '' THEN ? ELSE summary_en END", summary.EN)).
		Set("summary_am", sq.Expr("CASE WHEN summary_am = '' THEN ? ELSE summary_am END", summary.AM)).
		Set("updated_at", r.now()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update summaries: %w", err)
	}
	return r.execOne(ctx, id, query, args)
}

// SetAudioURL records the back-reference to a per-story narration.
func (r *Repository) SetAudioURL(ctx context.Context, id, audioURL string) error {
	query, args, err := r.sb.Update("stories").
		Set("audio_url", audioURL).
		Set("updated_at", r.now()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update audio url: %w", err)
	}
	return r.execOne(ctx, id, query, args)
}

// Feed returns stories summarized in q.Lang, newest first.
func (r *Repository) Feed(ctx context.Context, q ports.FeedQuery) ([]domain.Story, error) {
	builder := r.sb.Select(storyColumns).From("stories").
		Where(sq.NotEq{summaryColumn(q.Lang): ""})

	if q.Topic != "" {
		builder = builder.Where(likeExpr("topic", q.Topic))
	}
	if q.Source != "" {
		builder = builder.Where(likeExpr("source_name", q.Source))
	}
	if !q.Since.IsZero() {
		builder = builder.Where(sq.GtOrEq{"published_at": q.Since.UTC()})
	}

	return r.selectStories(ctx, builder.OrderBy("published_at DESC").Limit(limitOf(q.Limit)))
}

// Search matches q.Text case-insensitively against titles and both summaries.
func (r *Repository) Search(ctx context.Context, q ports.SearchQuery) ([]domain.Story, error) {
	builder := r.sb.Select(storyColumns).From("stories").
		Where(sq.Or{
			likeExpr("title", q.Text),
			likeExpr("summary_en", q.Text),
			likeExpr("summary_am", q.Text),
		}).
		OrderBy("published_at DESC").
		Limit(limitOf(q.Limit))

	return r.selectStories(ctx, builder)
}

// Ping checks store connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) selectStories(ctx context.Context, builder sq.SelectBuilder) ([]domain.Story, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build story query: %w", err)
	}

	var rows []storyRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select stories: %w", err)
	}

	stories := make([]domain.Story, 0, len(rows))
	for _, row := range rows {
		stories = append(stories, row.toDomain())
	}
	return stories, nil
}

func (r *Repository) execOne(ctx context.Context, id, query string, args []any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update story %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update story %s rows affected: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("story %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// defaultLimit applies when a caller passes no positive limit.
const defaultLimit = 20

func limitOf(n int) uint64 {
	if n <= 0 {
		return defaultLimit
	}
	return uint64(n)
}

func summaryColumn(lang domain.Lang) string {
	if lang == domain.LangAmharic {
		return "summary_am"
	}
	return "summary_en"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likeExpr is a portable case-insensitive substring match; column must be a trusted identifier.
func likeExpr(column, needle string) sq.Sqlizer {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(needle)) + "%"
	return sq.Expr("LOWER("+column+") LIKE ? ESCAPE '\\'", pattern)
}
