package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"EthioNews/internal/domain"
)

const audioColumns = "id, story_id, slot, lang, file_path, duration_sec, created_at"

type audioRow struct {
	ID          string         `db:"id"`
	StoryID     sql.NullString `db:"story_id"`
	Slot        sql.NullString `db:"slot"`
	Lang        string         `db:"lang"`
	FilePath    string         `db:"file_path"`
	DurationSec int            `db:"duration_sec"`
	CreatedAt   time.Time      `db:"created_at"`
}

func (r audioRow) toDomain() (domain.Audio, error) {
	audio := domain.Audio{
		ID:          r.ID,
		Lang:        domain.Lang(r.Lang),
		FilePath:    r.FilePath,
		DurationSec: r.DurationSec,
		CreatedAt:   r.CreatedAt.UTC(),
	}
	switch {
	case r.StoryID.Valid && !r.Slot.Valid:
		audio.Owner = domain.StoryOwner{StoryID: r.StoryID.String}
	case r.Slot.Valid && !r.StoryID.Valid:
		audio.Owner = domain.SlotOwner{Slot: domain.Slot(r.Slot.String)}
	default:
		return domain.Audio{}, fmt.Errorf("audio %s has an invalid owner", r.ID)
	}
	return audio, nil
}

func ownerColumns(owner domain.AudioOwner) (storyID, slot any) {
	switch o := owner.(type) {
	case domain.StoryOwner:
		return o.StoryID, nil
	case domain.SlotOwner:
		return nil, string(o.Slot)
	}
	return nil, nil
}

// CreateAudio inserts an immutable narration record, assigning id and creation time.
func (r *Repository) CreateAudio(ctx context.Context, audio *domain.Audio) error {
	if err := audio.Validate(); err != nil {
		return err
	}

	id := uuid.NewString()
	created := audio.CreatedAt
	if created.IsZero() {
		created = r.now()
	}
	storyID, slot := ownerColumns(audio.Owner)

	query, args, err := r.sb.Insert("audio").
		Columns("id", "story_id", "slot", "lang", "file_path", "duration_sec", "created_at").
		Values(id, storyID, slot, string(audio.Lang), audio.FilePath, audio.DurationSec, created.UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert audio: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert audio: %w", err)
	}

	audio.ID = id
	audio.CreatedAt = created.UTC()
	return nil
}

// GetAudio loads one audio record by id.
func (r *Repository) GetAudio(ctx context.Context, id string) (domain.Audio, error) {
	return r.getAudio(ctx, r.sb.Select(audioColumns).From("audio").Where(sq.Eq{"id": id}), "audio "+id)
}

// LatestAudio returns the newest record for owner and lang.
func (r *Repository) LatestAudio(ctx context.Context, owner domain.AudioOwner, lang domain.Lang) (domain.Audio, error) {
	builder := r.sb.Select(audioColumns).From("audio").Where(sq.Eq{"lang": string(lang)})
	switch o := owner.(type) {
	case domain.StoryOwner:
		builder = builder.Where(sq.Eq{"story_id": o.StoryID})
	case domain.SlotOwner:
		builder = builder.Where(sq.Eq{"slot": string(o.Slot)})
	default:
		return domain.Audio{}, fmt.Errorf("latest audio: missing owner")
	}
	builder = builder.OrderBy("created_at DESC").Limit(1)

	return r.getAudio(ctx, builder, fmt.Sprintf("audio for %s/%s", owner, lang))
}

func (r *Repository) getAudio(ctx context.Context, builder sq.SelectBuilder, what string) (domain.Audio, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return domain.Audio{}, fmt.Errorf("build audio query: %w", err)
	}

	var row audioRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Audio{}, fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Audio{}, fmt.Errorf("get %s: %w", what, err)
	}
	return row.toDomain()
}
