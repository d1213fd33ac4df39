package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// AudioOwner identifies what an audio narration was produced for: either a
// single story or a daily-brief slot, never both.
type AudioOwner interface {
	audioOwner()
	String() string
}

// StoryOwner marks a per-story narration.
type StoryOwner struct {
	StoryID string
}

// SlotOwner marks a daily-brief narration.
type SlotOwner struct {
	Slot Slot
}

func (StoryOwner) audioOwner() {}
func (SlotOwner) audioOwner()  {}

func (o StoryOwner) String() string { return "story:" + o.StoryID }
func (o SlotOwner) String() string  { return "slot:" + string(o.Slot) }

// Audio is a synthesized narration artifact. Records are immutable once stored.
type Audio struct {
	ID          string
	Owner       AudioOwner
	Lang        Lang
	FilePath    string
	DurationSec int
	CreatedAt   time.Time
}

// StoryID returns the owning story id, or "" for a brief.
func (a Audio) StoryID() string {
	if owner, ok := a.Owner.(StoryOwner); ok {
		return owner.StoryID
	}
	return ""
}

// Slot returns the brief slot, or "" for a per-story narration.
func (a Audio) Slot() Slot {
	if owner, ok := a.Owner.(SlotOwner); ok {
		return owner.Slot
	}
	return ""
}

// URL is the public path the audio file is streamed from.
func (a Audio) URL() string {
	return "/api/audio/" + a.ID
}

// Validate checks the owner variant and language.
func (a Audio) Validate() error {
	switch owner := a.Owner.(type) {
	case StoryOwner:
		if owner.StoryID == "" {
			return fmt.Errorf("audio owner: empty story id")
		}
	case SlotOwner:
		if _, err := ParseSlot(string(owner.Slot)); err != nil {
			return fmt.Errorf("audio owner: %w", err)
		}
	default:
		return fmt.Errorf("audio owner: missing")
	}
	if _, err := ParseLang(string(a.Lang)); err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	return nil
}

type audioJSON struct {
	ID          string    `json:"id"`
	StoryID     *string   `json:"storyId"`
	Slot        *Slot     `json:"slot"`
	Lang        Lang      `json:"lang"`
	FilePath    string    `json:"filePath"`
	DurationSec int       `json:"durationSec"`
	CreatedAt   time.Time `json:"createdAt"`
	URL         string    `json:"url"`
}

// MarshalJSON flattens the owner into the storyId/slot pair clients expect.
func (a Audio) MarshalJSON() ([]byte, error) {
	out := audioJSON{
		ID:          a.ID,
		Lang:        a.Lang,
		FilePath:    a.FilePath,
		DurationSec: a.DurationSec,
		CreatedAt:   a.CreatedAt,
		URL:         a.URL(),
	}
	switch owner := a.Owner.(type) {
	case StoryOwner:
		id := owner.StoryID
		out.StoryID = &id
	case SlotOwner:
		slot := owner.Slot
		out.Slot = &slot
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds the owner variant, rejecting records with both or neither set.
func (a *Audio) UnmarshalJSON(data []byte) error {
	var in audioJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch {
	case in.StoryID != nil && in.Slot != nil:
		return fmt.Errorf("audio %s: both storyId and slot set", in.ID)
	case in.StoryID != nil:
		a.Owner = StoryOwner{StoryID: *in.StoryID}
	case in.Slot != nil:
		a.Owner = SlotOwner{Slot: *in.Slot}
	default:
		return fmt.Errorf("audio %s: neither storyId nor slot set", in.ID)
	}
	a.ID = in.ID
	a.Lang = in.Lang
	a.FilePath = in.FilePath
	a.DurationSec = in.DurationSec
	a.CreatedAt = in.CreatedAt
	return nil
}

// wordsPerSecond is the speaking rate assumed by EstimateDuration.
const wordsPerSecond = 2.5

// EstimateDuration approximates playback length from the narration's word count.
func EstimateDuration(text string) int {
	words := len(strings.Fields(text))
	return int(math.Ceil(float64(words) / wordsPerSecond))
}
