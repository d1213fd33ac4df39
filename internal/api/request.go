package api

import (
	"time"

	"EthioNews/internal/domain"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type feedRequest struct {
	Lang   string    `form:"lang" binding:"omitempty,oneof=en am"`
	Topic  string    `form:"topic"`
	Source string    `form:"source"`
	Since  time.Time `form:"since" time_format:"2006-01-02T15:04:05Z07:00"`
	Limit  *int      `form:"limit" binding:"omitempty,min=1"`
}

type searchRequest struct {
	Query string `form:"q" binding:"required"`
	Lang  string `form:"lang" binding:"omitempty,oneof=en am"`
	Limit *int   `form:"limit" binding:"omitempty,min=1"`
}

type briefRequest struct {
	Slot string `form:"slot" binding:"omitempty,oneof=am pm"`
	Lang string `form:"lang" binding:"omitempty,oneof=en am"`
}

type storyAudioRequest struct {
	Lang string `json:"lang" binding:"omitempty,oneof=en am"`
}

func langOrDefault(value string) domain.Lang {
	if value == "" {
		return domain.LangEnglish
	}
	return domain.Lang(value)
}

func slotOrDefault(value string) domain.Slot {
	if value == "" {
		return domain.SlotMorning
	}
	return domain.Slot(value)
}

// filterValue treats "all" as no filter.
func filterValue(value string) string {
	if value == "all" {
		return ""
	}
	return value
}

func limitOrDefault(limit *int) int {
	switch {
	case limit == nil:
		return defaultLimit
	case *limit > maxLimit:
		return maxLimit
	default:
		return *limit
	}
}
