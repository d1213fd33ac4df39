package domain

import (
	"fmt"
	"time"
)

// Lang is one of the two languages every story is summarized and narrated in.
type Lang string

const (
	LangEnglish Lang = "en"
	LangAmharic Lang = "am"
)

// Languages lists the supported languages in processing order.
func Languages() []Lang {
	return []Lang{LangEnglish, LangAmharic}
}

// ParseLang validates a language code.
func ParseLang(value string) (Lang, error) {
	switch Lang(value) {
	case LangEnglish, LangAmharic:
		return Lang(value), nil
	default:
		return "", fmt.Errorf("unsupported language %q", value)
	}
}

// Name returns the English name used in provider prompts.
func (l Lang) Name() string {
	if l == LangAmharic {
		return "Amharic"
	}
	return "English"
}

// Slot is a fixed daily window a brief is generated for.
type Slot string

const (
	SlotMorning Slot = "am"
	SlotEvening Slot = "pm"
)

// ParseSlot validates a slot code.
func ParseSlot(value string) (Slot, error) {
	switch Slot(value) {
	case SlotMorning, SlotEvening:
		return Slot(value), nil
	default:
		return "", fmt.Errorf("unsupported slot %q", value)
	}
}

// SlotAt returns the half of the day t falls into, in t's location.
func SlotAt(t time.Time) Slot {
	if t.Hour() < 12 {
		return SlotMorning
	}
	return SlotEvening
}
