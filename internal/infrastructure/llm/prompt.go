package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"EthioNews/internal/domain"
)

const systemPrompt = "You are a neutral news summarizer. Always output valid JSON."

// maxPromptContent bounds the article body sent to a provider.
const maxPromptContent = 6000

func buildPrompt(title, content string, lang domain.Lang) string {
	content = strings.TrimSpace(content)
	if content == "" {
		content = title
	}
	if runes := []rune(content); len(runes) > maxPromptContent {
		content = string(runes[:maxPromptContent])
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Summarize this news article neutrally in simple %s.\n", lang.Name())
	b.WriteString("Output 3-5 bullet points (max 120 words total).\n")
	b.WriteString("Include no opinion. If the text has insufficient details, say \"Insufficient details\".\n\n")
	fmt.Fprintf(&b, "Article Title: %s\n", title)
	fmt.Fprintf(&b, "Article Content: %s\n\n", content)
	fmt.Fprintf(&b, "Format your response as JSON: {\"title\": \"neutral headline\", \"bullets\": [\"point 1\", \"point 2\"], \"language\": \"%s\"}", lang)
	return b.String()
}

// parseSummary decodes a provider reply, tolerating code fences and prose around the JSON object.
func parseSummary(raw string, lang domain.Lang) (domain.Summary, error) {
	payload := extractJSON(raw)
	if payload == "" {
		return domain.Summary{}, fmt.Errorf("no json object in response: %w", domain.ErrNoSummary)
	}

	var out domain.Summary
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return domain.Summary{}, fmt.Errorf("decode summary: %w", err)
	}

	bullets := out.Bullets[:0]
	for _, bullet := range out.Bullets {
		bullet = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(bullet), "-•*"))
		if bullet != "" {
			bullets = append(bullets, bullet)
		}
	}
	if len(bullets) == 0 {
		return domain.Summary{}, domain.ErrNoSummary
	}
	out.Bullets = bullets
	out.Title = strings.TrimSpace(out.Title)
	out.Language = lang
	return out, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}
