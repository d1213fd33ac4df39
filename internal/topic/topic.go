// Package topic assigns a single topic label to a story by keyword matching.
package topic

import "strings"

// Default is returned when no keyword matches.
const Default = "national"

type rule struct {
	topic    string
	keywords []string
}

// rules are evaluated in order; the first topic with any keyword hit wins.
var rules = []rule{
	{"economy", []string{"economy", "finance", "business", "trade", "investment", "market", "economic", "bank", "budget"}},
	{"agriculture", []string{"agriculture", "farm", "crop", "irrigation", "livestock", "wheat", "coffee", "fertilizer"}},
	{"health", []string{"health", "medical", "hospital", "vaccine", "disease", "pandemic", "covid", "doctor", "patient"}},
	{"politics", []string{"politics", "government", "parliament", "election", "diplomat", "policy", "minister", "security", "peace"}},
	{"education", []string{"education", "school", "university", "student", "learning", "tuition", "scholarship", "teacher"}},
	{"sports", []string{"sports", "football", "athlete", "stadium", "olympic", "match", "tournament", "club", "league"}},
}

// Topics lists every label Classify can return, default last.
func Topics() []string {
	out := make([]string, 0, len(rules)+1)
	for _, r := range rules {
		out = append(out, r.topic)
	}
	return append(out, Default)
}

// Classify maps a story's title and content to one topic.
func Classify(title, content string) string {
	text := strings.ToLower(title + " " + content)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				return r.topic
			}
		}
	}
	return Default
}
