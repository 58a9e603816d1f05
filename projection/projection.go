package projection

import (
	"strings"
	"unicode"

	"github.com/NextMind-AI/chatviewer-go/conversation"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StatusFilter is either a single status or the "todas" sentinel.
type StatusFilter string

const All StatusFilter = "todas"

// ParseFilter accepts "", "todas", "all" or any conversation status.
func ParseFilter(raw string) (StatusFilter, error) {
	switch raw {
	case "", string(All), "all":
		return All, nil
	}
	status, err := conversation.ParseStatus(raw)
	if err != nil {
		return "", err
	}
	return StatusFilter(status), nil
}

func (f StatusFilter) matches(status conversation.Status) bool {
	return f == All || f == "" || conversation.Status(f) == status
}

// Project returns the conversations visible for a search term and status
// filter, in input order. Contact names match case- and accent-insensitively;
// phone numbers match the raw term as a literal substring.
func Project(conversations []conversation.Conversation, searchTerm string, filter StatusFilter) []conversation.Conversation {
	term := Normalize(searchTerm)
	raw := strings.TrimSpace(searchTerm)

	out := make([]conversation.Conversation, 0, len(conversations))
	for _, c := range conversations {
		if !filter.matches(c.Status) {
			continue
		}
		if term != "" &&
			!strings.Contains(Normalize(c.ContactName), term) &&
			!strings.Contains(c.PhoneNumber, raw) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Normalize folds a string for name matching: accents are stripped, letters
// lower-cased and surrounding whitespace trimmed.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}
