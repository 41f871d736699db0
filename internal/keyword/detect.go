package keyword

import "strings"

// Match is the ordered list of lexicon phrases found in a transcript.
type Match []string

// IsEmergency reports whether any phrase matched.
func (m Match) IsEmergency() bool {
	return len(m) > 0
}

// Detect returns every phrase of lex contained in text, in lexicon order.
// Matching is raw substring containment: "help" matches "helpful" and
// "fire" matches "fired". text is expected to be lowercase already.
func Detect(text string, lex *Lexicon) Match {
	if text == "" || lex == nil {
		return Match{}
	}

	found := Match{}
	for _, phrase := range lex.phrases {
		if strings.Contains(text, phrase) {
			found = append(found, phrase)
		}
	}
	return found
}
