package keyword

import (
	_ "embed"
	"sync"
)

//go:embed default_lexicon.yaml
var defaultLexiconYAML []byte

var defaultLexicon = sync.OnceValue(func() *Lexicon {
	lex, err := ParseLexicon(defaultLexiconYAML)
	if err != nil {
		panic("keyword: embedded default lexicon is invalid: " + err.Error())
	}
	return lex
})

// Default returns the built-in emergency lexicon.
func Default() *Lexicon {
	return defaultLexicon()
}

// DefaultYAML returns the embedded default lexicon file, for writing an
// editable copy.
func DefaultYAML() []byte {
	out := make([]byte, len(defaultLexiconYAML))
	copy(out, defaultLexiconYAML)
	return out
}
