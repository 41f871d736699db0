// Package keyword detects distress phrases in call transcripts.
package keyword

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/harkveil/harkveil/internal/errors"
	"github.com/harkveil/harkveil/internal/logger"
)

// Lexicon is an ordered set of distinct lowercase phrases. It is immutable
// after construction and safe to share between goroutines.
type Lexicon struct {
	phrases []string
}

// ErrEmptyPhrase is returned when a lexicon contains a blank phrase.
var ErrEmptyPhrase = errors.NewStd("lexicon phrase is empty")

// NewLexicon lowercases phrases and drops duplicates, keeping the first
// occurrence. Spacing is kept as written so " gun" does not match "shotgun".
// Blank phrases are rejected.
func NewLexicon(phrases []string) (*Lexicon, error) {
	seen := make(map[string]struct{}, len(phrases))
	out := make([]string, 0, len(phrases))

	for i, p := range phrases {
		if strings.TrimSpace(p) == "" {
			return nil, fmt.Errorf("%w: entry %d", ErrEmptyPhrase, i)
		}
		p = strings.ToLower(p)
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	return &Lexicon{phrases: out}, nil
}

// Phrases returns a copy of the phrases in lexicon order.
func (l *Lexicon) Phrases() []string {
	out := make([]string, len(l.phrases))
	copy(out, l.phrases)
	return out
}

// Len returns the number of phrases.
func (l *Lexicon) Len() int {
	return len(l.phrases)
}

// lexiconFile is the on-disk layout. Groups are flattened in file order.
type lexiconFile struct {
	Phrases []string `yaml:"phrases"`
	Groups  []struct {
		Name    string   `yaml:"name"`
		Phrases []string `yaml:"phrases"`
	} `yaml:"groups"`
}

// LoadLexicon reads a YAML lexicon file. An empty path returns the default
// lexicon.
func LoadLexicon(path string) (*Lexicon, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(err).
			Component("keyword").
			Category(errors.CategoryFileIO).
			Context("lexicon_path", path).
			Build()
	}

	lex, err := ParseLexicon(data)
	if err != nil {
		return nil, errors.New(err).
			Component("keyword").
			Category(errors.CategoryFileParsing).
			Context("lexicon_path", path).
			Build()
	}

	GetLogger().Info("lexicon loaded",
		logger.String("path", path),
		logger.Int("phrases", lex.Len()))

	return lex, nil
}

// ParseLexicon decodes YAML lexicon content. Top-level phrases come first,
// followed by each group's phrases.
func ParseLexicon(data []byte) (*Lexicon, error) {
	var f lexiconFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon: %w", err)
	}

	phrases := append([]string{}, f.Phrases...)
	for _, g := range f.Groups {
		phrases = append(phrases, g.Phrases...)
	}
	if len(phrases) == 0 {
		return nil, errors.NewStd("lexicon has no phrases")
	}

	return NewLexicon(phrases)
}

// GetLogger returns the keyword module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("keyword")
}
