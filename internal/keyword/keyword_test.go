package keyword

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLexicon(t *testing.T) {
	t.Parallel()

	lex, err := NewLexicon([]string{"Help", "fire", "HELP", "  smoke "})
	require.NoError(t, err)
	assert.Equal(t, []string{"help", "fire", "  smoke "}, lex.Phrases())

	_, err = NewLexicon([]string{"help", "   "})
	require.ErrorIs(t, err, ErrEmptyPhrase)
}

func TestLexiconKeepsPhraseSpacing(t *testing.T) {
	t.Parallel()

	lex, err := NewLexicon([]string{" Gun"})
	require.NoError(t, err)

	assert.Empty(t, Detect("he has a shotgun", lex))
	assert.Equal(t, Match{" gun"}, Detect("he has a gun", lex))
}

func TestLexiconPhrasesIsCopy(t *testing.T) {
	t.Parallel()

	lex, err := NewLexicon([]string{"help"})
	require.NoError(t, err)

	p := lex.Phrases()
	p[0] = "changed"
	assert.Equal(t, []string{"help"}, lex.Phrases())
}

func TestDefaultLexicon(t *testing.T) {
	t.Parallel()

	lex := Default()
	assert.Equal(t, 110, lex.Len())

	phrases := lex.Phrases()
	assert.Equal(t, "help", phrases[0])
	assert.Equal(t, "crying for help", phrases[len(phrases)-1])
	assert.Contains(t, phrases, "heart attack")
	assert.Contains(t, phrases, "i'm in danger")
	assert.Same(t, lex, Default())
}

func TestDetect(t *testing.T) {
	t.Parallel()

	lex, err := NewLexicon([]string{"help", "fire", "heart attack", "gun"})
	require.NoError(t, err)

	tests := []struct {
		name string
		text string
		want Match
	}{
		{"empty text", "", Match{}},
		{"no match", "the weather is nice today", Match{}},
		{"single", "please help us", Match{"help"}},
		{"lexicon order not text order", "there is a fire and i need help", Match{"help", "fire"}},
		{"phrase", "i think he is having a heart attack", Match{"heart attack"}},
		{"substring inside word", "that was really helpful", Match{"help"}},
		{"repeated phrase counted once", "help help help", Match{"help"}},
		{"fired matches fire", "he was fired yesterday", Match{"fire"}},
		{"begun matches gun", "it has begun", Match{"gun"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Detect(tt.text, lex)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.want) > 0, got.IsEmergency())
		})
	}
}

func TestDetectIdempotent(t *testing.T) {
	t.Parallel()

	text := "there's smoke everywhere, the house on fire, call 911"
	first := Detect(text, Default())
	second := Detect(text, Default())
	assert.Equal(t, first, second)
	assert.Equal(t, Match{"call 911", "fire", "smoke", "house on fire"}, first)
}

func TestDetectNilLexicon(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Detect("help", nil))
}

func TestLoadLexicon(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "lexicon.yaml")
	content := "phrases: [\"Mayday\"]\ngroups:\n  - name: extra\n    phrases: [\"flare\", \"mayday\"]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	lex, err := LoadLexicon(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"mayday", "flare"}, lex.Phrases())

	def, err := LoadLexicon("")
	require.NoError(t, err)
	assert.Same(t, Default(), def)

	_, err = LoadLexicon(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("phrases: []\n"), 0o600))
	_, err = LoadLexicon(empty)
	require.Error(t, err)
}
