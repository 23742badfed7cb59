package terms

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_LoadGlossary_MissingFile(t *testing.T) {
	g, err := LoadGlossary(filepath.Join(t.TempDir(), "glossary.json"))
	require.NoError(t, err)
	assert.Equal(t, 0, g.Len())
	assert.False(t, g.Contains("anything"))
}

func Test_LoadGlossary_ParsesArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glossary.json")
	require.NoError(t, os.WriteFile(path, []byte(`["Quantum Mechanics", "tensor", " "]`), 0644))

	g, err := LoadGlossary(path)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len())
	assert.True(t, g.Contains("quantum mechanics"))
	assert.True(t, g.Contains("Tensor"))
}

func Test_LoadGlossary_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glossary.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not": "an array"}`), 0644))

	_, err := LoadGlossary(path)
	assert.Error(t, err)
}

func Test_Glossary_Match(t *testing.T) {
	g := NewGlossary([]string{"quantum mechanics", "mechanics", "qm", "group theory", "lie group theory"})

	got := g.Match("Introduction to Quantum Mechanics, QM & Lie Group Theory!")
	assert.Equal(t, []string{"group theory", "lie group theory", "mechanics", "quantum mechanics"}, got)
}

func Test_Glossary_Match_PunctuationSeparatesWords(t *testing.T) {
	g := NewGlossary([]string{"field theory", "electron", "quantum mechanics", "spin-orbit coupling"})

	tests := []struct {
		text string
		want []string
	}{
		{"quantum mechanics/field theory", []string{"field theory", "quantum mechanics"}},
		{"the electron's charge", []string{"electron"}},
		{"Electron,Quantum Mechanics", []string{"electron", "quantum mechanics"}},
		{"(field theory)", []string{"field theory"}},
		{"spin-orbit coupling in atoms", []string{"spin-orbit coupling"}},
		{"electrons", []string{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, g.Match(tt.text), "Match(%q)", tt.text)
	}
}

func Test_Glossary_Match_Nil(t *testing.T) {
	var g *Glossary
	assert.Empty(t, g.Match("quantum mechanics"))
}

func Test_NGrams(t *testing.T) {
	words := []string{"a", "b", "c"}
	assert.Equal(t, []string{"a", "b", "c"}, NGrams(words, 1))
	assert.Equal(t, []string{"a b", "b c"}, NGrams(words, 2))
	assert.Equal(t, []string{"a b c"}, NGrams(words, 3))
	assert.Nil(t, NGrams(words, 4))
}

func Test_SortedSet(t *testing.T) {
	got := SortedSet([]string{"b", "a", ""}, []string{"a", "c"})
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, []string{}, SortedSet())
}
