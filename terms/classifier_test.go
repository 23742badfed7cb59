package terms

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapTagger tags known words from a fixed table and everything else as NN.
type mapTagger struct {
	tags  map[string]string
	calls int
}

func (m *mapTagger) Tag(words []string) []string {
	m.calls++
	out := make([]string, len(words))
	for i, w := range words {
		if tag, ok := m.tags[strings.ToLower(w)]; ok {
			out[i] = tag
		} else {
			out[i] = "NN"
		}
	}
	return out
}

func newTestTagger() *mapTagger {
	return &mapTagger{tags: map[string]string{
		"quantum": "JJ", "field": "NN", "of": "IN", "the": "DT", "and": "CC",
		"quickly": "RB", "run": "VB", "processing": "VBG", "signal": "NN",
		"it": "PRP", "towards": "IN", "rapidly": "RB", "ran": "VBD",
	}}
}

func Test_Classifier_Accept_Rejects(t *testing.T) {
	c := NewClassifier(ClassifierOptions{Tagger: newTestTagger()})

	tests := []struct {
		name      string
		candidate string
		rule      string
	}{
		{"single stop-word", "the", "all-noise"},
		{"stop-word pair", "in the", "all-noise"},
		{"bad hyphens", "--bad-", "hyphen"},
		{"leading hyphen", "-signal", "hyphen"},
		{"too short", "ab", "length"},
		{"too long", strings.Repeat("x", 41), "length"},
		{"academic noise only", "chapter introduction", "all-noise"},
		{"numbers only", "12 345", "all-noise"},
		{"leading function word", "for quantum field", "leading-function"},
		{"no content word", "rapidly ran", "content-word"},
		{"trailing preposition", "signal towards", "trailing-function"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, rule := c.Evaluate(tt.candidate)
			assert.False(t, ok, "expected %q to be rejected", tt.candidate)
			assert.Equal(t, tt.rule, rule)
		})
	}
}

func Test_Classifier_Accept_NounPhrases(t *testing.T) {
	c := NewClassifier(ClassifierOptions{Tagger: newTestTagger()})

	for _, candidate := range []string{"quantum field", "signal processing", "quantum", "field of quantum signal"} {
		ok, rule := c.Evaluate(candidate)
		assert.True(t, ok, "expected %q to be accepted, rejected by %s", candidate, rule)
	}
}

func Test_Classifier_Accept_TagsOnlyWhenNeeded(t *testing.T) {
	tagger := newTestTagger()
	c := NewClassifier(ClassifierOptions{Tagger: tagger})

	assert.False(t, c.Accept("ab"))
	assert.False(t, c.Accept("in the"))
	assert.Equal(t, 0, tagger.calls, "string rules should reject before tagging")

	assert.True(t, c.Accept("quantum field"))
	assert.Equal(t, 1, tagger.calls, "tags should be computed once per candidate")
}

func Test_Classifier_GlossaryMode(t *testing.T) {
	glossary := NewGlossary([]string{"Hilbert Space", "eigenvalue"})
	c := NewClassifier(ClassifierOptions{Mode: ModeGlossary, Glossary: glossary, Tagger: newTestTagger()})

	assert.True(t, c.Accept("hilbert space"))
	assert.True(t, c.Accept("eigenvalue"))
	assert.False(t, c.Accept("quantum field"), "glossary mode must not fall through to heuristics")
}

func Test_Classifier_GlossaryMode_EmptyGlossaryRejectsAll(t *testing.T) {
	c := NewClassifier(ClassifierOptions{Mode: ModeGlossary})

	assert.False(t, c.Accept("eigenvalue"))
	assert.False(t, c.Accept("quantum field"))
}

func Test_Classifier_HybridMode(t *testing.T) {
	glossary := NewGlossary([]string{"of"})
	c := NewClassifier(ClassifierOptions{Mode: ModeHybrid, Glossary: glossary, Tagger: newTestTagger()})

	assert.True(t, c.Accept("of"), "glossary members bypass rules")
	assert.True(t, c.Accept("quantum field"))
	assert.False(t, c.Accept("in the"))
}

func Test_ParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeHeuristic, m)

	m, err = ParseMode("Hybrid")
	require.NoError(t, err)
	assert.Equal(t, ModeHybrid, m)

	_, err = ParseMode("magic")
	assert.Error(t, err)
}

func Test_IsStopWord(t *testing.T) {
	assert.True(t, IsStopWord("the"))
	assert.True(t, IsStopWord("The"))
	assert.True(t, IsStopWord("edition"))
	assert.True(t, IsStopWord("bookfi"))
	assert.False(t, IsStopWord("quantum"))
}

func Test_ProseTagger_Tag(t *testing.T) {
	tagger := NewProseTagger()

	tags := tagger.Tag([]string{"quantum", "field"})
	require.Len(t, tags, 2)
	assert.Regexp(t, `^(NN|JJ)`, tags[1])

	assert.Empty(t, tagger.Tag(nil))
}
