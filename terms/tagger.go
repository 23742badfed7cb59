package terms

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jdkato/prose/v2"
)

// Tagger assigns a Penn Treebank part-of-speech tag to each word.
// The returned slice has the same length as words.
type Tagger interface {
	Tag(words []string) []string
}

// ProseTagger tags words with the averaged perceptron model shipped with prose.
// The model is loaded on first use and shared by every call.
type ProseTagger struct {
	once  sync.Once
	model *prose.Model
	err   error
	mu    sync.Mutex
}

// NewProseTagger creates a tagger. Loading the model is deferred until the first Tag call.
func NewProseTagger() *ProseTagger {
	return &ProseTagger{}
}

func (t *ProseTagger) load() {
	doc, err := prose.NewDocument("init",
		prose.WithExtraction(false),
		prose.WithSegmentation(false),
	)
	if err != nil {
		t.err = fmt.Errorf("loading tagging model: %w", err)
		return
	}
	t.model = doc.Model
}

// Tag returns one tag per word. Words the model cannot tag get "NN".
func (t *ProseTagger) Tag(words []string) []string {
	tags := make([]string, len(words))
	for i := range tags {
		tags[i] = "NN"
	}
	if len(words) == 0 {
		return tags
	}

	t.once.Do(t.load)
	if t.err != nil {
		return tags
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Tagging the phrase as a whole gives the model context; fall back to per-word
	// tags when its tokenizer splits words differently than strings.Fields.
	if tokens := t.tokens(strings.Join(words, " ")); len(tokens) == len(words) {
		for i, tok := range tokens {
			tags[i] = tok.Tag
		}
		return tags
	}
	for i, w := range words {
		if tokens := t.tokens(w); len(tokens) > 0 {
			tags[i] = tokens[len(tokens)-1].Tag
		}
	}
	return tags
}

func (t *ProseTagger) tokens(text string) []prose.Token {
	doc, err := prose.NewDocument(text,
		prose.WithExtraction(false),
		prose.WithSegmentation(false),
		prose.UsingModel(t.model),
	)
	if err != nil {
		return nil
	}
	return doc.Tokens()
}
