package terms

import (
	"fmt"
	"strings"
	"unicode"
)

// Mode selects how a Classifier decides acceptance.
type Mode int

const (
	// ModeHeuristic runs the rule list only.
	ModeHeuristic Mode = iota
	// ModeGlossary accepts glossary members only.
	ModeGlossary
	// ModeHybrid accepts glossary members outright and runs the rules for everything else.
	ModeHybrid
)

// ParseMode converts a config value ("heuristic", "glossary", "hybrid") to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "heuristic":
		return ModeHeuristic, nil
	case "glossary":
		return ModeGlossary, nil
	case "hybrid":
		return ModeHybrid, nil
	}
	return ModeHeuristic, fmt.Errorf("unknown classifier mode %q", s)
}

// Candidate is an n-gram under evaluation. Tags are computed on first use.
type Candidate struct {
	Text   string
	Words  []string
	tagger Tagger
	tags   []string
}

// NewCandidate splits text into words. The tagger may be nil when no rule needs tags.
func NewCandidate(text string, tagger Tagger) *Candidate {
	return &Candidate{Text: text, Words: strings.Fields(text), tagger: tagger}
}

// Tags returns the part-of-speech tag of each word.
func (c *Candidate) Tags() []string {
	if c.tags == nil {
		if c.tagger == nil {
			c.tags = make([]string, len(c.Words))
			for i := range c.tags {
				c.tags[i] = "NN"
			}
		} else {
			c.tags = c.tagger.Tag(c.Words)
		}
	}
	return c.tags
}

// Rule is one acceptance check. A false Accept rejects the candidate.
type Rule struct {
	Name   string
	Accept func(c *Candidate) bool
}

// LengthRule rejects candidates shorter than min or longer than max characters.
func LengthRule(min, max int) Rule {
	return Rule{Name: "length", Accept: func(c *Candidate) bool {
		n := len(c.Text)
		return n >= min && n <= max
	}}
}

// HyphenRule rejects doubled hyphens and leading or trailing hyphens.
func HyphenRule() Rule {
	return Rule{Name: "hyphen", Accept: func(c *Candidate) bool {
		return !strings.Contains(c.Text, "--") &&
			!strings.HasPrefix(c.Text, "-") &&
			!strings.HasSuffix(c.Text, "-")
	}}
}

// AllNoiseRule rejects candidates made only of stop-words, academic noise words and numbers.
func AllNoiseRule() Rule {
	return Rule{Name: "all-noise", Accept: func(c *Candidate) bool {
		for _, w := range c.Words {
			if !IsStopWord(w) && !isAcademicNoise(w) && !isNumeric(w) {
				return true
			}
		}
		return false
	}}
}

// ContentWordRule requires at least one noun, adjective or gerund.
func ContentWordRule() Rule {
	return Rule{Name: "content-word", Accept: func(c *Candidate) bool {
		for _, tag := range c.Tags() {
			if strings.HasPrefix(tag, "NN") || strings.HasPrefix(tag, "JJ") || tag == "VBG" {
				return true
			}
		}
		return false
	}}
}

var trailingFunctionTags = toSet("IN", "DT", "CC", "TO", "PRP", "PRP$")

// TrailingFunctionRule rejects candidates ending in a preposition, determiner,
// conjunction or pronoun.
func TrailingFunctionRule() Rule {
	return Rule{Name: "trailing-function", Accept: func(c *Candidate) bool {
		tags := c.Tags()
		if len(tags) == 0 {
			return false
		}
		_, bad := trailingFunctionTags[tags[len(tags)-1]]
		return !bad
	}}
}

var leadingFunctionWords = toSet("and", "or", "the", "a", "an", "in", "on", "at", "to", "for", "by", "with")

// LeadingFunctionWordRule rejects candidates starting with a short closed-class word.
func LeadingFunctionWordRule() Rule {
	return Rule{Name: "leading-function", Accept: func(c *Candidate) bool {
		if len(c.Words) == 0 {
			return false
		}
		_, bad := leadingFunctionWords[strings.ToLower(c.Words[0])]
		return !bad
	}}
}

// DefaultRules returns the heuristic rule list in evaluation order. Cheap string
// checks run before the rules that need part-of-speech tags.
func DefaultRules() []Rule {
	return []Rule{
		LengthRule(3, 40),
		HyphenRule(),
		AllNoiseRule(),
		LeadingFunctionWordRule(),
		ContentWordRule(),
		TrailingFunctionRule(),
	}
}

// Classifier decides whether a candidate n-gram is a technical term.
type Classifier struct {
	mode     Mode
	glossary *Glossary
	rules    []Rule
	tagger   Tagger
}

// ClassifierOptions configures a Classifier. Nil Rules means DefaultRules.
type ClassifierOptions struct {
	Mode     Mode
	Glossary *Glossary
	Rules    []Rule
	Tagger   Tagger
}

// NewClassifier creates a classifier.
func NewClassifier(options ClassifierOptions) *Classifier {
	rules := options.Rules
	if rules == nil {
		rules = DefaultRules()
	}
	return &Classifier{
		mode:     options.Mode,
		glossary: options.Glossary,
		rules:    rules,
		tagger:   options.Tagger,
	}
}

// Glossary returns the glossary the classifier was built with (possibly empty).
func (c *Classifier) Glossary() *Glossary {
	return c.glossary
}

// Accept reports whether candidate should be kept.
func (c *Classifier) Accept(candidate string) bool {
	ok, _ := c.Evaluate(candidate)
	return ok
}

// Evaluate is Accept plus the name of the rule that rejected the candidate.
func (c *Classifier) Evaluate(candidate string) (bool, string) {
	switch c.mode {
	case ModeGlossary:
		if c.glossary.Contains(candidate) {
			return true, ""
		}
		return false, "glossary"
	case ModeHybrid:
		if c.glossary.Contains(candidate) {
			return true, ""
		}
	}

	cand := NewCandidate(candidate, c.tagger)
	for _, rule := range c.rules {
		if !rule.Accept(cand) {
			return false, rule.Name
		}
	}
	return true, ""
}

func isNumeric(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
