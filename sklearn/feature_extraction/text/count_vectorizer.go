// Package text converts free-text columns into bag-of-words count features.
package text

import (
	"encoding/gob"
	"regexp"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/chocotune/core/frame"
	"github.com/YuminosukeSato/chocotune/core/model"
	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
)

func init() {
	gob.Register(&CountVectorizer{})
}

// tokenPattern matches runs of two or more word runes.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// CountVectorizer turns a single text column into term counts.
//
// Tokens are lowercased runs of at least two letters, digits or
// underscores. Stop words are removed after lowercasing. The vocabulary is
// sorted alphabetically; when MaxFeatures > 0 only the MaxFeatures most
// frequent terms across the corpus are kept, ties broken alphabetically.
// Missing cells are empty documents.
type CountVectorizer struct {
	State *model.StateManager

	MaxFeatures int
	Lowercase   bool
	StopWords   []string

	Column     string
	Terms      []string
	Vocabulary map[string]int
}

// Option configures a CountVectorizer.
type Option func(*CountVectorizer)

// WithMaxFeatures bounds the vocabulary size. 0 keeps every term.
func WithMaxFeatures(n int) Option {
	return func(v *CountVectorizer) { v.MaxFeatures = n }
}

// WithStopWords replaces the stop-word list. nil disables filtering.
func WithStopWords(words []string) Option {
	return func(v *CountVectorizer) { v.StopWords = words }
}

// NewCountVectorizer creates a vectorizer with the English stop-word list.
func NewCountVectorizer(opts ...Option) *CountVectorizer {
	v := &CountVectorizer{
		State:     model.NewStateManager(),
		Lowercase: true,
		StopWords: EnglishStopWords(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *CountVectorizer) analyze(doc string, caser cases.Caser, stop map[string]struct{}) []string {
	if v.Lowercase {
		doc = caser.String(doc)
	}
	tokens := tokenPattern.FindAllString(doc, -1)
	out := tokens[:0]
	for _, tok := range tokens {
		if _, skip := stop[tok]; skip {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func (v *CountVectorizer) documents(X *frame.Frame) (frame.Column, error) {
	if X.Width() != 1 {
		return frame.Column{}, scigoErrors.NewDimensionError("CountVectorizer", 1, X.Width(), 1)
	}
	return X.Column(X.Names()[0])
}

func (v *CountVectorizer) stopSet() map[string]struct{} {
	stop := make(map[string]struct{}, len(v.StopWords))
	for _, w := range v.StopWords {
		stop[w] = struct{}{}
	}
	return stop
}

// Fit learns the vocabulary of the single column of X.
func (v *CountVectorizer) Fit(X *frame.Frame, _ mat.Matrix) error {
	col, err := v.documents(X)
	if err != nil {
		return err
	}
	if v.MaxFeatures < 0 {
		return scigoErrors.NewValidationError("max_features", "must be >= 0", v.MaxFeatures)
	}
	if v.State == nil {
		v.State = model.NewStateManager()
	}
	caser := cases.Lower(language.Und)
	stop := v.stopSet()

	freq := make(map[string]int)
	for i, doc := range col.Values {
		if !col.Valid[i] {
			continue
		}
		for _, tok := range v.analyze(doc, caser, stop) {
			freq[tok]++
		}
	}
	if len(freq) == 0 {
		return scigoErrors.NewValueError("CountVectorizer.Fit", "empty vocabulary; perhaps the documents only contain stop words")
	}

	terms := make([]string, 0, len(freq))
	for t := range freq {
		terms = append(terms, t)
	}
	if v.MaxFeatures > 0 && v.MaxFeatures < len(terms) {
		sort.Slice(terms, func(a, b int) bool {
			if freq[terms[a]] != freq[terms[b]] {
				return freq[terms[a]] > freq[terms[b]]
			}
			return terms[a] < terms[b]
		})
		terms = terms[:v.MaxFeatures]
	}
	sort.Strings(terms)

	v.Column = col.Name
	v.Terms = terms
	v.Vocabulary = make(map[string]int, len(terms))
	for k, t := range terms {
		v.Vocabulary[t] = k
	}
	v.State.SetFitted(1, X.Len())
	return nil
}

// Transform counts vocabulary terms per row. Unknown terms are ignored.
func (v *CountVectorizer) Transform(X *frame.Frame) (*mat.Dense, error) {
	if err := v.State.RequireFitted("CountVectorizer", "Transform"); err != nil {
		return nil, err
	}
	col, err := v.documents(X)
	if err != nil {
		return nil, err
	}
	if len(col.Values) == 0 {
		return &mat.Dense{}, nil
	}
	caser := cases.Lower(language.Und)
	stop := v.stopSet()
	out := mat.NewDense(len(col.Values), len(v.Terms), nil)
	for i, doc := range col.Values {
		if !col.Valid[i] {
			continue
		}
		for _, tok := range v.analyze(doc, caser, stop) {
			if k, ok := v.Vocabulary[tok]; ok {
				out.Set(i, k, out.At(i, k)+1)
			}
		}
	}
	return out, nil
}

// VocabularySize returns the number of fitted terms.
func (v *CountVectorizer) VocabularySize() int {
	return len(v.Terms)
}

// FeatureNames returns the vocabulary in output order.
func (v *CountVectorizer) FeatureNames() []string {
	return append([]string(nil), v.Terms...)
}

// GetParams returns the hyperparameters.
func (v *CountVectorizer) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"max_features": v.MaxFeatures,
		"lowercase":    v.Lowercase,
	}
}

// SetParams sets max_features or lowercase.
func (v *CountVectorizer) SetParams(params map[string]interface{}) error {
	for k, val := range params {
		switch k {
		case "max_features":
			n, err := model.AsInt(k, val)
			if err != nil {
				return err
			}
			if n < 0 {
				return scigoErrors.NewValidationError(k, "must be >= 0", n)
			}
			v.MaxFeatures = n
		case "lowercase":
			b, ok := val.(bool)
			if !ok {
				return scigoErrors.NewValidationError(k, "must be a bool", val)
			}
			v.Lowercase = b
		default:
			return model.UnknownParam("CountVectorizer", k)
		}
	}
	return nil
}
