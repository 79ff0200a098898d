package compose

import (
	"encoding/gob"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/chocotune/core/frame"
	"github.com/YuminosukeSato/chocotune/core/model"
)

func init() {
	gob.Register(&Chain[mat.Matrix]{})
	gob.Register(&Chain[[][]string]{})
}

// Parser is the stateless first step of a Chain: it reads raw columns into
// the representation the encoder consumes.
type Parser[T any] interface {
	Parse(X *frame.Frame) (T, error)
}

// Encoder is the fitted second step of a Chain.
type Encoder[T any] interface {
	Fit(X T, y mat.Matrix) error
	Transform(X T) (*mat.Dense, error)
}

// Chain is a two-step sub-pipeline usable as a branch transformer, such as
// parsing "70%" strings and then standardizing them.
type Chain[T any] struct {
	Parser  Parser[T]
	Encoder Encoder[T]
}

// NewChain builds a Chain.
func NewChain[T any](p Parser[T], e Encoder[T]) *Chain[T] {
	return &Chain[T]{Parser: p, Encoder: e}
}

// Fit parses X and fits the encoder on the result.
func (c *Chain[T]) Fit(X *frame.Frame, y mat.Matrix) error {
	parsed, err := c.Parser.Parse(X)
	if err != nil {
		return err
	}
	return c.Encoder.Fit(parsed, y)
}

// Transform parses X and encodes the result.
func (c *Chain[T]) Transform(X *frame.Frame) (*mat.Dense, error) {
	parsed, err := c.Parser.Parse(X)
	if err != nil {
		return nil, err
	}
	return c.Encoder.Transform(parsed)
}

// FeatureNames forwards to the encoder when it names its outputs.
func (c *Chain[T]) FeatureNames() []string {
	if named, ok := c.Encoder.(interface{ FeatureNames() []string }); ok {
		return named.FeatureNames()
	}
	return nil
}

// GetParams forwards the encoder parameters.
func (c *Chain[T]) GetParams() map[string]interface{} {
	if g, ok := c.Encoder.(model.ParameterGetter); ok {
		return g.GetParams()
	}
	return map[string]interface{}{}
}

// SetParams forwards to the encoder.
func (c *Chain[T]) SetParams(params map[string]interface{}) error {
	if s, ok := c.Encoder.(model.ParameterSetter); ok {
		return s.SetParams(params)
	}
	for k := range params {
		return model.UnknownParam("Chain", k)
	}
	return nil
}
