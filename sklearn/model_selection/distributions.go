package model_selection

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
)

// Distribution is a hyperparameter prior the search draws candidates from.
type Distribution interface {
	// Rvs draws one value using src.
	Rvs(src rand.Source) interface{}
	String() string
}

// RandInt draws integers uniformly from [Low, High).
type RandInt struct {
	Low, High int
}

// Rvs returns an int in [Low, High).
func (d RandInt) Rvs(src rand.Source) interface{} {
	u := distuv.Uniform{Min: float64(d.Low), Max: float64(d.High), Src: src}
	return int(scigoErrors.ClipValue(math.Floor(u.Rand()), float64(d.Low), float64(d.High-1)))
}

func (d RandInt) String() string { return fmt.Sprintf("randint(%d, %d)", d.Low, d.High) }

// Uniform draws floats uniformly from [Loc, Loc+Scale], as scipy's uniform.
type Uniform struct {
	Loc, Scale float64
}

// Rvs returns a float64.
func (d Uniform) Rvs(src rand.Source) interface{} {
	return distuv.Uniform{Min: d.Loc, Max: d.Loc + d.Scale, Src: src}.Rand()
}

func (d Uniform) String() string { return fmt.Sprintf("uniform(%g, %g)", d.Loc, d.Loc+d.Scale) }

// LogUniform draws floats whose logarithm is uniform on [log Low, log High].
type LogUniform struct {
	Low, High float64
}

// Rvs returns a float64.
func (d LogUniform) Rvs(src rand.Source) interface{} {
	u := distuv.Uniform{Min: math.Log(d.Low), Max: math.Log(d.High), Src: src}
	return math.Exp(u.Rand())
}

func (d LogUniform) String() string { return fmt.Sprintf("loguniform(%g, %g)", d.Low, d.High) }

// Choice picks one of Values with equal probability.
type Choice struct {
	Values []interface{}
}

// Rvs returns one of Values.
func (d Choice) Rvs(src rand.Source) interface{} {
	return d.Values[rand.New(src).IntN(len(d.Values))]
}

func (d Choice) String() string { return fmt.Sprintf("choice%v", d.Values) }

// ParamDistributions maps a parameter path ("step__branch__param") to its
// distribution.
type ParamDistributions map[string]Distribution

// Keys returns the parameter paths in sorted order.
func (p ParamDistributions) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MergeDistributions returns the union of spaces. A key present in more than
// one space takes the value from the last one.
func MergeDistributions(spaces ...ParamDistributions) ParamDistributions {
	out := make(ParamDistributions)
	for _, s := range spaces {
		for k, d := range s {
			out[k] = d
		}
	}
	return out
}

// validate rejects empty spaces and degenerate distributions.
func (p ParamDistributions) validate() error {
	if len(p) == 0 {
		return scigoErrors.Newf("empty parameter space")
	}
	for _, k := range p.Keys() {
		switch d := p[k].(type) {
		case RandInt:
			if d.High <= d.Low {
				return scigoErrors.Newf("%s: %v has an empty range", k, d)
			}
		case LogUniform:
			if d.Low <= 0 || d.High < d.Low {
				return scigoErrors.Newf("%s: %v needs 0 < low <= high", k, d)
			}
		case Uniform:
			if d.Scale < 0 {
				return scigoErrors.Newf("%s: %v has negative scale", k, d)
			}
		case Choice:
			if len(d.Values) == 0 {
				return scigoErrors.Newf("%s: no choices", k)
			}
		case nil:
			return scigoErrors.Newf("%s: nil distribution", k)
		}
	}
	return nil
}

// ParameterSampler draws NIter candidate settings from a space. Keys are
// visited in sorted order so a seed fixes the sequence. A space made only of
// Choice entries is enumerated as a grid and sampled without replacement,
// capped at the grid size.
type ParameterSampler struct {
	Space       ParamDistributions
	NIter       int
	RandomState uint64
}

// Sample returns the candidates.
func (s ParameterSampler) Sample() ([]map[string]interface{}, error) {
	if err := s.Space.validate(); err != nil {
		return nil, err
	}
	src := rand.NewPCG(s.RandomState, s.RandomState)
	keys := s.Space.Keys()

	if grid, ok := s.grid(keys); ok {
		n := min(s.NIter, len(grid))
		perm := rand.New(src).Perm(len(grid))
		out := make([]map[string]interface{}, n)
		for i := range out {
			out[i] = grid[perm[i]]
		}
		return out, nil
	}

	out := make([]map[string]interface{}, s.NIter)
	for i := range out {
		cand := make(map[string]interface{}, len(keys))
		for _, k := range keys {
			cand[k] = s.Space[k].Rvs(src)
		}
		out[i] = cand
	}
	return out, nil
}

func (s ParameterSampler) grid(keys []string) ([]map[string]interface{}, bool) {
	grid := []map[string]interface{}{{}}
	for _, k := range keys {
		c, ok := s.Space[k].(Choice)
		if !ok {
			return nil, false
		}
		next := make([]map[string]interface{}, 0, len(grid)*len(c.Values))
		for _, g := range grid {
			for _, v := range c.Values {
				cand := make(map[string]interface{}, len(g)+1)
				for gk, gv := range g {
					cand[gk] = gv
				}
				cand[k] = v
				next = append(next, cand)
			}
		}
		grid = next
	}
	return grid, true
}
