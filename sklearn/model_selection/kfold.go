package model_selection

import (
	"math/rand/v2"

	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
)

// Split is one train/test partition of row indices.
type Split struct {
	Train []int
	Test  []int
}

// KFold partitions rows into NSplits consecutive folds. The first n % NSplits
// folds get one extra row. With Shuffle the rows are permuted first using
// RandomState.
type KFold struct {
	NSplits     int
	Shuffle     bool
	RandomState uint64
}

// NewKFold returns an unshuffled k-fold splitter.
func NewKFold(nSplits int) KFold {
	return KFold{NSplits: nSplits}
}

// Split returns the NSplits partitions of n rows.
func (k KFold) Split(n int) ([]Split, error) {
	if k.NSplits < 2 {
		return nil, scigoErrors.NewValidationError("n_splits", "must be at least 2", k.NSplits)
	}
	if n < k.NSplits {
		return nil, scigoErrors.NewValidationError("n_splits",
			"cannot be greater than the number of samples", k.NSplits)
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if k.Shuffle {
		rng := rand.New(rand.NewPCG(k.RandomState, k.RandomState))
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	splits := make([]Split, k.NSplits)
	start := 0
	for f := 0; f < k.NSplits; f++ {
		size := n / k.NSplits
		if f < n%k.NSplits {
			size++
		}
		end := start + size
		test := append([]int(nil), order[start:end]...)
		train := make([]int, 0, n-size)
		train = append(train, order[:start]...)
		train = append(train, order[end:]...)
		splits[f] = Split{Train: train, Test: test}
		start = end
	}
	return splits, nil
}
