package model_selection

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"time"

	"gonum.org/v1/gonum/stat"
)

// CVResults is the per-candidate table of a search, in candidate order.
// Row i describes Params[i].
type CVResults struct {
	ParamKeys []string
	Params    []map[string]interface{}

	SplitTestScores  [][]float64 // [candidate][fold]
	SplitTrainScores [][]float64

	MeanTestScore  []float64
	StdTestScore   []float64
	MeanTrainScore []float64
	StdTrainScore  []float64
	RankTestScore  []int

	MeanFitTime   []float64 // seconds
	StdFitTime    []float64
	MeanScoreTime []float64
	StdScoreTime  []float64
}

// evaluation is one (candidate, fold) outcome.
type evaluation struct {
	test, train       float64
	fitTime, scoreDur time.Duration
}

func newCVResults(keys []string, params []map[string]interface{}, evals [][]evaluation) *CVResults {
	n := len(params)
	r := &CVResults{
		ParamKeys:        keys,
		Params:           params,
		SplitTestScores:  make([][]float64, n),
		SplitTrainScores: make([][]float64, n),
		MeanTestScore:    make([]float64, n),
		StdTestScore:     make([]float64, n),
		MeanTrainScore:   make([]float64, n),
		StdTrainScore:    make([]float64, n),
		MeanFitTime:      make([]float64, n),
		StdFitTime:       make([]float64, n),
		MeanScoreTime:    make([]float64, n),
		StdScoreTime:     make([]float64, n),
	}
	for c, folds := range evals {
		test := make([]float64, len(folds))
		train := make([]float64, len(folds))
		fit := make([]float64, len(folds))
		score := make([]float64, len(folds))
		for f, e := range folds {
			test[f], train[f] = e.test, e.train
			fit[f], score[f] = e.fitTime.Seconds(), e.scoreDur.Seconds()
		}
		r.SplitTestScores[c], r.SplitTrainScores[c] = test, train
		r.MeanTestScore[c], r.StdTestScore[c] = stat.PopMeanStdDev(test, nil)
		r.MeanTrainScore[c], r.StdTrainScore[c] = stat.PopMeanStdDev(train, nil)
		r.MeanFitTime[c], r.StdFitTime[c] = stat.PopMeanStdDev(fit, nil)
		r.MeanScoreTime[c], r.StdScoreTime[c] = stat.PopMeanStdDev(score, nil)
	}
	r.rank()
	return r
}

// rank assigns 1..n by descending mean test score. Ties keep candidate
// order and NaN scores rank last, so every rank is distinct.
func (r *CVResults) rank() {
	order := make([]int, len(r.MeanTestScore))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		sa, sb := r.MeanTestScore[order[a]], r.MeanTestScore[order[b]]
		if math.IsNaN(sb) {
			return !math.IsNaN(sa)
		}
		return sa > sb
	})
	r.RankTestScore = make([]int, len(order))
	for pos, c := range order {
		r.RankTestScore[c] = pos + 1
	}
}

// Len returns the number of candidates.
func (r *CVResults) Len() int { return len(r.Params) }

// NSplits returns the number of folds per candidate.
func (r *CVResults) NSplits() int {
	if len(r.SplitTestScores) == 0 {
		return 0
	}
	return len(r.SplitTestScores[0])
}

// Best returns the candidate index with rank 1, or -1 when empty.
func (r *CVResults) Best() int {
	for c, rank := range r.RankTestScore {
		if rank == 1 {
			return c
		}
	}
	return -1
}

// ByRank returns candidate indices ordered by rank.
func (r *CVResults) ByRank() []int {
	order := make([]int, len(r.RankTestScore))
	for c, rank := range r.RankTestScore {
		order[rank-1] = c
	}
	return order
}

// Header returns the CSV column names. Timings are left out so the file is
// reproducible byte for byte.
func (r *CVResults) Header() []string {
	h := []string{"rank_test_score", "mean_test_score", "std_test_score", "mean_train_score", "std_train_score"}
	for _, k := range r.ParamKeys {
		h = append(h, "param_"+k)
	}
	h = append(h, "params")
	for f := 0; f < r.NSplits(); f++ {
		h = append(h, fmt.Sprintf("split%d_test_score", f))
	}
	for f := 0; f < r.NSplits(); f++ {
		h = append(h, fmt.Sprintf("split%d_train_score", f))
	}
	return h
}

// Row returns the CSV cells of candidate c.
func (r *CVResults) Row(c int) ([]string, error) {
	row := []string{
		strconv.Itoa(r.RankTestScore[c]),
		formatFloat(r.MeanTestScore[c]),
		formatFloat(r.StdTestScore[c]),
		formatFloat(r.MeanTrainScore[c]),
		formatFloat(r.StdTrainScore[c]),
	}
	for _, k := range r.ParamKeys {
		row = append(row, formatValue(r.Params[c][k]))
	}
	params, err := json.Marshal(r.Params[c])
	if err != nil {
		return nil, err
	}
	row = append(row, string(params))
	for _, v := range r.SplitTestScores[c] {
		row = append(row, formatFloat(v))
	}
	for _, v := range r.SplitTrainScores[c] {
		row = append(row, formatFloat(v))
	}
	return row, nil
}

// WriteCSV writes the header and one row per candidate sorted by rank.
func (r *CVResults) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(r.Header()); err != nil {
		return err
	}
	for _, c := range r.ByRank() {
		row, err := r.Row(c)
		if err != nil {
			return err
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatValue(v interface{}) string {
	switch x := v.(type) {
	case float64:
		return formatFloat(x)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
