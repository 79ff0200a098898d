package tuning

import (
	"io"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
	"github.com/YuminosukeSato/chocotune/sklearn/model_selection"
)

type scorePoints struct {
	plotter.XYs
	plotter.YErrors
}

// WriteScorePlot draws mean test score against rank, with one standard
// deviation error bars, and saves it to path through a temp file and rename.
// The image format follows the file extension.
func WriteScorePlot(path, title, scoring string, results *model_selection.CVResults) error {
	if results == nil || results.Len() == 0 {
		return scigoErrors.Wrap(scigoErrors.ErrEmptyData, "score plot needs at least one candidate")
	}
	var pts scorePoints
	for _, c := range results.ByRank() {
		mean, std := results.MeanTestScore[c], results.StdTestScore[c]
		if math.IsNaN(mean) || math.IsInf(mean, 0) {
			continue
		}
		if math.IsNaN(std) {
			std = 0
		}
		pts.XYs = append(pts.XYs, plotter.XY{X: float64(results.RankTestScore[c]), Y: mean})
		pts.YErrors = append(pts.YErrors, struct{ Low, High float64 }{std, std})
	}
	if len(pts.XYs) == 0 {
		return scigoErrors.Newf("no finite scores to plot for %s", title)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "rank"
	p.Y.Label.Text = "mean test " + scoring

	s, err := plotter.NewScatter(pts.XYs)
	if err != nil {
		return scigoErrors.Wrap(err, "score scatter")
	}
	s.Radius = vg.Points(2)
	bars, err := plotter.NewYErrorBars(pts)
	if err != nil {
		return scigoErrors.Wrap(err, "score error bars")
	}
	p.Add(s, bars, plotter.NewGrid())

	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	img, err := p.WriterTo(6*vg.Inch, 4*vg.Inch, format)
	if err != nil {
		return scigoErrors.Wrapf(err, "score plot format %q", format)
	}
	err = writeFileAtomic(path, func(w io.Writer) error {
		_, err := img.WriteTo(w)
		return err
	})
	if err != nil {
		return scigoErrors.Wrapf(err, "save score plot %s", path)
	}
	return nil
}
