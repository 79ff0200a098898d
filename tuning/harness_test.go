package tuning_test

import (
	"bytes"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/YuminosukeSato/chocotune/chocolate"
	"github.com/YuminosukeSato/chocotune/core/frame"
	"github.com/YuminosukeSato/chocotune/families"
	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
	"github.com/YuminosukeSato/chocotune/pkg/log"
	"github.com/YuminosukeSato/chocotune/tuning"
)

var samplePath = filepath.Join("..", "chocolate", "testdata", "chocolate_sample.csv")

func quietLogger() log.Logger {
	l, _ := log.NewTestLogger(log.LevelWarn)
	return l
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return records
}

func TestTuneAndDumpEndToEnd(t *testing.T) {
	root := t.TempDir()
	modelDir := filepath.Join(root, "models", "tuned")
	cvDir := filepath.Join(root, "results")
	m := tuning.NewSearchMetrics()

	h := tuning.NewHarness(families.NewRidge(),
		tuning.WithSearchIter(4),
		tuning.WithNJobs(2),
		tuning.WithScorePlot(true),
		tuning.WithMetrics(m),
		tuning.WithLogger(quietLogger()),
	)
	res, err := h.TuneAndDump(samplePath, modelDir, cvDir)
	if err != nil {
		t.Fatal(err)
	}
	if res.TunedPath != filepath.Join(modelDir, "tuned_ridge.gob") {
		t.Errorf("tuned path = %s", res.TunedPath)
	}
	if res.CVPath != filepath.Join(cvDir, "cv_results_ridge.csv") {
		t.Errorf("cv path = %s", res.CVPath)
	}
	if res.VocabularySize != 20 {
		t.Errorf("vocabulary = %d, want 20", res.VocabularySize)
	}
	if res.RunID == "" {
		t.Error("empty run id")
	}
	for _, p := range []string{res.TunedPath, res.CVPath, res.PlotPath} {
		if info, err := os.Stat(p); err != nil || info.Size() == 0 {
			t.Errorf("%s not written: %v", p, err)
		}
	}

	records := readCSV(t, res.CVPath)
	if len(records) != 5 {
		t.Fatalf("csv rows = %d, want header + 4", len(records))
	}
	if records[0][0] != "rank_test_score" || records[0][1] != "mean_test_score" {
		t.Errorf("header = %v", records[0])
	}
	prev := math.Inf(1)
	for i, row := range records[1:] {
		if row[0] != strconv.Itoa(i+1) {
			t.Errorf("row %d rank = %s", i, row[0])
		}
		mean, err := strconv.ParseFloat(row[1], 64)
		if err != nil || math.IsNaN(mean) {
			t.Errorf("row %d mean_test_score = %q", i, row[1])
			continue
		}
		if mean > prev {
			t.Errorf("row %d mean %v above previous %v", i, mean, prev)
		}
		prev = mean
	}

	loaded, err := tuning.LoadArtifact(res.TunedPath)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(loaded.BestParams, res.Search.BestParams) {
		t.Errorf("best params = %v, want %v", loaded.BestParams, res.Search.BestParams)
	}
	f, err := frame.ReadCSVFile(samplePath)
	if err != nil {
		t.Fatal(err)
	}
	X := f.Drop(chocolate.Target)
	want, err := res.Search.Predict(X)
	if err != nil {
		t.Fatal(err)
	}
	got, err := loaded.BestEstimator.Predict(X)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < want.Len(); i++ {
		if math.Abs(got.AtVec(i)-want.AtVec(i)) > 1e-9 {
			t.Fatalf("prediction %d = %v, want %v", i, got.AtVec(i), want.AtVec(i))
		}
	}
}

func TestTuneAndDumpReproducible(t *testing.T) {
	run := func(jobs int) ([]byte, map[string]interface{}) {
		root := t.TempDir()
		h := tuning.NewHarness(families.NewDecisionTree(),
			tuning.WithSearchIter(3),
			tuning.WithNJobs(jobs),
			tuning.WithLogger(quietLogger()),
		)
		res, err := h.TuneAndDump(samplePath, root, root)
		if err != nil {
			t.Fatal(err)
		}
		raw, err := os.ReadFile(res.CVPath)
		if err != nil {
			t.Fatal(err)
		}
		return raw, res.Search.BestParams
	}
	csv1, best1 := run(1)
	csv2, best2 := run(4)
	if !bytes.Equal(csv1, csv2) {
		t.Errorf("cv results differ between runs:\n%s\n---\n%s", csv1, csv2)
	}
	if !reflect.DeepEqual(best1, best2) {
		t.Errorf("best params differ: %v vs %v", best1, best2)
	}
}

func rewriteSample(t *testing.T, edit func(lines []string) []string) string {
	t.Helper()
	raw, err := os.ReadFile(samplePath)
	if err != nil {
		t.Fatal(err)
	}
	// the fixture is CRLF; edits work on bare lines
	content := strings.ReplaceAll(string(raw), "\r\n", "\n")
	lines := edit(strings.Split(strings.TrimRight(content, "\n"), "\n"))
	path := filepath.Join(t.TempDir(), "train.csv")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTuneAndDumpPreconditions(t *testing.T) {
	tests := []struct {
		name  string
		want  string
		input func(t *testing.T) string
	}{
		{"missing file", "training file not found", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.csv") }},
		{"input is a directory", "is a directory", func(t *testing.T) string { return t.TempDir() }},
		{"missing target", `target column "rating" not found`, func(t *testing.T) string {
			return rewriteSample(t, func(lines []string) []string {
				lines[0] = strings.Replace(lines[0], ",rating", ",score", 1)
				return lines
			})
		}},
		{"non-numeric target", `target column "rating" is not numeric`, func(t *testing.T) string {
			return rewriteSample(t, func(lines []string) []string {
				if !strings.HasSuffix(lines[1], ",3.50") {
					t.Fatalf("unexpected first row %q", lines[1])
				}
				lines[1] = strings.TrimSuffix(lines[1], ",3.50") + ",high"
				return lines
			})
		}},
		{"missing feature column", "feature columns not found: cocoa_percent", func(t *testing.T) string {
			return rewriteSample(t, func(lines []string) []string {
				lines[0] = strings.Replace(lines[0], "cocoa_percent", "cocoa", 1)
				return lines
			})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "out")
			h := tuning.NewHarness(families.NewRidge(), tuning.WithSearchIter(1), tuning.WithLogger(quietLogger()))
			_, err := h.TuneAndDump(tt.input(t), out, out)
			var pre *scigoErrors.PreconditionError
			if !scigoErrors.As(err, &pre) {
				t.Fatalf("err = %v, want PreconditionError", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
			if h.Pipeline() != nil {
				t.Error("nothing should be fitted after a precondition failure")
			}
			if _, err := os.Stat(out); !os.IsNotExist(err) {
				t.Error("no output directory should be created")
			}
		})
	}
}

func TestTuneAndDumpExistingDirectories(t *testing.T) {
	dir := t.TempDir()
	h := tuning.NewHarness(families.NewRidge(),
		tuning.WithSearchIter(1),
		tuning.WithCV(2),
		tuning.WithTunedFileName("ridge.gob"),
		tuning.WithCVFileName("ridge.csv"),
		tuning.WithLogger(quietLogger()),
	)
	for i := 0; i < 2; i++ {
		res, err := h.TuneAndDump(samplePath, dir, dir)
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if res.TunedPath != filepath.Join(dir, "ridge.gob") || res.CVPath != filepath.Join(dir, "ridge.csv") {
			t.Errorf("paths = %s, %s", res.TunedPath, res.CVPath)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("directory holds %d entries, want the two artifacts", len(entries))
	}
}

func TestTuneAndDumpMetricsTextfile(t *testing.T) {
	dir := t.TempDir()
	prom := filepath.Join(dir, "chocotune.prom")
	h := tuning.NewHarness(families.NewKNN(),
		tuning.WithSearchIter(2),
		tuning.WithMetricsTextfile(prom),
		tuning.WithLogger(quietLogger()),
	)
	if _, err := h.TuneAndDump(samplePath, dir, dir); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(prom)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`chocotune_evaluations_total{family="knn"} 10`,
		`chocotune_candidates{family="knn"} 2`,
		`chocotune_runs_total{family="knn",status="ok"} 1`,
	} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("textfile lacks %q:\n%s", want, raw)
		}
	}
}

func TestTuneAndDumpPlotFailureKeepsArtifacts(t *testing.T) {
	root := t.TempDir()
	cvDir := filepath.Join(root, "cv")
	// a non-empty directory where the plot should go makes the final rename fail
	blocked := filepath.Join(cvDir, "cv_results_ridge.png")
	if err := os.MkdirAll(blocked, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(blocked, "keep"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	logger, buffer := log.NewTestLogger(log.LevelWarn)
	h := tuning.NewHarness(families.NewRidge(),
		tuning.WithSearchIter(2),
		tuning.WithScorePlot(true),
		tuning.WithLogger(logger),
	)
	res, err := h.TuneAndDump(samplePath, filepath.Join(root, "models"), cvDir)
	if err != nil {
		t.Fatalf("a failed plot must not fail the run: %v", err)
	}
	if res.PlotPath != "" {
		t.Errorf("PlotPath = %q, want empty", res.PlotPath)
	}
	for _, path := range []string{res.TunedPath, res.CVPath} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("artifact %s missing: %v", path, err)
		}
	}
	if !logger.ContainsMessage("score plot failed") {
		t.Errorf("expected a plot warning, got %s", buffer.String())
	}
	entries, err := os.ReadDir(cvDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("cv dir holds %d entries, want the csv and the blocking directory", len(entries))
	}
}
