package tuning

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/chocotune/core/model"
	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
	"github.com/YuminosukeSato/chocotune/pkg/log"
	"github.com/YuminosukeSato/chocotune/sklearn/model_selection"
)

// ArtifactWriter places search artifacts on disk. Every file is written to
// a temporary sibling and renamed, so a failed run never leaves a
// truncated artifact behind.
type ArtifactWriter struct {
	logger log.Logger
}

// NewArtifactWriter returns a writer that logs through logger, or through
// the "tuning.artifact" logger when nil.
func NewArtifactWriter(logger log.Logger) *ArtifactWriter {
	if logger == nil {
		logger = log.GetLoggerWithName("tuning.artifact")
	}
	return &ArtifactWriter{logger: logger}
}

// EnsureDir creates dir and its parents. An existing directory is success;
// an existing non-directory is a precondition failure.
func (w *ArtifactWriter) EnsureDir(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case err == nil && info.IsDir():
		w.logger.Debug("directory exists", log.PathKey, dir)
		return nil
	case err == nil:
		return scigoErrors.NewPreconditionError("EnsureDir", dir+" exists and is not a directory")
	case !scigoErrors.Is(err, fs.ErrNotExist):
		return scigoErrors.Wrapf(err, "stat %s", dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return scigoErrors.Wrapf(err, "create %s", dir)
	}
	w.logger.Info("created directory", log.PathKey, dir)
	return nil
}

// DumpSearch gob-encodes the fitted search to path.
func (w *ArtifactWriter) DumpSearch(path string, search *model_selection.RandomizedSearchCV) error {
	if err := model.SaveModel(search, path); err != nil {
		return scigoErrors.Wrapf(err, "dump search to %s", path)
	}
	w.logger.Info("saved search", log.PathKey, path)
	return nil
}

// WriteCVResults writes the results table as CSV, sorted by rank.
func (w *ArtifactWriter) WriteCVResults(path string, results *model_selection.CVResults) error {
	if err := writeFileAtomic(path, results.WriteCSV); err != nil {
		return scigoErrors.Wrapf(err, "write cv results to %s", path)
	}
	w.logger.Info("saved cv results", log.PathKey, path, log.CandidatesKey, results.Len())
	return nil
}

// LoadArtifact decodes a search written by DumpSearch.
func LoadArtifact(path string) (*model_selection.RandomizedSearchCV, error) {
	var search model_selection.RandomizedSearchCV
	if err := model.LoadModel(&search, path); err != nil {
		return nil, scigoErrors.Wrapf(err, "load artifact %s", path)
	}
	return &search, nil
}

func writeFileAtomic(path string, write func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
