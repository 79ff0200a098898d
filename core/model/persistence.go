package model

import (
	"bytes"
	"encoding/gob"
	"io"
	"os"
	"path/filepath"

	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
)

// SaveModel はモデルをgob形式でファイルに保存する
//
// 同じディレクトリの一時ファイルに書き込んでからリネームするため、
// 失敗しても既存のファイルは壊れない。インターフェース型のフィールドを
// 持つモデルは、具象型を事前に gob.Register しておくこと。
//
// 使用例:
//
//	err := model.SaveModel(search, "models/tuned_ridge.gob")
func SaveModel(m interface{}, filename string) (err error) {
	dir := filepath.Dir(filename)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filename)+".*.tmp")
	if err != nil {
		return scigoErrors.Wrap(err, "failed to create temp file")
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = SaveModelToWriter(m, tmp); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return scigoErrors.Wrap(err, "failed to sync model file")
	}
	if err = tmp.Close(); err != nil {
		return scigoErrors.Wrap(err, "failed to close model file")
	}
	if err = os.Rename(tmp.Name(), filename); err != nil {
		return scigoErrors.Wrapf(err, "failed to move model into %s", filename)
	}
	return nil
}

// LoadModel はファイルからモデルを読み込む
//
// 使用例:
//
//	var search model_selection.RandomizedSearchCV
//	err := model.LoadModel(&search, "models/tuned_ridge.gob")
func LoadModel(m interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return scigoErrors.Wrap(err, "failed to open file")
	}
	defer file.Close()
	return LoadModelFromReader(m, file)
}

// SaveModelToWriter はモデルをio.Writerに保存する
func SaveModelToWriter(m interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(m); err != nil {
		return scigoErrors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadModelFromReader はio.Readerからモデルを読み込む
func LoadModelFromReader(m interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(m); err != nil {
		return scigoErrors.Wrap(err, "failed to decode model")
	}
	return nil
}

// Clone returns a deep copy of v through a gob round trip. Unfitted
// pipelines are cloned for every search candidate so that evaluations never
// share state.
func Clone[T any](v T) (T, error) {
	var out T
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&v); err != nil {
		return out, scigoErrors.Wrap(err, "clone: encode")
	}
	if err := gob.NewDecoder(&buf).Decode(&out); err != nil {
		return out, scigoErrors.Wrap(err, "clone: decode")
	}
	return out, nil
}
