package catalog

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/aitools-hub/catalog-cli/internal/model"
)

// ErrWriteFailure is returned when the catalog could not be replaced. The
// previous file content is left untouched.
var ErrWriteFailure = eris.New("catalog write failed")

// Encode renders the catalog as indented JSON without HTML escaping.
func Encode(c model.Catalog) ([]byte, error) {
	if c == nil {
		c = model.Catalog{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return nil, eris.Wrap(err, "catalog: encode")
	}
	return buf.Bytes(), nil
}

// WriteAtomic replaces path with the encoded catalog. The data is written to
// a temp file in the same directory, synced and renamed over the target, so
// readers see either the old or the new file and never a partial one.
func WriteAtomic(fs afero.Fs, path string, c model.Catalog) error {
	data, err := Encode(c)
	if err != nil {
		return eris.Wrapf(ErrWriteFailure, "catalog: %s: %v", path, err)
	}

	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := afero.TempFile(fs, dir, "."+base+".*.tmp")
	if err != nil {
		return eris.Wrapf(ErrWriteFailure, "catalog: create temp file in %s: %v", dir, err)
	}
	tmpName := tmp.Name()

	fail := func(step string, cause error) error {
		_ = tmp.Close()
		if rmErr := fs.Remove(tmpName); rmErr != nil && !os.IsNotExist(rmErr) {
			zap.L().Warn("catalog: remove temp file", zap.String("path", tmpName), zap.Error(rmErr))
		}
		return eris.Wrapf(ErrWriteFailure, "catalog: %s %s: %v", step, path, cause)
	}

	if _, err := tmp.Write(data); err != nil {
		return fail("write", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("sync", err)
	}
	if err := tmp.Close(); err != nil {
		return fail("close", err)
	}

	if info, err := fs.Stat(path); err == nil {
		if err := fs.Chmod(tmpName, info.Mode().Perm()); err != nil {
			return fail("chmod", err)
		}
	}

	if err := fs.Rename(tmpName, path); err != nil {
		return fail("rename", err)
	}

	zap.L().Info("catalog: written",
		zap.String("path", path),
		zap.Int("records", len(c)),
		zap.Int("bytes", len(data)),
	)
	return nil
}
