// Package weights resolves trained-model identifiers to weight blobs. The
// local directory store is the source of truth; an optional remote store
// backfills missing blobs from object storage, and a caching layer keeps
// resolved blobs in memory until the backing file changes.
package weights

import (
	"context"
	"os"
	"path/filepath"

	"github.com/molforge/qmdelta/pkg/errors"
)

// ---------------------------------------------------------------------------
// Store interface
// ---------------------------------------------------------------------------

// Store resolves a model identifier to its serialized weights.
type Store interface {
	Resolve(ctx context.Context, id string) ([]byte, error)
}

// ---------------------------------------------------------------------------
// Local directory store
// ---------------------------------------------------------------------------

// LocalStore maps identifiers to files in a flat directory, one blob per
// model named <id>.json.
type LocalStore struct {
	dir string
}

// NewLocalStore returns a store over dir.
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

// Path returns the file a given identifier resolves from.
func (s *LocalStore) Path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Resolve reads the identifier's weight file. A missing file maps to
// CodeUnknownModel so callers can distinguish it from read failures.
func (s *LocalStore) Resolve(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeTimeout, "weight resolution cancelled")
	}
	blob, err := os.ReadFile(s.Path(id))
	if os.IsNotExist(err) {
		return nil, errors.Newf(errors.CodeUnknownModel, "no weights for model %q", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeIO, "reading weights for "+id)
	}
	return blob, nil
}
