package store

import (
	"path/filepath"
	"testing"
)

// MustTempStore returns a Store backed by a temporary file. The Store is
// closed when the test finishes.
func MustTempStore(t testing.TB) DBStore {
	st, err := NewStore(filepath.Join(t.TempDir(), "db"))
	if err != nil {
		panic(err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}
