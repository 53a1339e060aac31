package capability

import (
	"errors"
	"fmt"
	"path/filepath"

	"datapresso/internal/store"
)

// ErrInvalidReference is returned by Restore for a blob that does not describe a directory.
var ErrInvalidReference = errors.New("invalid directory reference")

const blobVersion = 1

// fileID is the platform identity of a directory. The zero value means unknown.
type fileID struct {
	Dev uint64
	Ino uint64
}

func (id fileID) known() bool {
	return id != fileID{}
}

// Directory is an opaque reference to a directory on the local filesystem.
//
// A Directory cannot be built from a string. It comes either from a Picker,
// which also grants the process access, or from Restore, which brings back a
// reference saved with MarshalBinary but carries no grant.
type Directory struct {
	path string
	name string
	id   fileID
}

// Name returns the leaf name of the directory.
func (d *Directory) Name() string {
	if d == nil {
		return ""
	}
	return d.name
}

// Path returns the absolute path for display. It is not a way to rebuild the reference.
func (d *Directory) Path() string {
	if d == nil {
		return ""
	}
	return d.path
}

func (d *Directory) String() string {
	if d == nil {
		return "<nil>"
	}
	return d.path
}

// blob is the persisted shape of a Directory.
type blob struct {
	Version int    `cbor:"v"`
	Path    string `cbor:"path"`
	Name    string `cbor:"name"`
	Dev     uint64 `cbor:"dev,omitempty"`
	Ino     uint64 `cbor:"ino,omitempty"`
}

// MarshalBinary encodes the reference as a CBOR blob suitable for a blob store.
func (d *Directory) MarshalBinary() ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("cannot encode a nil directory reference")
	}
	return store.Marshal(blob{
		Version: blobVersion,
		Path:    d.path,
		Name:    d.name,
		Dev:     d.id.Dev,
		Ino:     d.id.Ino,
	})
}

// Restore rebuilds a reference from a blob produced by MarshalBinary.
// The result carries no grant; access must be checked and requested again.
func Restore(data []byte) (*Directory, error) {
	var b blob
	if err := store.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidReference, err)
	}
	if b.Version != blobVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidReference, b.Version)
	}
	if !filepath.IsAbs(b.Path) || b.Name == "" {
		return nil, fmt.Errorf("%w: missing path or name", ErrInvalidReference)
	}
	return &Directory{
		path: b.Path,
		name: b.Name,
		id:   fileID{Dev: b.Dev, Ino: b.Ino},
	}, nil
}

// SameDirectory reports whether a and b refer to the same directory.
//
// When both references carry a platform identity it is compared directly.
// Otherwise the leaf names are compared, which can confuse two directories
// that share a name.
func SameDirectory(a, b *Directory) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.id.known() && b.id.known() {
		return a.id == b.id
	}
	return a.name == b.name
}

func newDirectory(path string) (*Directory, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	abs = filepath.Clean(abs)
	id, err := identityOf(abs)
	if err != nil {
		return nil, err
	}
	return &Directory{path: abs, name: filepath.Base(abs), id: id}, nil
}
