//go:build unix

package capability

import (
	"fmt"
	"io/fs"

	"golang.org/x/sys/unix"
)

// identityOf stats path and returns its device and inode numbers.
func identityOf(path string) (fileID, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return fileID{}, &fs.PathError{Op: "stat", Path: path, Err: err}
	}
	if st.Mode&unix.S_IFMT != unix.S_IFDIR {
		return fileID{}, fmt.Errorf("%s is not a directory", path)
	}
	return fileID{Dev: uint64(st.Dev), Ino: uint64(st.Ino)}, nil
}

// probe asks the OS whether the process may use dir in the given mode.
// A nil error means the OS allows it. The directory must still be the one
// that was referenced: a different inode at the same path counts as vanished.
func probe(dir *Directory, mode Mode) error {
	current, err := identityOf(dir.path)
	if err != nil {
		return err
	}
	if dir.id.known() && current != dir.id {
		return fmt.Errorf("%s was replaced by another directory: %w", dir.path, fs.ErrNotExist)
	}

	bits := uint32(unix.R_OK | unix.X_OK)
	if mode == ModeReadWrite {
		bits |= unix.W_OK
	}
	if err := unix.Access(dir.path, bits); err != nil {
		return &fs.PathError{Op: "access", Path: dir.path, Err: err}
	}
	return nil
}
