//go:build !unix

package capability

import (
	"fmt"
	"os"
)

// identityOf has no device/inode pair to offer here; references fall back to
// leaf-name comparison.
func identityOf(path string) (fileID, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileID{}, err
	}
	if !info.IsDir() {
		return fileID{}, fmt.Errorf("%s is not a directory", path)
	}
	return fileID{}, nil
}

func probe(*Directory, Mode) error {
	return ErrQueryUnsupported
}
