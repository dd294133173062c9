package fs

import (
	"os"
	"path/filepath"
)

// DirPermissions are the default permission bits we apply to directories.
const DirPermissions = os.ModeDir | 0775

// EnsureDir ensures that the directory of the given file has been created.
func EnsureDir(filename string) error {
	dir := filepath.Dir(filename)
	return os.MkdirAll(dir, DirPermissions)
}

// PathExists returns true if the given path exists, as a file or a directory.
func PathExists(filename string) bool {
	_, err := os.Lstat(filename)
	return err == nil
}

// FileExists returns true if the given path exists and is a file.
func FileExists(filename string) bool {
	info, err := os.Lstat(filename)
	return err == nil && !info.IsDir()
}

// IsDirectory checks if a given path is a directory.
func IsDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// DirContainsPath returns true if the path 'target' is contained within 'dir'.
func DirContainsPath(dir string, target string) (bool, error) {
	rel, err := filepath.Rel(dir, target)
	if err != nil {
		return false, err
	}
	return rel != ".." && !hasDotDotPrefix(rel), nil
}

func hasDotDotPrefix(p string) bool {
	sep := string(filepath.Separator)
	return len(p) >= 3 && p[:3] == ".."+sep
}
