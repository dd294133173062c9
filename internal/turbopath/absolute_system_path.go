// Package turbopath teaches the Go type system about absolute filesystem
// paths, so that path handling is enforced at compile time instead of by
// runtime convention. An AbsoluteSystemPath is "absolute, including volume
// root," using the host platform's separators.
package turbopath

import (
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// dirPermissions are the default permission bits we apply to directories.
const dirPermissions = os.ModeDir | 0775

// ensureDir ensures that the directory of the given file has been created.
func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	err := os.MkdirAll(dir, dirPermissions)
	if err != nil && fileExists(dir) {
		log.Printf("attempting to remove file %s; a subdirectory is required", dir)
		if err2 := os.Remove(dir); err2 == nil {
			err = os.MkdirAll(dir, dirPermissions)
		} else {
			return err
		}
	}
	return err
}

var nonRelativeSentinel = ".." + string(filepath.Separator)

// dirContainsPath returns true if the path 'target' is contained within 'dir'.
// Expects both paths to be absolute and does not verify that either path exists.
func dirContainsPath(dir string, target string) (bool, error) {
	rel, err := filepath.Rel(dir, target)
	if err != nil {
		return false, err
	}
	return rel != ".." && !strings.HasPrefix(rel, nonRelativeSentinel), nil
}

func fileExists(filename string) bool {
	info, err := os.Lstat(filename)
	return err == nil && !info.IsDir()
}

// AbsoluteSystemPath is an absolute path using the host platform's separators.
// It is always rooted (has a volume on Windows, starts with "/" elsewhere).
type AbsoluteSystemPath string

// AbsoluteSystemPathFromUpstream casts a string into an AbsoluteSystemPath without
// validation. Used at the boundary where a caller asserts the value is already absolute.
func AbsoluteSystemPathFromUpstream(path string) AbsoluteSystemPath {
	return AbsoluteSystemPath(path)
}

// CheckedToAbsoluteSystemPath verifies the input is an absolute path before returning it typed.
func CheckedToAbsoluteSystemPath(s string) (AbsoluteSystemPath, error) {
	if filepath.IsAbs(s) {
		return AbsoluteSystemPath(s), nil
	}
	return "", &pathError{kind: "absolute", path: s}
}

type pathError struct {
	kind string
	path string
}

func (e *pathError) Error() string {
	return "path is not " + e.kind + ": " + e.path
}

// ToString returns the string representation of this path.
func (p AbsoluteSystemPath) ToString() string { return string(p) }

// ToStringDuringMigration is an alias of ToString for call sites still threading
// raw strings through APIs that predate the typed path system.
func (p AbsoluteSystemPath) ToStringDuringMigration() string { return string(p) }

// Join appends path segments (joined with the system separator) to this path.
func (p AbsoluteSystemPath) Join(segments ...string) AbsoluteSystemPath {
	return AbsoluteSystemPath(filepath.Join(p.ToString(), filepath.Join(segments...)))
}

// UntypedJoin is an alias of Join for call sites passing raw strings.
func (p AbsoluteSystemPath) UntypedJoin(segments ...string) AbsoluteSystemPath {
	return p.Join(segments...)
}

// Dir returns the parent directory of this path.
func (p AbsoluteSystemPath) Dir() AbsoluteSystemPath {
	return AbsoluteSystemPath(filepath.Dir(p.ToString()))
}

// Base returns the final element of this path.
func (p AbsoluteSystemPath) Base() string {
	return filepath.Base(p.ToString())
}

// Ext returns the file extension of this path.
func (p AbsoluteSystemPath) Ext() string {
	return filepath.Ext(p.ToString())
}

// RelativePathString calculates the relative path from this path to other.
func (p AbsoluteSystemPath) RelativePathString(other string) (string, error) {
	return filepath.Rel(p.ToString(), other)
}

// MkdirAll implements os.MkdirAll for this path.
func (p AbsoluteSystemPath) MkdirAll(perm os.FileMode) error {
	return os.MkdirAll(p.ToString(), perm)
}

// EnsureDir ensures the parent directory of this path exists.
func (p AbsoluteSystemPath) EnsureDir() error {
	return ensureDir(p.ToString())
}

// Open implements os.Open for this path.
func (p AbsoluteSystemPath) Open() (*os.File, error) {
	return os.Open(p.ToString())
}

// OpenFile implements os.OpenFile for this path.
func (p AbsoluteSystemPath) OpenFile(flags int, mode os.FileMode) (*os.File, error) {
	return os.OpenFile(p.ToString(), flags, mode)
}

// Create implements os.Create for this path.
func (p AbsoluteSystemPath) Create() (*os.File, error) {
	return os.Create(p.ToString())
}

// Remove implements os.Remove for this path.
func (p AbsoluteSystemPath) Remove() error {
	return os.Remove(p.ToString())
}

// RemoveAll implements os.RemoveAll for this path.
func (p AbsoluteSystemPath) RemoveAll() error {
	return os.RemoveAll(p.ToString())
}

// Rename implements os.Rename for this path.
func (p AbsoluteSystemPath) Rename(dest AbsoluteSystemPath) error {
	return os.Rename(p.ToString(), dest.ToString())
}

// Symlink implements os.Symlink, creating a symlink at this path pointing to target.
func (p AbsoluteSystemPath) Symlink(target string) error {
	return os.Symlink(target, p.ToString())
}

// Readlink implements os.Readlink for this path.
func (p AbsoluteSystemPath) Readlink() (string, error) {
	return os.Readlink(p.ToString())
}

// Lstat implements os.Lstat for this path.
func (p AbsoluteSystemPath) Lstat() (os.FileInfo, error) {
	return os.Lstat(p.ToString())
}

// Stat implements os.Stat for this path.
func (p AbsoluteSystemPath) Stat() (os.FileInfo, error) {
	return os.Stat(p.ToString())
}

// FileExists returns true if this path exists and is not a directory.
func (p AbsoluteSystemPath) FileExists() bool {
	return fileExists(p.ToString())
}

// DirExists returns true if this path exists and is a directory.
func (p AbsoluteSystemPath) DirExists() bool {
	info, err := p.Lstat()
	return err == nil && info.IsDir()
}

// Exists returns true if this path exists in any form.
func (p AbsoluteSystemPath) Exists() bool {
	_, err := p.Lstat()
	return err == nil
}

// ReadFile reads the contents of this path.
func (p AbsoluteSystemPath) ReadFile() ([]byte, error) {
	return ioutil.ReadFile(p.ToString())
}

// WriteFile writes contents to this path.
func (p AbsoluteSystemPath) WriteFile(contents []byte, mode os.FileMode) error {
	return ioutil.WriteFile(p.ToString(), contents, mode)
}

// ContainsPath returns true if this path is a parent of other.
func (p AbsoluteSystemPath) ContainsPath(other AbsoluteSystemPath) (bool, error) {
	return dirContainsPath(p.ToString(), other.ToString())
}
