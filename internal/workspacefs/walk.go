package workspacefs

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
	ignore "github.com/sabhiram/go-gitignore"
)

// alwaysSkippedDirs are never descended into regardless of .gitignore
// contents.
var alwaysSkippedDirs = map[string]bool{
	".git": true,
}

// walkWorkspace returns every regular file and symlink under root, as
// workspace-relative unix-style paths, honoring the root .gitignore and
// .nxignore; nested ignore files are not consulted. Symlinks are not
// followed.
func walkWorkspace(root string) ([]string, error) {
	matcher := loadIgnoreMatchers(root)

	var files []string
	err := godirwalk.Walk(root, &godirwalk.Options{
		Unsorted: true,
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if osPathname == root {
				return nil
			}
			rel, err := filepath.Rel(root, osPathname)
			if err != nil {
				return nil
			}
			rel = filepath.ToSlash(rel)

			if de.IsDir() {
				base := filepath.Base(osPathname)
				if alwaysSkippedDirs[base] || matcher.matches(rel+"/") {
					return filepath.SkipDir
				}
				return nil
			}

			if matcher.matches(rel) {
				return nil
			}
			if de.IsRegular() || de.IsSymlink() {
				files = append(files, rel)
			}
			return nil
		},
		ErrorCallback: func(_ string, _ error) godirwalk.ErrorAction {
			return godirwalk.SkipNode
		},
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// ignoreMatchers combines the root .gitignore and .nxignore into a single
// matcher. Nested ignore files are intentionally not consulted; ignore
// rules are scoped to the workspace root.
type ignoreMatchers struct {
	gi *ignore.GitIgnore
}

func loadIgnoreMatchers(root string) *ignoreMatchers {
	var lines []string
	for _, name := range []string{".gitignore", ".nxignore"} {
		contents, err := readLines(filepath.Join(root, name))
		if err != nil {
			continue
		}
		lines = append(lines, contents...)
	}
	if len(lines) == 0 {
		return &ignoreMatchers{}
	}
	gi := ignore.CompileIgnoreLines(lines...)
	return &ignoreMatchers{gi: gi}
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return strings.Split(string(data), "\n"), nil
}

func (m *ignoreMatchers) matches(relPath string) bool {
	if m == nil || m.gi == nil {
		return false
	}
	return m.gi.MatchesPath(strings.TrimSuffix(relPath, "/"))
}
