package workspacefs

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nxnative/core/internal/globmatch"
	"github.com/nxnative/core/internal/projecttrie"
	"github.com/nxnative/core/internal/xhash"
)

// Context is the workspace's file index: a background worker performs the
// (possibly slow) initial scan while callers that need the result block on
// it, and every subsequent filesystem change is applied incrementally.
type Context struct {
	workspaceRoot string
	cacheDir      string

	mu        sync.Mutex
	cond      *sync.Cond
	files     []FileData
	ready     bool
	scanStart time.Time
	scanTook  time.Duration

	trieMu sync.RWMutex
	trie   *projecttrie.Trie
	projectFiles ProjectFileMap
}

// NewContext constructs a Context and kicks off the background scan of
// workspaceRoot immediately; cacheDir is where the file archive is read
// from and written to between runs.
func NewContext(workspaceRoot string, cacheDir string) *Context {
	c := &Context{
		workspaceRoot: workspaceRoot,
		cacheDir:      cacheDir,
	}
	c.cond = sync.NewCond(&c.mu)
	go c.gatherFiles()
	return c
}

func (c *Context) gatherFiles() {
	start := time.Now()
	files, err := gatherAndHashFiles(c.workspaceRoot, c.cacheDir)
	if err != nil {
		// A missing workspace root (or one that disappeared mid-scan)
		// yields an empty index rather than a permanently blocked caller.
		files = nil
	}

	c.mu.Lock()
	c.files = files
	c.ready = true
	c.scanTook = time.Since(start)
	c.mu.Unlock()
	c.cond.Broadcast()
}

// GetWorkspaceFiles blocks until the initial scan completes, then returns
// the current file list sorted by path.
func (c *Context) GetWorkspaceFiles() []FileData {
	c.mu.Lock()
	for !c.ready {
		c.cond.Wait()
	}
	files := c.files
	c.mu.Unlock()
	return files
}

// AllFileData is an alias of GetWorkspaceFiles.
func (c *Context) AllFileData() []FileData {
	return c.GetWorkspaceFiles()
}

// Glob returns the workspace-relative paths of every indexed file matching
// the given extended-glob patterns. exclude patterns, if any, are routed
// to the compiled set's exclusion side.
func (c *Context) Glob(patterns []string, exclude []string) ([]string, error) {
	gs, err := globmatch.CompileCached(withExcludes(patterns, exclude))
	if err != nil {
		return nil, err
	}
	var matches []string
	for _, fd := range c.GetWorkspaceFiles() {
		if gs.IsMatch(fd.File) {
			matches = append(matches, fd.File)
		}
	}
	return matches, nil
}

// HashFilesMatchingGlob returns a single combined, order-independent hash of
// every indexed file matching patterns. It returns the zero hash ("") if no
// file matches.
func (c *Context) HashFilesMatchingGlob(patterns []string, exclude []string) (string, error) {
	gs, err := globmatch.CompileCached(withExcludes(patterns, exclude))
	if err != nil {
		return "", err
	}
	var hashes []string
	for _, fd := range c.GetWorkspaceFiles() {
		if gs.IsMatch(fd.File) {
			hashes = append(hashes, fd.Hash)
		}
	}
	if len(hashes) == 0 {
		return "", nil
	}
	return xhash.CombineSorted(hashes), nil
}

// withExcludes folds an optional exclude list into the pattern list as
// negations, which the glob compiler routes to the exclusion side.
func withExcludes(patterns []string, exclude []string) []string {
	if len(exclude) == 0 {
		return patterns
	}
	combined := make([]string, 0, len(patterns)+len(exclude))
	combined = append(combined, patterns...)
	for _, e := range exclude {
		combined = append(combined, "!"+e)
	}
	return combined
}

// GetFilesInDirectory returns every indexed file whose path is contained in
// dir (a workspace-relative directory path), sorted by path.
func (c *Context) GetFilesInDirectory(dir string) []FileData {
	prefix := strings.TrimSuffix(filepath.ToSlash(dir), "/")
	if prefix != "" {
		prefix += "/"
	}
	var out []FileData
	for _, fd := range c.GetWorkspaceFiles() {
		if strings.HasPrefix(fd.File, prefix) {
			out = append(out, fd)
		}
	}
	return out
}

// IncrementalUpdate rehashes updatedFiles and removes deletedFilesAndDirs
// from the index. A deleted entry that doesn't match an exact file path is
// treated as a directory and every file beneath it is removed, mirroring
// the original context's mixed file-or-directory deletion handling.
func (c *Context) IncrementalUpdate(updatedFiles []string, deletedFilesAndDirs []string) []FileData {
	c.mu.Lock()
	for !c.ready {
		c.cond.Wait()
	}
	current := c.files
	c.mu.Unlock()

	byPath := make(map[string]FileData, len(current))
	for _, fd := range current {
		byPath[fd.File] = fd
	}

	for _, deleted := range deletedFilesAndDirs {
		deleted = filepath.ToSlash(deleted)
		if _, ok := byPath[deleted]; ok {
			delete(byPath, deleted)
			continue
		}
		prefix := strings.TrimSuffix(deleted, "/") + "/"
		for path := range byPath {
			if strings.HasPrefix(path, prefix) {
				delete(byPath, path)
			}
		}
	}

	hashed, _ := hashPaths(c.workspaceRoot, updatedFiles)
	for path, entry := range hashed {
		byPath[path] = FileData{File: path, Hash: entry.Hash}
	}

	merged := make([]FileData, 0, len(byPath))
	for _, fd := range byPath {
		merged = append(merged, fd)
	}
	sortFileData(merged)

	c.mu.Lock()
	c.files = merged
	c.mu.Unlock()

	writeArchive(c.cacheDir, fromFileData(merged, readArchive(c.cacheDir)))
	return merged
}

// fromFileData builds an archive from files, keeping a prior entry's mtime
// and size where its hash still matches so the next run can skip
// rehashing that file.
func fromFileData(files []FileData, prior fileArchive) fileArchive {
	archive := make(fileArchive, len(files))
	for _, fd := range files {
		if entry, ok := prior[fd.File]; ok && entry.Hash == fd.Hash {
			archive[fd.File] = entry
			continue
		}
		archive[fd.File] = archiveEntry{Hash: fd.Hash}
	}
	return archive
}

// SetProjectRoots (re)builds the project-root trie used by UpdateProjectFiles.
func (c *Context) SetProjectRoots(projectRoots map[string]string) {
	c.trieMu.Lock()
	defer c.trieMu.Unlock()
	c.trie = projecttrie.FromRoots(projectRoots)
}

// UpdateProjectFiles reassigns the current file set (after applying
// updatedFiles/deletedFilesAndDirs) into per-project buckets using the
// project-root trie, returning the updated per-project and global file sets
// plus the list of projects whose file set actually changed.
func (c *Context) UpdateProjectFiles(updatedFiles []string, deletedFilesAndDirs []string) UpdatedWorkspaceFiles {
	merged := c.IncrementalUpdate(updatedFiles, deletedFilesAndDirs)

	c.trieMu.RLock()
	trie := c.trie
	c.trieMu.RUnlock()
	if trie == nil {
		trie = projecttrie.New()
	}

	projectFiles := map[string][]FileData{}
	var global []FileData
	for _, fd := range merged {
		if project, ok := trie.FindProjectForPath(fd.File); ok {
			projectFiles[project] = append(projectFiles[project], fd)
			continue
		}
		global = append(global, fd)
	}
	for project := range projectFiles {
		sortFileData(projectFiles[project])
	}
	sortFileData(global)

	changed := changedProjects(c.swapProjectFileMap(ProjectFileMap{ProjectFiles: projectFiles, GlobalFiles: global}), projectFiles)

	return UpdatedWorkspaceFiles{
		ProjectFiles: projectFiles,
		GlobalFiles:  global,
		Changed:      changed,
	}
}

func (c *Context) swapProjectFileMap(next ProjectFileMap) ProjectFileMap {
	c.trieMu.Lock()
	prev := c.projectFiles
	c.projectFiles = next
	c.trieMu.Unlock()
	return prev
}

func changedProjects(prev ProjectFileMap, next map[string][]FileData) []string {
	var changed []string
	seen := map[string]bool{}
	for project, files := range next {
		seen[project] = true
		if !sameFileSet(prev.ProjectFiles[project], files) {
			changed = append(changed, project)
		}
	}
	for project := range prev.ProjectFiles {
		if !seen[project] {
			changed = append(changed, project)
		}
	}
	return changed
}

func sameFileSet(a []FileData, b []FileData) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Stats reports lightweight, ambient scan observability consumed by the TUI
// status line: the number of indexed files and how long the last scan took.
type Stats struct {
	FileCount    int
	LastScanTook time.Duration
}

func (c *Context) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{FileCount: len(c.files), LastScanTook: c.scanTook}
}

// Close flushes the current index to the archive. Safe to call even if the
// background scan never completed; in that case it is a no-op, since
// gatherAndHashFiles has already written (or will write) its own archive.
func (c *Context) Close() {
	c.mu.Lock()
	files := c.files
	ready := c.ready
	c.mu.Unlock()
	if ready {
		writeArchive(c.cacheDir, fromFileData(files, readArchive(c.cacheDir)))
	}
}
