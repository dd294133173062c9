package artifactcache

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/nxnative/core/internal/fs"
	"github.com/nxnative/core/internal/globby"
	"github.com/nxnative/core/internal/turbopath"
)

// recordTTL is the age, by accessed_at, at which RemoveOldCacheRecords
// evicts a cache entry.
const recordTTL = 7 * 24 * time.Hour

// LocalCache is the SQLite-indexed, directory-per-hash local artifact
// cache. Its *sql.DB is opened with a single connection so the single
// writer assumption is enforced structurally rather than merely
// documented.
type LocalCache struct {
	cacheDir string
	db       *sql.DB
}

// NewLocalCache opens (creating if necessary) the cache database and
// directory layout rooted at cacheDir.
func NewLocalCache(cacheDir string) (*LocalCache, error) {
	if err := os.MkdirAll(cacheDir, fs.DirPermissions); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(cacheDir, "terminalOutputs"), fs.DirPermissions); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", filepath.Join(cacheDir, "cache.db"))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS cache_outputs (
			hash TEXT PRIMARY KEY,
			code INTEGER,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			accessed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		db.Close()
		return nil, err
	}

	return &LocalCache{cacheDir: cacheDir, db: db}, nil
}

// Close closes the underlying database handle.
func (c *LocalCache) Close() error {
	return c.db.Close()
}

func (c *LocalCache) hashDir(hash string) string {
	return filepath.Join(c.cacheDir, hash)
}

func (c *LocalCache) terminalOutputPath(hash string) string {
	return filepath.Join(c.cacheDir, "terminalOutputs", hash)
}

// Get reads a cache entry by hash, bumping its accessed_at timestamp. It
// returns ok=false (not an error) if no row exists for hash.
func (c *LocalCache) Get(hash string) (CachedResult, bool, error) {
	var code int16
	row := c.db.QueryRow(`SELECT code FROM cache_outputs WHERE hash = ?`, hash)
	if err := row.Scan(&code); err != nil {
		if err == sql.ErrNoRows {
			return CachedResult{}, false, nil
		}
		return CachedResult{}, false, err
	}

	if _, err := c.db.Exec(`UPDATE cache_outputs SET accessed_at = CURRENT_TIMESTAMP WHERE hash = ?`, hash); err != nil {
		return CachedResult{}, false, err
	}

	terminalOutput := ""
	if data, err := os.ReadFile(c.terminalOutputPath(hash)); err == nil {
		terminalOutput = string(data)
	}

	return CachedResult{
		Code:           code,
		TerminalOutput: terminalOutput,
		OutputsPath:    c.hashDir(hash),
	}, true, nil
}

// Put removes any existing <hash>/ directory, recreates it, writes the
// terminal output, expands each output glob against the workspace, copies
// matching files/directories/symlinks into the hash directory preserving
// relative paths, then inserts the database row. The remove-then-recreate
// protocol is not atomic: concurrent readers must tolerate a transient
// "no such directory".
func (c *LocalCache) Put(workspaceRoot string, hash string, terminalOutput []byte, outputGlobs []string, code int16) error {
	hashDir := c.hashDir(hash)
	if err := os.RemoveAll(hashDir); err != nil {
		return err
	}
	if err := os.MkdirAll(hashDir, fs.DirPermissions); err != nil {
		return err
	}

	if err := os.WriteFile(c.terminalOutputPath(hash), terminalOutput, 0644); err != nil {
		return err
	}

	matches := globby.GlobFiles(workspaceRoot, outputGlobs, nil)
	for _, match := range matches {
		rel, err := filepath.Rel(workspaceRoot, match)
		if err != nil {
			continue
		}
		dest := filepath.Join(hashDir, rel)
		if err := copyPreservingSymlinks(match, dest); err != nil {
			return errors.Wrapf(err, "copying %s into cache", rel)
		}
	}

	_, err := c.db.Exec(`INSERT OR REPLACE INTO cache_outputs (hash, code) VALUES (?, ?)`, hash, code)
	return err
}

// ApplyRemoteCacheResult writes the terminal output and inserts the
// database row for a result whose outputs were already placed on disk by
// the remote retriever.
func (c *LocalCache) ApplyRemoteCacheResult(hash string, result CachedResult) error {
	if err := os.WriteFile(c.terminalOutputPath(hash), []byte(result.TerminalOutput), 0644); err != nil {
		return err
	}
	_, err := c.db.Exec(`INSERT OR REPLACE INTO cache_outputs (hash, code) VALUES (?, ?)`, hash, result.Code)
	return err
}

// CopyFilesFromCache restores files into the workspace: expands outputs
// under the hash directory, removes any existing files at those paths
// under the workspace, then recursively copies the hash directory into the
// workspace. Symlinks are recreated as symlinks.
func (c *LocalCache) CopyFilesFromCache(workspaceRoot string, result CachedResult, outputGlobs []string) error {
	hashDir := result.OutputsPath
	matches := globby.GlobFiles(hashDir, outputGlobs, nil)
	for _, match := range matches {
		rel, err := filepath.Rel(hashDir, match)
		if err != nil {
			continue
		}
		_ = os.RemoveAll(filepath.Join(workspaceRoot, rel))
	}
	if err := fs.RecursiveCopy(turbopath.AbsoluteSystemPathFromUpstream(hashDir), turbopath.AbsoluteSystemPathFromUpstream(workspaceRoot)); err != nil {
		return errors.Wrap(err, "restoring outputs from cache")
	}
	return nil
}

// RemoveOldCacheRecords deletes rows older than recordTTL (by
// accessed_at) and removes the corresponding <hash>/ and
// terminalOutputs/<hash> paths.
func (c *LocalCache) RemoveOldCacheRecords() error {
	cutoff := time.Now().Add(-recordTTL)
	rows, err := c.db.Query(`SELECT hash FROM cache_outputs WHERE accessed_at < ?`, cutoff)
	if err != nil {
		return err
	}
	var stale []string
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			rows.Close()
			return err
		}
		stale = append(stale, hash)
	}
	rows.Close()

	for _, hash := range stale {
		_ = os.RemoveAll(c.hashDir(hash))
		_ = os.Remove(c.terminalOutputPath(hash))
		if _, err := c.db.Exec(`DELETE FROM cache_outputs WHERE hash = ?`, hash); err != nil {
			return err
		}
	}
	return nil
}

// CheckCacheFsInSync returns false iff the database is empty and the
// filesystem still contains hash-named directories (heuristic: the
// directory name is all hex digits).
func (c *LocalCache) CheckCacheFsInSync() (bool, error) {
	var count int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM cache_outputs`).Scan(&count); err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}

	entries, err := os.ReadDir(c.cacheDir)
	if err != nil {
		return true, nil
	}
	for _, entry := range entries {
		if entry.IsDir() && isHexName(entry.Name()) {
			return false, nil
		}
	}
	return true, nil
}

func isHexName(name string) bool {
	if name == "" {
		return false
	}
	return strings.IndexFunc(name, func(r rune) bool {
		return !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f'))
	}) == -1
}

func copyPreservingSymlinks(src string, dest string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}

	if info.IsDir() {
		return fs.RecursiveCopy(turbopath.AbsoluteSystemPathFromUpstream(src), turbopath.AbsoluteSystemPathFromUpstream(dest))
	}

	if err := os.MkdirAll(filepath.Dir(dest), fs.DirPermissions); err != nil {
		return err
	}

	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(src)
		if err != nil {
			return err
		}
		_ = os.Remove(dest)
		return os.Symlink(target, dest)
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dest, data, info.Mode())
}
