package workspacefs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/nxnative/core/internal/xhash"
)

// archiveFileName is the on-disk name of the workspace's file archive,
// matching the original nx_files.nxt name so operators familiar with the
// original tool recognize the artifact.
const archiveFileName = "nx_files.nxt"

// archiveEntry is one record of the persisted file archive: the content
// hash plus enough filesystem metadata to decide, on the next run, whether
// the file needs rehashing at all.
type archiveEntry struct {
	Hash    string `json:"hash"`
	ModTime int64  `json:"modTime"`
	Size    int64  `json:"size"`
}

// fileArchive is the full persisted archive: workspace-relative path to
// archiveEntry. It round-trips exactly through readArchive/writeArchive.
type fileArchive map[string]archiveEntry

func archivePath(cacheDir string) string {
	return filepath.Join(cacheDir, archiveFileName)
}

// readArchive loads the archive from cacheDir. A missing or unparseable
// archive is treated as absent rather than an error, so the caller falls
// back to a full rehash.
func readArchive(cacheDir string) fileArchive {
	data, err := os.ReadFile(archivePath(cacheDir))
	if err != nil {
		return nil
	}
	var archive fileArchive
	if err := json.Unmarshal(data, &archive); err != nil {
		return nil
	}
	return archive
}

// writeArchive persists the archive to cacheDir. Failures are non-fatal:
// the next run simply performs a full rehash.
func writeArchive(cacheDir string, archive fileArchive) {
	data, err := json.Marshal(archive)
	if err != nil {
		return
	}
	_ = os.MkdirAll(cacheDir, 0775)
	_ = os.WriteFile(archivePath(cacheDir), data, 0644)
}

// gatherAndHashFiles performs either a selective or full hash of every file
// under root, using a prior archive (if any) to skip files whose mtime has
// not changed since it was recorded, and writes the resulting archive back
// to cacheDir before returning the sorted FileData list.
func gatherAndHashFiles(root string, cacheDir string) ([]FileData, error) {
	paths, err := walkWorkspace(root)
	if err != nil {
		return nil, err
	}

	prior := readArchive(cacheDir)
	next := make(fileArchive, len(paths))

	var toHash []string
	for _, rel := range paths {
		info, err := os.Lstat(filepath.Join(root, rel))
		if err != nil {
			continue
		}
		modTime := info.ModTime().UnixNano()
		if prior != nil {
			if entry, ok := prior[rel]; ok && entry.ModTime == modTime && entry.Size == info.Size() {
				next[rel] = entry
				continue
			}
		}
		toHash = append(toHash, rel)
	}

	hashed, err := hashPaths(root, toHash)
	if err != nil {
		return nil, err
	}
	for rel, entry := range hashed {
		next[rel] = entry
	}

	writeArchive(cacheDir, next)
	return toFileData(next), nil
}

// hashPaths hashes the given workspace-relative paths, fanning out across
// available parallelism once there are enough files to make it worthwhile.
// Unreadable files are silently dropped, matching the original's
// filter_map-and-continue behavior: a file that disappeared between the
// directory scan and the hash pass is not an error.
func hashPaths(root string, relPaths []string) (fileArchive, error) {
	result := make(fileArchive, len(relPaths))
	if len(relPaths) == 0 {
		return result, nil
	}

	workers := runtime.GOMAXPROCS(0) / 3
	if workers < 2 {
		workers = 2
	}
	chunkSize := len(relPaths) / workers
	if chunkSize < workers {
		// Too few files to bother parallelizing; hash sequentially.
		for _, rel := range relPaths {
			entry, ok := hashOne(root, rel)
			if ok {
				result[rel] = entry
			}
		}
		return result, nil
	}

	type chunkResult struct {
		paths   []string
		entries []archiveEntry
	}
	chunks := chunkStrings(relPaths, chunkSize)
	results := make([]chunkResult, len(chunks))

	var g errgroup.Group
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			cr := chunkResult{}
			for _, rel := range chunk {
				if entry, ok := hashOne(root, rel); ok {
					cr.paths = append(cr.paths, rel)
					cr.entries = append(cr.entries, entry)
				}
			}
			results[i] = cr
			return nil
		})
	}
	_ = g.Wait()

	for _, cr := range results {
		for i, rel := range cr.paths {
			result[rel] = cr.entries[i]
		}
	}
	return result, nil
}

func hashOne(root string, rel string) (archiveEntry, bool) {
	full := filepath.Join(root, rel)
	info, err := os.Lstat(full)
	if err != nil {
		return archiveEntry{}, false
	}
	hash, err := xhash.HashFile(full)
	if err != nil {
		return archiveEntry{}, false
	}
	return archiveEntry{Hash: hash, ModTime: info.ModTime().UnixNano(), Size: info.Size()}, true
}

func chunkStrings(items []string, size int) [][]string {
	var chunks [][]string
	for size > 0 && len(items) > 0 {
		if len(items) < size {
			size = len(items)
		}
		chunks = append(chunks, items[:size])
		items = items[size:]
	}
	if len(items) > 0 {
		chunks = append(chunks, items)
	}
	return chunks
}

func toFileData(archive fileArchive) []FileData {
	out := make([]FileData, 0, len(archive))
	for path, entry := range archive {
		out = append(out, FileData{File: path, Hash: entry.Hash})
	}
	sort.Sort(fileDataSlice(out))
	return out
}
