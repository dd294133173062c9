// Package workspacefs indexes every file under a workspace root, hashes
// their contents, and keeps that index current as the workspace changes. It
// is the native equivalent of the original Rust workspace context: a
// background worker performs the initial (possibly slow) full scan while
// callers that need the result block on it, and every subsequent change is
// applied incrementally rather than by rescanning.
package workspacefs

import "sort"

// FileData is one workspace-relative file path paired with the hex-encoded
// xxh3-64 hash of its contents.
type FileData struct {
	File string
	Hash string
}

// fileDataSlice sorts FileData by File, the ordering the indexer guarantees
// for AllFileData and GetFilesInDirectory results.
type fileDataSlice []FileData

func (s fileDataSlice) Len() int           { return len(s) }
func (s fileDataSlice) Less(i, j int) bool { return s[i].File < s[j].File }
func (s fileDataSlice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

func sortFileData(files []FileData) {
	sort.Sort(fileDataSlice(files))
}

// UpdatedWorkspaceFiles is the result of reassigning files to projects after
// an incremental update, split into per-project buckets plus files that
// belong to no project (global files) and a list of projects whose file set
// changed, for callers that memoize per-project hashes.
type UpdatedWorkspaceFiles struct {
	ProjectFiles map[string][]FileData
	GlobalFiles  []FileData
	Changed      []string
}

// ProjectFileMap is the full per-project view of workspace files, with a
// separate bucket for files owned by no project.
type ProjectFileMap struct {
	ProjectFiles map[string][]FileData
	GlobalFiles  []FileData
}
