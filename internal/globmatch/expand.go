// Package globmatch compiles the extended glob dialect used throughout the
// workspace indexer and the hash planner/executor into standard glob
// patterns backed by doublestar. Rather than hand-rolling a brace/extglob
// matcher, the dialect is pre-expanded into the cartesian product of
// standard globs, with negated alternatives routed into a separate exclude
// set that is intersected with the include set at match time.
package globmatch

import (
	"regexp"
	"strings"
)

// negativeDirs matches an interior `!(a|b)/` segment, e.g. `dist/!(cache)/**`.
var negativeDirs = regexp.MustCompile(`!\(([^)]*)\)/`)

// negativeFiles matches a file-name fragment `!(a|b).`, e.g. `!(README).md`.
var negativeFiles = regexp.MustCompile(`!\(([^)]*)\)\.`)

// multiPatterns matches a trailing extension alternation `.(js|ts)`.
var multiPatterns = regexp.MustCompile(`\.\(([^)]*)\)$`)

// ExpandPattern converts a single extended-glob pattern into the list of
// standard-glob patterns whose combination reproduces its semantics. An
// entry prefixed with "!" belongs in the exclude set; all others belong in
// the include set. A pattern with no extended syntax returns itself as the
// only element.
func ExpandPattern(raw string) []string {
	negated := strings.HasPrefix(raw, "!")
	pattern := strings.TrimPrefix(raw, "!")
	if strings.HasSuffix(pattern, "/") {
		pattern += "**"
	}

	expanded := convertGlob(pattern)
	if !negated {
		return expanded
	}

	// A leading "!" on the whole pattern negates every expanded branch:
	// positive branches become exclusions, and branches that were already
	// exclusions (from an inner !(...)) become inclusions.
	out := make([]string, len(expanded))
	for i, p := range expanded {
		if strings.HasPrefix(p, "!") {
			out[i] = strings.TrimPrefix(p, "!")
		} else {
			out[i] = "!" + p
		}
	}
	return out
}

// convertGlob expands `!(a|b)` directory and file-name groups and `.(a|b)`
// extension alternations into a flat list of standard-glob branches, the
// way `dist/!(cache|cache2)/**/!(README|LICENSE).(js|ts)` becomes:
//
//	!dist/cache/**/*.{js,ts}
//	!dist/cache2/**/*.{js,ts}
//	!dist/**/README.{js,ts}
//	!dist/**/LICENSE.{js,ts}
//	dist/**/*.{js,ts}
func convertGlob(glob string) []string {
	glob = multiPatterns.ReplaceAllStringFunc(glob, func(m string) string {
		inner := multiPatterns.FindStringSubmatch(m)[1]
		return "." + "{" + strings.ReplaceAll(inner, "|", ",") + "}"
	})

	var globs []string

	if dirMatch := negativeDirs.FindStringSubmatch(glob); dirMatch != nil {
		names := strings.Split(dirMatch[1], "|")
		for _, name := range names {
			dirGlob := negativeDirs.ReplaceAllString(glob, name+"/")
			dirGlob = negativeFiles.ReplaceAllString(dirGlob, "*.")
			globs = append(globs, "!"+dirGlob)
		}
	}

	withoutDirs := negativeDirs.ReplaceAllString(glob, "")

	if fileMatch := negativeFiles.FindStringSubmatch(withoutDirs); fileMatch != nil {
		names := strings.Split(fileMatch[1], "|")
		for _, name := range names {
			fileGlob := negativeFiles.ReplaceAllString(withoutDirs, name+".")
			globs = append(globs, "!"+fileGlob)
		}
	}

	noNegatives := negativeDirs.ReplaceAllString(withoutDirs, "")
	result := negativeFiles.ReplaceAllString(noNegatives, "*.")
	globs = append(globs, result)

	return globs
}
