package dropzone

import "strings"

// NormalizePaths trims every entry and drops the ones left empty.
// Order and duplicates are preserved; the result never aliases raw.
func NormalizePaths(raw []string) []string {
	paths := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
