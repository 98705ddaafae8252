package workflow

import (
	"fmt"
	"strings"

	"github.com/waigani/diffparser"
)

// UncommittedMarker starts the trailing comment block that lists files with
// uncommitted changes in a working-copy diff
const UncommittedMarker = "# Uncommitted changes:"

// FileStat counts the lines added and removed in one file of a diff
type FileStat struct {
	Path    string `json:"path"`
	Added   int    `json:"added"`
	Removed int    `json:"removed"`
}

// DiffStats parses a unified diff and returns per-file line counts in the
// order the files appear. The uncommitted-changes block, if any, is ignored.
func DiffStats(diff string) ([]FileStat, error) {
	if i := strings.Index(diff, UncommittedMarker); i >= 0 {
		diff = diff[:i]
	}
	if strings.TrimSpace(diff) == "" {
		return []FileStat{}, nil
	}

	parsed, err := diffparser.Parse(diff)
	if err != nil {
		return nil, fmt.Errorf("failed to parse diff: %w", err)
	}

	stats := make([]FileStat, 0, len(parsed.Files))
	for _, file := range parsed.Files {
		stat := FileStat{Path: file.NewName}
		if file.Mode == diffparser.DELETED || stat.Path == "" {
			stat.Path = file.OrigName
		}
		for _, hunk := range file.Hunks {
			for _, line := range hunk.WholeRange.Lines {
				switch line.Mode {
				case diffparser.ADDED:
					stat.Added++
				case diffparser.REMOVED:
					stat.Removed++
				}
			}
		}
		stats = append(stats, stat)
	}
	return stats, nil
}
