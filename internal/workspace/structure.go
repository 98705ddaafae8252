package workspace

import (
	"os"
	"path/filepath"
	"strings"
)

var skippedDirs = map[string]bool{
	"node_modules": true,
	"__pycache__":  true,
	"venv":         true,
}

// ListStructure renders the directory tree down to maxDepth levels below
// the root, two spaces of indent per level. Hidden entries and dependency
// directories are left out.
func (w *Workspace) ListStructure(maxDepth int) (string, error) {
	if _, err := os.ReadDir(w.root); err != nil {
		return "", err
	}

	var lines []string
	var walk func(dir string, level int)
	walk = func(dir string, level int) {
		if level > maxDepth {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return
		}

		lines = append(lines, strings.Repeat("  ", level)+filepath.Base(dir)+"/")
		fileIndent := strings.Repeat("  ", level+1)

		var subdirs []string
		for _, e := range entries {
			name := e.Name()
			if strings.HasPrefix(name, ".") {
				continue
			}
			if e.IsDir() {
				if !skippedDirs[name] {
					subdirs = append(subdirs, filepath.Join(dir, name))
				}
				continue
			}
			lines = append(lines, fileIndent+name)
		}
		for _, sub := range subdirs {
			walk(sub, level+1)
		}
	}
	walk(w.root, 0)

	return strings.Join(lines, "\n"), nil
}
