package util

import (
	"os"
	"path/filepath"
)

// rootMarkers identify a workspace root, checked in order in every directory.
var rootMarkers = []string{".git", ".classmap.yaml"}

// FindWorkspaceRoot walks up from start to the nearest directory holding a
// .git entry or a .classmap.yaml file. It returns start itself when neither
// is found.
func FindWorkspaceRoot(start string) (string, error) {
	start, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	dir := start
	for {
		for _, marker := range rootMarkers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return start, nil
		}
		dir = parent
	}
}
