// Package paths locates the project root and canonicalizes document names.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ArchiveSeparator joins an archive path and a member name in document names.
const ArchiveSeparator = "!"

// FindProjectRoot walks up from start to the first directory holding one of
// the markers. It returns start itself when no ancestor has one.
func FindProjectRoot(start string, markers ...string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for dir := abs; ; {
		for _, m := range markers {
			if _, err := os.Stat(filepath.Join(dir, m)); err == nil {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		dir = parent
	}
}

// CanonicalizePath converts a path to a root-relative path with forward
// slashes. Symlinks are resolved when the path exists.
func CanonicalizePath(path string, root string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := evalExisting(abs)
	if err != nil {
		return "", err
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	rootResolved, err := evalExisting(rootAbs)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

func evalExisting(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if os.IsNotExist(err) {
		return path, nil
	}
	return resolved, err
}

// CanonicalizeDocument canonicalizes the file part of a document name and
// keeps an archive member suffix unchanged.
func CanonicalizeDocument(name string, root string) (string, error) {
	file, member, isMember := strings.Cut(name, ArchiveSeparator)
	canonical, err := CanonicalizePath(file, root)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize %s: %w", name, err)
	}
	if isMember {
		return canonical + ArchiveSeparator + member, nil
	}
	return canonical, nil
}

// IsWithinRoot checks if path lies inside root
func IsWithinRoot(path string, root string) bool {
	canonical, err := CanonicalizePath(path, root)
	if err != nil {
		return false
	}
	return canonical != ".." && !strings.HasPrefix(canonical, "../")
}
