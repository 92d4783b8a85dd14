package bundle

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBuildFailed indicates esbuild reported errors
	ErrBuildFailed = errors.New("bundle build failed")
	// ErrUncoveredExtension indicates a reachable file that no transform rule matches
	ErrUncoveredExtension = errors.New("no transform rule covers file")
	// ErrNotBuilt indicates metadata was requested before a successful build
	ErrNotBuilt = errors.New("bundle not built yet, call Build() first")
)

// UncoveredError lists the reachable files no transform rule matches, grouped
// by extension.
type UncoveredError struct {
	Files map[string][]string
}

func (e *UncoveredError) Error() string {
	exts := sortedKeys(e.Files)
	parts := make([]string, 0, len(exts))
	for _, ext := range exts {
		parts = append(parts, fmt.Sprintf("%s (%s)", displayExt(ext), strings.Join(e.Files[ext], ", ")))
	}
	return fmt.Sprintf("%s: %s", ErrUncoveredExtension, strings.Join(parts, "; "))
}

func (e *UncoveredError) Is(target error) bool {
	return target == ErrUncoveredExtension
}

// Extensions returns the uncovered extensions in sorted order.
func (e *UncoveredError) Extensions() []string {
	return sortedKeys(e.Files)
}

func displayExt(ext string) string {
	if ext == "" {
		return "<no extension>"
	}
	return ext
}
