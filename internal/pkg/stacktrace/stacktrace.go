// Package stacktrace trims raw goroutine stacks down to application frames.
package stacktrace

import "strings"

// InternalPaths returns the "internal/...go:line" locations found in a raw
// stack trace, in the order they appear.
func InternalPaths(stack []byte) []string {
	lines := strings.Split(string(stack), "\n")
	paths := make([]string, 0, len(lines)/2)
	for _, line := range lines {
		line = strings.TrimSpace(line)
		idx := strings.Index(line, ".go:")
		if idx == -1 {
			continue
		}

		loc := line
		if sp := strings.IndexByte(line[idx:], ' '); sp != -1 {
			loc = line[:idx+sp]
		}

		at := strings.Index(loc, "/internal/")
		if at == -1 {
			continue
		}
		paths = append(paths, loc[at+1:])
	}
	return paths
}

// Summary returns the internal frames of stack or, when none exist, the raw stack.
func Summary(stack []byte) any {
	if paths := InternalPaths(stack); len(paths) > 0 {
		return paths
	}
	return string(stack)
}
