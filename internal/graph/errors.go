package graph

import (
	"strings"
)

// CircularDependencyError reports a cycle in the module dependency graph.
type CircularDependencyError struct {
	// Cycle holds the module names forming the cycle, with the starting
	// module repeated at the end: ["a", "b", "a"].
	Cycle []string
}

func (e CircularDependencyError) Error() string {
	var b strings.Builder
	b.WriteString("circular dependency detected: ")
	b.WriteString(strings.Join(e.Cycle, " -> "))
	return b.String()
}
