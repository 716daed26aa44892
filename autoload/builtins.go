package autoload

import (
	"slices"
	"strings"
)

// BuiltinScript pairs a command name with an inline definition. Builtins
// take precedence over the directory search: resolving one performs no
// filesystem access, and builtins never enter the cache.
type BuiltinScript struct {
	Name   string
	Source string
}

// validateBuiltins panics unless scripts are sorted ascending by Name
// with no duplicates, the contract the binary search relies on.
func validateBuiltins(scripts []BuiltinScript) {
	for i := 1; i < len(scripts); i++ {
		if scripts[i-1].Name >= scripts[i].Name {
			panic("Builtins must be sorted by Name, without duplicates")
		}
	}
}

// findBuiltin binary-searches scripts for an exact name match.
func findBuiltin(scripts []BuiltinScript, name string) (BuiltinScript, bool) {
	i, ok := slices.BinarySearchFunc(scripts, name, func(s BuiltinScript, target string) int {
		return strings.Compare(s.Name, target)
	})
	if !ok {
		return BuiltinScript{}, false
	}
	return scripts[i], true
}
