//go:build !release

// Package assert provides contract checks for invariants that only a programming error can break.
// Checks panic in development builds and compile away when built with the release tag.
package assert

import "fmt"

// That panics with the formatted message when cond is false.
func That(cond bool, format string, args ...any) { //nolint:goprintffuncname // it's ok
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}

// Unreachable panics unconditionally. Use it to mark branches the caller has already ruled out.
func Unreachable(format string, args ...any) { //nolint:goprintffuncname // it's ok
	panic("unreachable: " + fmt.Sprintf(format, args...))
}
