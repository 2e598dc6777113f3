package testutil

import "testing"

// Given opens a scenario; Then nests an expectation inside it. Both are thin
// t.Run wrappers that prefix the subtest name.
func Given(t *testing.T, setup string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("given "+setup, fn)
}

func Then(t *testing.T, outcome string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("then "+outcome, fn)
}
