package audio

// Export internal functions for testing.
// This file is only compiled during tests (suffix _test.go).

// BuildSourceArgs exports buildSourceArgs for testing.
var BuildSourceArgs = buildSourceArgs

// Process exports the process interface for test doubles.
type Process = process
