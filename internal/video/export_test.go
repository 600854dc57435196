package video

// Export internal functions for testing.

var (
	BuildCameraArgs   = buildCameraArgs
	BuildEncoderArgs  = buildEncoderArgs
	ParseStreamFormat = parseStreamFormat
)

// Process exports the process interface for test doubles.
type Process = process
