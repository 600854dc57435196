package pipeline

import "errors"

// ErrTranscriptionFailed wraps any error returned by the transcriber.
var ErrTranscriptionFailed = errors.New("transcription failed")

// ErrSkipped marks the captions stage as not run because audio failed.
var ErrSkipped = errors.New("skipped: no audio recorded")

// StageError tags a failure with the stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return string(e.Stage) + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}
