package transcribe

import "errors"

// ErrAPIKeyMissing indicates OPENAI_API_KEY is not set.
var ErrAPIKeyMissing = errors.New("OPENAI_API_KEY environment variable not set")

// ErrWhisperCppNotFound indicates the whisper.cpp CLI binary could not be located.
var ErrWhisperCppNotFound = errors.New("whisper.cpp binary not found")

// ErrModelNotFound indicates the whisper.cpp model file does not exist.
var ErrModelNotFound = errors.New("whisper.cpp model not found")
