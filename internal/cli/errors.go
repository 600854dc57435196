package cli

import (
	"errors"

	"github.com/alnah/clipcap/internal/transcribe"
)

// Command-level input errors. Device and stage errors live in their packages.
var (
	// ErrAPIKeyMissing is returned when the openai provider has no key.
	ErrAPIKeyMissing = transcribe.ErrAPIKeyMissing

	// ErrInvalidDuration indicates an unparsable or non-positive clip length.
	ErrInvalidDuration = errors.New("invalid duration")

	// ErrUnsupportedFormat indicates an audio extension the provider cannot read.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrFileNotFound indicates the input audio file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrOutputExists indicates the captions file would overwrite an existing file.
	ErrOutputExists = errors.New("output file already exists")
)
