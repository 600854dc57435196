package config

import "errors"

var (
	// ErrUnknownKey indicates a config key that clipcap does not define.
	ErrUnknownKey = errors.New("unknown config key")

	// ErrInvalidValue indicates a value that fails validation for its key.
	ErrInvalidValue = errors.New("invalid config value")

	// ErrNotDirectory indicates the output path exists but is not a directory.
	ErrNotDirectory = errors.New("path is not a directory")

	// ErrNotWritable indicates the output directory cannot be written to.
	ErrNotWritable = errors.New("directory is not writable")
)
