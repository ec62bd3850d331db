package config

import "errors"

var (
	// ErrInvalidConfigFormat is returned when a config document is not a mapping.
	ErrInvalidConfigFormat = errors.New("config: invalid config format")

	// ErrNotWatchable is returned by Watch when the override source is not a directory.
	ErrNotWatchable = errors.New("config: override source cannot be watched")
)
