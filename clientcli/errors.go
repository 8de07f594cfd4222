package clientcli

import "errors"

// Errors for profile operations.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoProfiles      = errors.New("no profiles configured")
	ErrProfileExists   = errors.New("profile already exists")
)

// ErrConfigRequired is returned by New when no config is given.
var ErrConfigRequired = errors.New("config is required")

// Errors for input validation.
var (
	ErrNoFileIDs      = errors.New("no file ids provided")
	ErrEmptyPath      = errors.New("path is required")
	ErrEmptyFileID    = errors.New("file id is required")
	ErrInvalidJSON    = errors.New("metadata must be valid JSON")
	ErrSearchRequired = errors.New("provide a prefix or size range")
)
