package project

import "errors"

var (
	// ErrProjectNotFound indicates the project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrReleaseNotFound indicates the release doesn't exist.
	ErrReleaseNotFound = errors.New("release not found")
	// ErrDuplicateName indicates a project or release name is already taken.
	ErrDuplicateName = errors.New("name already exists")
	// ErrInvalidInput indicates invalid project input.
	ErrInvalidInput = errors.New("invalid project input")
)
