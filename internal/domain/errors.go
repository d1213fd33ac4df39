package domain

import "errors"

var (
	// ErrNotFound is returned by stores when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateStory signals an insert that hit the url/hash uniqueness constraint.
	ErrDuplicateStory = errors.New("story already exists")
	// ErrNoSummary is returned by summarizers that produced no usable bullets.
	ErrNoSummary = errors.New("empty summary")
)
