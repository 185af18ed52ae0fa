package place

import "errors"

var (
	// ErrInvalidURL means the request carried no parseable URL. Maps to 400.
	ErrInvalidURL = errors.New("invalid or missing url")

	// ErrNotFound means the URL was resolvable but no place metadata could be
	// extracted from any source. Maps to 404. This is the only terminal
	// condition of the pipeline; upstream failures degrade instead.
	ErrNotFound = errors.New("place not found")
)
