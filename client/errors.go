package client

import "errors"

var (
	// ErrInvalidRequest indicates a malformed Request. It is returned before
	// any network or cache activity.
	ErrInvalidRequest = errors.New("client: invalid request")

	// ErrNoCache is returned by Invalidate when caching is disabled.
	ErrNoCache = errors.New("client: response cache is disabled")
)
