package service

import "errors"

// ErrUpstream indicates the external generation API was unreachable,
// rejected authentication, or returned malformed content. Handlers map it
// to a generic 5xx; the underlying detail stays in server-side logs.
var ErrUpstream = errors.New("upstream generation service unavailable")

// ErrNotFound indicates the requested record does not exist
var ErrNotFound = errors.New("record not found")

// ErrImageUnavailable indicates the image pipeline is not configured or
// failed; handlers map it to 503.
var ErrImageUnavailable = errors.New("image generation unavailable")
