package githubclient

import "errors"

// ErrRefNotFound signals that a ref could not be resolved as a tag,
// branch, or generic ref — a logical "not found", distinct from a network
// error, per spec.md §4.3.
var ErrRefNotFound = errors.New("ref not found as tag, branch, or generic ref")
