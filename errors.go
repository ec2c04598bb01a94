package mecomp

import "errors"

// Sentinel errors shared across packages. Package-specific failures get
// their own sentinels wrapped around these (or around
// github.com/farcloser/primordium/fault's) so callers can errors.Is against
// either the specific or the general cause.
var (
	ErrInvalidThing  = errors.New("invalid thing reference")
	ErrNotFound      = errors.New("not found")
	ErrNameTaken     = errors.New("name already in use")
	ErrEmptyAnalysis = errors.New("no analysis available")
)
