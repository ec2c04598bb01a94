package decode

import "errors"

// Sentinel error kinds, composed with fault's more general causes at the
// point of return (see probe.go, extract.go, decode.go).
var (
	ErrFileOpen              = errors.New("failed to open audio file")
	ErrDecode                = errors.New("failed to decode audio")
	ErrIndeterminateDuration = errors.New("source reports indeterminate duration")
	ErrResample              = errors.New("failed to resample audio")
	ErrEmptySamples          = errors.New("decode produced no samples")
)
