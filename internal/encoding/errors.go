package encoding

import "errors"

var (
	// ErrBufferTooSmall indicates a scratch buffer that cannot hold a single
	// encoded step.
	ErrBufferTooSmall = errors.New("encode buffer too small")
)
