package handler

import "errors"

// ErrBadParameter is returned for malformed query parameters.
var ErrBadParameter = errors.New("bad parameter")
