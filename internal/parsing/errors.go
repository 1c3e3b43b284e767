package parsing

import "errors"

var (
	ErrUnsupported = errors.New("unsupported content type")
	ErrMalformed   = errors.New("malformed document")
)
