package counting

import "errors"

var (
	ErrUnknownSystem   = errors.New("unknown counting system")
	ErrDuplicateSystem = errors.New("counting system already registered")
)
