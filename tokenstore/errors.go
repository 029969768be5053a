package tokenstore

import "errors"

var (
	ErrInvalidKey    = errors.New("invalid token store key")
	ErrSealedValue   = errors.New("sealed value cannot be opened")
	ErrInvalidSecret = errors.New("invalid encryption secret")
)
