package errors

import (
	"errors"
	"fmt"
)

// Common error types shared by the client packages
var (
	// Token errors
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Storage errors
	ErrNotFound      = errors.New("not found")
	ErrCorruptRecord = errors.New("corrupt record")

	// General errors
	ErrUnsupported = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
