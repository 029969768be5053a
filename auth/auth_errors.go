package auth

import (
	"errors"
	"fmt"
)

var (
	ErrMissingRefreshToken     = errors.New("missing refresh token")
	ErrMissingUserInfoEndpoint = errors.New("missing user info endpoint")
	ErrMissingIDToken          = errors.New("no id token stored")
	ErrUnexpectedResponse      = errors.New("unexpected response")
	ErrUnequalStateParameter   = errors.New("state parameter mismatch")
	ErrAuthorizationCancelled  = errors.New("user cancelled authorization")
	ErrAuthorizationAbandoned  = errors.New("authorization abandoned")
	ErrAuthorizationSuperseded = errors.New("authorization superseded by a newer request")
)

// UnexpectedResponseError is returned when a successful token endpoint
// response does not carry a usable token.
type UnexpectedResponseError struct {
	Body []byte
	Err  error
}

func (e *UnexpectedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", ErrUnexpectedResponse, e.Err)
	}
	return ErrUnexpectedResponse.Error()
}

func (e *UnexpectedResponseError) Is(target error) bool { return target == ErrUnexpectedResponse }

func (e *UnexpectedResponseError) Unwrap() error { return e.Err }

// StateMismatchError is returned when the redirect echoes a state other than
// the one sent with the authorization request. The code is never exchanged.
type StateMismatchError struct {
	Received string
}

func (e *StateMismatchError) Error() string {
	return fmt.Sprintf("%s: received %q", ErrUnequalStateParameter, e.Received)
}

func (e *StateMismatchError) Is(target error) bool { return target == ErrUnequalStateParameter }

// CancelledError is returned when the redirect carries no code. Code and
// Description hold the provider's error and error_description, when sent.
type CancelledError struct {
	Code        string
	Description string
}

func (e *CancelledError) Error() string {
	switch {
	case e.Code != "" && e.Description != "":
		return fmt.Sprintf("%s: %s: %s", ErrAuthorizationCancelled, e.Code, e.Description)
	case e.Code != "":
		return fmt.Sprintf("%s: %s", ErrAuthorizationCancelled, e.Code)
	}
	return ErrAuthorizationCancelled.Error()
}

func (e *CancelledError) Is(target error) bool { return target == ErrAuthorizationCancelled }
