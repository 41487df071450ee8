package cloudapi

import "errors"

var (
	// ErrLoginFailed indicates the cloud rejected the credentials or
	// returned an unusable login response.
	ErrLoginFailed = errors.New("cloudapi: login failed")

	// ErrNotAuthenticated indicates an API call that needs a session
	// was made without a prior successful login.
	ErrNotAuthenticated = errors.New("cloudapi: not authenticated")

	// ErrRequestFailed indicates a transport-level or non-2xx failure
	// against the cloud API.
	ErrRequestFailed = errors.New("cloudapi: request failed")
)
