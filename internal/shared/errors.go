package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTimeout          = fmt.Errorf("operation timed out")
	ErrCancelled        = fmt.Errorf("cancelled by user")

	// API and response errors
	ErrAPIRequest     = fmt.Errorf("API request failed")
	ErrMissingField   = fmt.Errorf("missing field in response")
	ErrAlbumNotParsed = fmt.Errorf("album data not found on page")
	ErrUserNotFound   = fmt.Errorf("user not found")
	ErrNotFound       = fmt.Errorf("not found or private")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
