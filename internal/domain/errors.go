package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrCaseNotFound indicates the requested case instance does not exist
	ErrCaseNotFound = errors.New("case instance not found")

	// ErrServerOffline indicates the execution server is unreachable
	ErrServerOffline = errors.New("execution server is unreachable")

	// ErrAuthFailed indicates the server rejected the credentials
	ErrAuthFailed = errors.New("authentication failed")

	// ErrForbidden indicates the user may not perform the operation
	ErrForbidden = errors.New("operation not permitted")

	// ErrEmptyComment indicates a comment was submitted without text
	ErrEmptyComment = errors.New("comment cannot be empty")

	// ErrNoCaseSelected indicates a comment operation without a selected case
	ErrNoCaseSelected = errors.New("no case selected")
)
