package service

import (
	"errors"
	"fmt"
)

// Error kinds. Every error a service returns wraps one of these so the API
// layer can map it to a status code with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrExternalService = errors.New("external service failure")
)

// Specific errors.
var (
	ErrUserAlreadyExists    = fmt.Errorf("%w: user with this email already exists", ErrConflict)
	ErrAuthenticationFailed = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	ErrStudentNotFound      = fmt.Errorf("%w: student not found", ErrNotFound)
	ErrMentorNotFound       = fmt.Errorf("%w: mentor not found", ErrNotFound)
	ErrProjectNotFound      = fmt.Errorf("%w: project not found", ErrNotFound)
	ErrCommentNotFound      = fmt.Errorf("%w: comment not found", ErrNotFound)
	ErrFileNotFound         = fmt.Errorf("%w: file not found", ErrNotFound)
	ErrStudentLinkNotFound  = fmt.Errorf("%w: no student record found", ErrNotFound)
	ErrAlreadyAnalyzed      = fmt.Errorf("%w: analysis already there", ErrConflict)
	ErrAnalysisInProgress   = fmt.Errorf("%w: analysis in progress", ErrConflict)
	ErrMentorAlreadyTaken   = fmt.Errorf("%w: mentor is already assigned to another student", ErrConflict)
	ErrProjectAccessDenied  = fmt.Errorf("%w: project is not accessible to this user", ErrForbidden)
	ErrFileAccessDenied     = fmt.Errorf("%w: file belongs to another student", ErrForbidden)
	ErrNoTranscript         = fmt.Errorf("%w: no transcription data available for this project", ErrValidation)
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// externalError wraps a failure of a remote collaborator.
func externalError(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrExternalService, what, err)
}
