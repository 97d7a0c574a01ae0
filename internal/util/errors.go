package util

import "errors"

var (
	ErrNotFound             = errors.New("resource not found")
	ErrDuplicateEnrollment  = errors.New("user is already enrolled in this course")
	ErrNotEnrolled          = errors.New("user is not enrolled in this course")
	ErrNoValidAnswers       = errors.New("no answer carries a learning style")
	ErrConfigurationMissing = errors.New("no active assessment configured")
	ErrTransientIO          = errors.New("document store unavailable")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrUnansweredQuestions  = errors.New("not every question was answered")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrEmailRegistered      = errors.New("email is already registered")
	ErrInvalidCredentials   = errors.New("invalid email or password")
)
