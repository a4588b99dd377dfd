package domain

import "errors"

var (
	// ErrNotAuthenticated is returned when an operation requires a user and none is present.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrEmailNotVerified is returned when the identity provider reports an unverified address.
	ErrEmailNotVerified = errors.New("email not verified")
	// ErrCatalogNotFound indicates the catalog id does not exist in the static tree.
	ErrCatalogNotFound = errors.New("catalog not found")
	// ErrModuleNotFound indicates a module id that is not part of the catalog.
	ErrModuleNotFound = errors.New("module not found")
	// ErrCategoryNotFound indicates a category id that is not part of the module.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrQuestionNotFound indicates a question id that is not part of the catalog.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrSessionNotFound is returned when a quiz session has not been opened.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNoQuestions indicates the active filter yields an empty question list.
	ErrNoQuestions = errors.New("no questions match the active filter")
	// ErrAlreadyAnswered is returned when answers are toggled after submission.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrNotAnswered is returned when advancing before the current question was submitted.
	ErrNotAnswered = errors.New("question not answered yet")
)
