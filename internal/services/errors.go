// Package services defines the business logic for accounts, conversations,
// and gold purchases. This file centralizes common service-level error values
// so that they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the handler
// layer.
package services

import "errors"

// Account-related errors.
var (
	// ErrEmailTaken is returned by signup when an account with the given
	// email already exists.
	ErrEmailTaken = errors.New("email already exists")

	// ErrInvalidCredentials is returned by login for an unknown email or a
	// wrong password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUserNotFound indicates that the referenced account does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// Conversation-related errors.
var (
	// ErrEmptyQuery is returned when a query request contains only whitespace.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrQueryTooLong is returned when a query exceeds the maximum configured
	// rune length.
	ErrQueryTooLong = errors.New("query too long")
)

// Purchase-related errors.
var (
	// ErrInvalidAmount is returned when a purchase amount is missing,
	// non-positive, or not a finite number.
	ErrInvalidAmount = errors.New("invalid amount")
)
