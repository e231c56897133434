// Package common defines sentinel errors and small helpers shared by the
// GlassHabit client layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound         = errors.New("not found")
	ErrUnknownCollection  = errors.New("unknown collection")
	ErrCollectionMismatch = errors.New("record does not belong to collection")

	// Identity errors, translated from provider-specific failures.
	ErrEmailRegistered    = errors.New("email is already registered")
	ErrNoAccountForEmail  = errors.New("no account found with this email")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Lookup errors.
	ErrUsernameNotFound = errors.New("username not found, please use email")
	ErrNotFoundOnDevice = errors.New("username not found on this device, please use your email address")

	// Data-reset authorization.
	ErrInvalidSecretAnswer = errors.New("invalid secret answer")

	// Import/export.
	ErrInvalidBackup = errors.New("invalid backup file")

	// Habit tracking.
	ErrAlreadyCompleted = errors.New("task already completed for this date")
)
