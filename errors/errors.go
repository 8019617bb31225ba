// Package errors provides error handling for cxxbind.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - User-facing hints printed by the CLI under the error
//
// Usage:
//
//	// Wrap with context
//	if err := p.Parse(ctx, header, iface, tail); err != nil {
//	    return errors.Wrapf(err, "failed to parse %s", header)
//	}
//
//	// Add hints for users
//	return errors.WithHint(err, "pass --cache-dir to choose where caches are written")
//
//	// Check errors
//	if errors.Is(err, errors.ErrNotFound) {
//	    // interface file could not be resolved
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New           = crdb.New
	Newf          = crdb.Newf
	Wrap          = crdb.Wrap
	Wrapf         = crdb.Wrapf
	WithStack     = crdb.WithStack
	WithMessage   = crdb.WithMessage
	WithMessagef  = crdb.WithMessagef
	Mark          = crdb.Mark
	CombineErrors = crdb.CombineErrors
)

// User-facing messages and details
var (
	WithHint           = crdb.WithHint
	WithHintf          = crdb.WithHintf
	WithDetail         = crdb.WithDetail
	WithDetailf        = crdb.WithDetailf
	WithSecondaryError = crdb.WithSecondaryError
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Sentinel errors, one per failure class of a generation run.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrNotFound indicates an interface file or header could not be resolved
	ErrNotFound = New("not found")

	// ErrUsage indicates invalid or missing command line arguments
	ErrUsage = New("usage error")

	// ErrParse indicates the external C++ front end failed on a header
	ErrParse = New("parse failed")

	// ErrRegistryDetached indicates a registration after the export registry
	// was handed to the generation driver
	ErrRegistryDetached = New("export registry detached")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsUsageError checks if an error is or wraps ErrUsage
func IsUsageError(err error) bool {
	return err != nil && Is(err, ErrUsage)
}

// IsParseError checks if an error is or wraps ErrParse
func IsParseError(err error) bool {
	return err != nil && Is(err, ErrParse)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}

// NewUsageError creates a usage error with a formatted message
func NewUsageError(format string, args ...interface{}) error {
	return Wrap(ErrUsage, Newf(format, args...).Error())
}

// WrapParse marks err as a front-end failure for header. The cause stays
// reachable through Is and As.
func WrapParse(err error, header string) error {
	return Mark(Wrapf(err, "header %s", header), ErrParse)
}
