package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity or file does not exist.
	ErrNotFound = errors.New("not found")

	// ErrParse indicates a stored artifact could not be decoded.
	ErrParse = errors.New("parse error")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyExport indicates an export yielded zero usable records.
	// This is a hard failure, distinct from a missing input file.
	ErrEmptyExport = errors.New("export contains no usable records")

	// ErrMalformedExport indicates the export input does not match
	// either supported schema at all.
	ErrMalformedExport = errors.New("malformed export")

	// ErrUnmatched indicates a candidate name resolved to no record.
	// Callers treat this as skip, never as fatal.
	ErrUnmatched = errors.New("no matching record")

	// ErrDuplicate indicates the remote library already holds the asset.
	ErrDuplicate = errors.New("asset already exists")

	// ErrUpdateRejected indicates the remote library refused a metadata update.
	ErrUpdateRejected = errors.New("metadata update rejected")
)
