package domain

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// ErrorClass partitions every bridge failure into one of three buckets. The
// class decides how callers react: policy violations are user or admin
// mistakes, invariant violations are replayed or forged state transitions,
// external failures come from a collaborator.
type ErrorClass string

const (
	PolicyViolation    ErrorClass = "POLICY_VIOLATION"
	InvariantViolation ErrorClass = "INVARIANT_VIOLATION"
	ExternalFailure    ErrorClass = "EXTERNAL_FAILURE"
)

// Code is a namespaced bridge error code.
type Code struct {
	Code  uint16
	Name  string
	Class ErrorClass
}

// New creates a new error with the given code and message.
func (c Code) New(msg string, args ...any) Error {
	return &codedError{code: c, cause: fmt.Errorf(msg, args...)}
}

// Wrap creates a new error with the given code and the cause error.
func (c Code) Wrap(cause error) Error {
	return &codedError{code: c, cause: cause}
}

func (c Code) String() string {
	return fmt.Sprintf("%s (%d)", c.Name, c.Code)
}

type Error interface {
	error
	Code() uint16
	CodeName() string
	Class() ErrorClass
	Log() *log.Entry
	Unwrap() error
}

type codedError struct {
	code  Code
	cause error
}

func (e *codedError) Error() string {
	return fmt.Sprintf("%s: %s", e.code.String(), e.cause.Error())
}

func (e *codedError) Code() uint16 {
	return e.code.Code
}

func (e *codedError) CodeName() string {
	return e.code.Name
}

func (e *codedError) Class() ErrorClass {
	return e.code.Class
}

func (e *codedError) Log() *log.Entry {
	return log.WithField("name", e.code.Name).
		WithField("code", e.code.Code).
		WithField("class", e.code.Class)
}

func (e *codedError) Unwrap() error {
	return e.cause
}

var (
	// Policy violations.
	BRIDGE_PAUSED       = Code{1000, "BRIDGE_PAUSED", PolicyViolation}
	INSUFFICIENT_FEE    = Code{1001, "INSUFFICIENT_FEE", PolicyViolation}
	UNAUTHORIZED        = Code{1002, "UNAUTHORIZED", PolicyViolation}
	NULL_RECIPIENT      = Code{1003, "NULL_RECIPIENT", PolicyViolation}
	UNKNOWN_DESTINATION = Code{1004, "UNKNOWN_DESTINATION", PolicyViolation}
	REENTRANT_CALL      = Code{1005, "REENTRANT_CALL", PolicyViolation}
	EMPTY_ESCROW        = Code{1006, "EMPTY_ESCROW", PolicyViolation}
	INVALID_ROYALTY     = Code{1007, "INVALID_ROYALTY", PolicyViolation}

	// Invariant violations.
	ASSET_NOT_LOCKED     = Code{2000, "ASSET_NOT_LOCKED", InvariantViolation}
	ASSET_ALREADY_LOCKED = Code{2001, "ASSET_ALREADY_LOCKED", InvariantViolation}
	ALREADY_MINTED       = Code{2002, "ALREADY_MINTED", InvariantViolation}
	ASSET_NOT_HELD       = Code{2003, "ASSET_NOT_HELD", InvariantViolation}

	// External failures.
	REGISTRY_FAILURE  = Code{3000, "REGISTRY_FAILURE", ExternalFailure}
	TRANSPORT_FAILURE = Code{3001, "TRANSPORT_FAILURE", ExternalFailure}
	PAYOUT_FAILURE    = Code{3002, "PAYOUT_FAILURE", ExternalFailure}
	STORE_FAILURE     = Code{3003, "STORE_FAILURE", ExternalFailure}
	BAD_ENVELOPE      = Code{3004, "BAD_ENVELOPE", ExternalFailure}
)
