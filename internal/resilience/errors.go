// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// ErrorType represents different types of sink errors for handling strategies
type ErrorType int

const (
	ErrorTypeUnknown     ErrorType = iota
	ErrorTypeTransient             // Dropped connections, listener restarts
	ErrorTypeLocked                // Database or table locked by another writer
	ErrorTypeTimeout               // Statement or connect timeouts
	ErrorTypePermanent             // Bad credentials, missing privileges
	ErrorTypeConstraint            // Constraint violations
	ErrorTypeInvalidInput          // Malformed statements or values
)

// ClassifiedError wraps an error with type information
type ClassifiedError struct {
	Original  error
	Type      ErrorType
	Message   string
	Retryable bool
}

func (e *ClassifiedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Original.Error()
}

func (e *ClassifiedError) Unwrap() error {
	return e.Original
}

// IsRetryable returns whether this error should be retried
func (e *ClassifiedError) IsRetryable() bool {
	return e.Retryable
}

// Oracle error codes that mean the session or listener went away.
var oracleTransient = []string{
	"ora-03113", // end-of-file on communication channel
	"ora-03114", // not connected to oracle
	"ora-03135", // connection lost contact
	"ora-12170", // connect timeout
	"ora-12541", // no listener
	"ora-12514", // listener does not know of service
	"ora-12528", // instance blocking new connections
}

// ClassifyError categorizes a database error for retry handling
func ClassifyError(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	if errors.Is(err, context.Canceled) {
		return &ClassifiedError{Original: err, Type: ErrorTypePermanent, Message: err.Error(), Retryable: false}
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "database is locked") || strings.Contains(errStr, "sqlite_busy") ||
		strings.Contains(errStr, "database table is locked") || strings.Contains(errStr, "ora-00054"):
		return &ClassifiedError{
			Original:  err,
			Type:      ErrorTypeLocked,
			Message:   fmt.Sprintf("Database locked: %v", err),
			Retryable: true,
		}

	case containsAny(errStr, oracleTransient):
		return &ClassifiedError{
			Original:  err,
			Type:      ErrorTypeTransient,
			Message:   fmt.Sprintf("Connection error: %v", err),
			Retryable: true,
		}
	}

	if isNetworkError(err) {
		return &ClassifiedError{
			Original:  err,
			Type:      ErrorTypeTransient,
			Message:   fmt.Sprintf("Network error: %v", err),
			Retryable: true,
		}
	}

	if isTimeoutError(err) {
		return &ClassifiedError{
			Original:  err,
			Type:      ErrorTypeTimeout,
			Message:   fmt.Sprintf("Timeout error: %v", err),
			Retryable: true,
		}
	}

	switch {
	case strings.Contains(errStr, "ora-01017") || strings.Contains(errStr, "ora-01031") ||
		strings.Contains(errStr, "permission denied") || strings.Contains(errStr, "readonly database"):
		return &ClassifiedError{
			Original:  err,
			Type:      ErrorTypePermanent,
			Message:   fmt.Sprintf("Authentication/authorization error: %v", err),
			Retryable: false,
		}

	case strings.Contains(errStr, "constraint failed") || strings.Contains(errStr, "ora-00001"):
		return &ClassifiedError{
			Original:  err,
			Type:      ErrorTypeConstraint,
			Message:   fmt.Sprintf("Constraint violation: %v", err),
			Retryable: false,
		}

	case strings.Contains(errStr, "syntax error") || strings.Contains(errStr, "no such table") ||
		strings.Contains(errStr, "ora-00942"):
		return &ClassifiedError{
			Original:  err,
			Type:      ErrorTypeInvalidInput,
			Message:   fmt.Sprintf("Invalid statement: %v", err),
			Retryable: false,
		}
	}

	// Default to unknown, non-retryable
	return &ClassifiedError{
		Original:  err,
		Type:      ErrorTypeUnknown,
		Message:   fmt.Sprintf("Unknown error: %v", err),
		Retryable: false,
	}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// isNetworkError checks if an error is network-related
func isNetworkError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH)
}

// isTimeoutError checks if an error is timeout-related
func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded")
}

// NewTransientError creates a new transient error
func NewTransientError(message string, cause error) *ClassifiedError {
	return &ClassifiedError{
		Original:  cause,
		Type:      ErrorTypeTransient,
		Message:   message,
		Retryable: true,
	}
}

// NewPermanentError creates a new permanent error
func NewPermanentError(message string, cause error) *ClassifiedError {
	return &ClassifiedError{
		Original:  cause,
		Type:      ErrorTypePermanent,
		Message:   message,
		Retryable: false,
	}
}

// String names the error type.
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeUnknown:
		return "Unknown"
	case ErrorTypeTransient:
		return "Transient"
	case ErrorTypeLocked:
		return "Locked"
	case ErrorTypeTimeout:
		return "Timeout"
	case ErrorTypePermanent:
		return "Permanent"
	case ErrorTypeConstraint:
		return "Constraint"
	case ErrorTypeInvalidInput:
		return "InvalidInput"
	default:
		return fmt.Sprintf("ErrorType(%d)", int(et))
	}
}
