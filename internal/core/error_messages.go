package core

// error_messages.go maps errors to messages safe to show API and CLI users.
//
// # Error Codes Reference
//
// Typed errors are mapped first, then the error text is matched against
// known patterns. Codes are grouped by category:
//
//	QRY001 - Invalid query argument (QueryError)
//	QRY002 - Registration not found (ErrNotFound)
//
//	STORE001 - Store not initialized (ErrStoreNotInitialized)
//	           Action: Run "regsync migrate up" and an import
//
//	IMP001 - Import already running (ErrImportLocked)
//	IMP002 - Import write failed (TransactionError)
//	IMP003 - Duplicate version (ErrDuplicateVersion)
//
//	FILE001 - Source file missing
//	FILE002 - Source file unreadable (IOError)
//	FILE003 - Line too long
//
//	DB001 - Connection refused
//	DB002 - Connection reset
//	DB003 - Deadlock
//	DB004 - Timeout
//
//	REQ001 - Request cancelled
//	REQ002 - Request timed out
//
//	RATE001 - Rate limited
//
//	ERR000 - Unknown error. Check the logs for the technical error.
//
// Patterns are matched case-insensitively with strings.Contains; the first
// match wins, so specific patterns come before general ones.

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// File errors
	{
		pattern: "token too long",
		msg: UserMessage{
			Message: "Source file contains a line longer than 16MB",
			Action:  "Check that the file is a line-oriented register extract",
			Code:    "FILE003",
		},
	},

	// Database connection errors
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB002",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB003",
		},
	},

	// Request errors. "context deadline exceeded" must precede "timeout".
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Narrow the query or try again later",
			Code:    "REQ002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB004",
		},
	},

	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Known error values and types are checked first; otherwise the error text
// is matched against errorPatterns. Unmatched errors map to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	if msg, ok := mapTyped(err); ok {
		return msg
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

func mapTyped(err error) (UserMessage, bool) {
	var (
		qe  *QueryError
		ioe *IOError
		txe *TransactionError
	)

	switch {
	case errors.As(err, &qe):
		return UserMessage{
			Message: "Invalid query: " + qe.Field + " " + qe.Reason,
			Action:  "Correct the request parameters",
			Code:    "QRY001",
		}, true
	case errors.Is(err, ErrNotFound):
		return UserMessage{
			Message: "Registration not found",
			Action:  "Check the registration number",
			Code:    "QRY002",
		}, true
	case errors.Is(err, ErrStoreNotInitialized):
		return UserMessage{
			Message: "The registry store is not initialized",
			Action:  `Run "regsync migrate up" and import a register extract`,
			Code:    "STORE001",
		}, true
	case errors.Is(err, ErrImportLocked):
		return UserMessage{
			Message: "Another import is already running",
			Action:  "Wait for it to finish, or remove a stale lock",
			Code:    "IMP001",
		}, true
	case errors.Is(err, ErrDuplicateVersion):
		return UserMessage{
			Message: "This source file has already been imported",
			Action:  "No action needed",
			Code:    "IMP003",
		}, true
	case errors.As(err, &ioe):
		if errors.Is(ioe.Err, fs.ErrNotExist) {
			return UserMessage{
				Message: "Source file not found: " + ioe.Path,
				Action:  "Check IMPORT_SOURCE_PATH or the import argument",
				Code:    "FILE001",
			}, true
		}
		if msg, ok := matchPattern(ioe.Err); ok {
			return msg, true
		}
		return UserMessage{
			Message: "Source file could not be read: " + ioe.Path,
			Action:  "Check the file exists and is readable",
			Code:    "FILE002",
		}, true
	case errors.As(err, &txe):
		if msg, ok := matchPattern(txe.Err); ok {
			return msg, true
		}
		return UserMessage{
			Message: "Import failed while writing to the database",
			Action:  "Re-run the import; committed batches remain until then",
			Code:    "IMP002",
		}, true
	}
	return UserMessage{}, false
}

func matchPattern(err error) (UserMessage, bool) {
	if err == nil {
		return UserMessage{}, false
	}
	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg, true
		}
	}
	return UserMessage{}, false
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error, kept for logging, with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
