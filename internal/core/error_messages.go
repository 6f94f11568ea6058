// error_messages.go maps technical errors to user-friendly messages with
// support codes.
//
// # Error Code Reference
//
// Schema Errors (SCH001-SCH002):
//
//	SCH001 - Header matches no known variant
//	SCH002 - File has no rows
//
// Row Validation Errors (VAL001-VAL006):
//
//	VAL001 - Duplicate ID
//	VAL002 - Invalid ID
//	VAL003 - Invalid terms and conditions
//	VAL004 - Invalid file content type
//	VAL005 - Invalid file hash
//	VAL006 - Invalid token type
//
// Ledger Errors (LED001-LED005):
//
//	LED001 - Item exists without its file slot (integrity violation)
//	LED002 - Item already exists
//	LED003 - File already uploaded
//	LED004 - Item or file slot not found
//	LED005 - Content hash mismatch
//
// Input File Errors (FILE001-FILE004):
//
//	FILE001 - File too large
//	FILE002 - Malformed CSV
//	FILE003 - Malformed XLSX
//	FILE004 - File not found
//
// Upload Errors (UPL001-UPL003):
//
//	UPL001 - Too many concurrent uploads
//	UPL002 - Request cancelled
//	UPL003 - Request timed out
//
// Storage Errors (DB001-DB003):
//
//	DB001 - Duplicate key
//	DB002 - Connection refused
//	DB003 - Connection reset
//
// Fallback: ERR000.
//
// Patterns are matched case-insensitively with strings.Contains; the first
// match wins, so specific patterns come first.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Schema
	{
		pattern: "unexpected schema",
		msg: UserMessage{
			Message: "The file header matches no known item schema",
			Action:  "Check the number of columns and the header names",
			Code:    "SCH001",
		},
	},
	{
		pattern: "given file is empty",
		msg: UserMessage{
			Message: "The file contains no rows",
			Action:  "Add at least one item row below the header",
			Code:    "SCH002",
		},
	},

	// Row validation
	{
		pattern: "duplicate id",
		msg: UserMessage{
			Message: "The same ID appears more than once",
			Action:  "Make every ID unique within the file",
			Code:    "VAL001",
		},
	},
	{
		pattern: "invalid id",
		msg: UserMessage{
			Message: "An ID looks like a hash but is malformed",
			Action:  "Use 0x followed by 64 hex digits, or an ID not starting with 0x",
			Code:    "VAL002",
		},
	},
	{pattern: "t&c", msg: termsMessage},
	{pattern: "logion_classification:", msg: termsMessage},
	{pattern: "unknown country code", msg: termsMessage},
	{pattern: "cc4.0:", msg: termsMessage},
	{pattern: "specific_license:", msg: termsMessage},
	{
		pattern: "invalid file content type",
		msg: UserMessage{
			Message: "A file content type is not a known MIME type",
			Action:  "Use a MIME type such as application/pdf or image/png",
			Code:    "VAL004",
		},
	},
	{
		pattern: "invalid file hash",
		msg: UserMessage{
			Message: "A file hash is malformed",
			Action:  "Use 0x followed by the 64 hex digit SHA-256 of the file",
			Code:    "VAL005",
		},
	},
	{
		pattern: "invalid token type",
		msg: UserMessage{
			Message: "A token type is not supported",
			Action:  "Check the list of supported token types",
			Code:    "VAL006",
		},
	},

	// Ledger
	{
		pattern: "ledger integrity",
		msg: UserMessage{
			Message: "An existing item has no slot for its declared file",
			Action:  "Compare the file hash in the CSV with the ledger before re-running",
			Code:    "LED001",
		},
	},
	{
		pattern: "item already exists",
		msg: UserMessage{
			Message: "An item with this ID already exists in the ledger",
			Action:  "Re-run the import; existing items are skipped",
			Code:    "LED002",
		},
	},
	{
		pattern: "already uploaded",
		msg: UserMessage{
			Message: "The file was already uploaded",
			Action:  "No action needed",
			Code:    "LED003",
		},
	},
	{
		pattern: "not found in ledger",
		msg: UserMessage{
			Message: "Item or file slot not found",
			Action:  "Create the item before uploading its file",
			Code:    "LED004",
		},
	},
	{
		pattern: "hash mismatch",
		msg: UserMessage{
			Message: "File content does not match its declared hash",
			Action:  "Fix the FILE HASH column or replace the file",
			Code:    "LED005",
		},
	},

	// Input files
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Upload a smaller file",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure file is comma-separated with consistent quoting",
			Code:    "FILE002",
		},
	},
	{
		pattern: "no such file",
		msg: UserMessage{
			Message: "File not found",
			Action:  "Check the path and the --dir option",
			Code:    "FILE004",
		},
	},
	{
		pattern: "xlsx",
		msg: UserMessage{
			Message: "File is not a readable workbook",
			Action:  "Save the file as .xlsx or export it to CSV",
			Code:    "FILE003",
		},
	},

	// Uploads
	{
		pattern: "too many concurrent uploads",
		msg: UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "UPL001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try again later or raise LEDGER_TIMEOUT",
			Code:    "UPL003",
		},
	},

	// Storage
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this ID already exists",
			Action:  "Re-run the import; existing items are skipped",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the ledger",
			Action:  "Check LEDGER_URL or DATABASE_URL and try again",
			Code:    "DB002",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Connection was interrupted",
			Action:  "Please try again; the import resumes safely",
			Code:    "DB003",
		},
	},
}

var termsMessage = UserMessage{
	Message: "Terms and conditions are invalid",
	Action:  "Use none, CC4.0, logion_classification or specific_license with matching parameters",
	Code:    "VAL003",
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, the ERR000 fallback is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError formats err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user message.
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

// NewUserError maps err. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
