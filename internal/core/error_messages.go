package core

// # Error Codes Reference
//
// User-facing errors carry a code that can be quoted to support staff.
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Not found: The address does not exist
//	        Patterns: "address not found"
//	DB002 - Duplicate: A matching record already exists
//	        Patterns: "duplicate key", "unique constraint"
//	DB003 - Connection refused: Unable to connect to database
//	        Patterns: "connection refused"
//	DB004 - Connection reset: Database connection was interrupted
//	        Patterns: "connection reset"
//	DB005 - Busy: Database is busy
//	        Patterns: "database is locked"
//	DB006 - Timeout: Operation timed out
//	        Patterns: "timeout"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Required field: Required field is empty
//	         Patterns: "missing required fields"
//	VAL002 - Missing column: Required column is missing from the file
//	         Patterns: "missing required columns"
//	VAL003 - Postal code: Postal code has an invalid format
//	         Patterns: "invalid postal code"
//	VAL004 - Unknown field: Column name is not recognised
//	         Patterns: "unknown field"
//	VAL005 - Bad parameter: Request parameter is invalid
//	         Patterns: "invalid parameter"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds maximum size limit
//	FILE002 - Invalid CSV: File is not a valid CSV
//	FILE003 - Encoding error: File is not UTF-8
//	FILE004 - No file: No file was selected
//	FILE005 - Empty file: The uploaded file is empty
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - System busy: Too many imports in progress
//	IMP002 - Interrupted: Import stopped part-way; rows before the stop are saved
//	IMP003 - Request cancelled
//	IMP004 - Request timeout
//
// # Export and Print Errors (EXP001-EXP099)
//
//	EXP001 - Format unavailable: Export format is not available on this server
//	EXP002 - Render failed: Document could not be generated
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches. Check the application log, keyed by
// request id, for the technical error.
//
// Patterns are matched case-insensitively with strings.Contains; the first
// match wins, so specific patterns precede general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// Import flow
	// =========================================================================
	{"import interrupted", UserMessage{
		Message: "The import stopped before finishing",
		Action:  "Rows before the interruption were saved; re-upload the remaining rows",
		Code:    "IMP002",
	}},
	{"too many imports", UserMessage{
		Message: "System is busy processing other imports",
		Action:  "Please wait a moment and try again",
		Code:    "IMP001",
	}},

	// =========================================================================
	// Database
	// =========================================================================
	{"address not found", UserMessage{
		Message: "The address does not exist",
		Action:  "Refresh the list and pick another address",
		Code:    "DB001",
	}},
	{"duplicate key", UserMessage{
		Message: "A matching record already exists",
		Action:  "Check the file for repeated rows",
		Code:    "DB002",
	}},
	{"unique constraint", UserMessage{
		Message: "A matching record already exists",
		Action:  "Check the file for repeated rows",
		Code:    "DB002",
	}},
	{"connection refused", UserMessage{
		Message: "Unable to connect to database",
		Action:  "Please try again in a few moments",
		Code:    "DB003",
	}},
	{"connection reset", UserMessage{
		Message: "Database connection was interrupted",
		Action:  "Please try again",
		Code:    "DB004",
	}},
	{"database is locked", UserMessage{
		Message: "Database is busy",
		Action:  "Please try again",
		Code:    "DB005",
	}},

	// =========================================================================
	// Validation
	// =========================================================================
	{"missing required fields", UserMessage{
		Message: "Required field is empty",
		Action:  "Fill in first name, last name, street, city and postal code",
		Code:    "VAL001",
	}},
	{"missing required columns", UserMessage{
		Message: "Required column is missing from the file",
		Action:  "Add the listed columns to the header row",
		Code:    "VAL002",
	}},
	{"invalid postal code", UserMessage{
		Message: "Postal code has an invalid format",
		Action:  "Use 3 to 20 letters, digits, spaces or hyphens",
		Code:    "VAL003",
	}},
	{"unknown field", UserMessage{
		Message: "Column name is not recognised",
		Action:  "Use one of the documented address columns",
		Code:    "VAL004",
	}},
	{"invalid parameter", UserMessage{
		Message: "Request parameter is invalid",
		Action:  "Check the request parameters",
		Code:    "VAL005",
	}},

	// =========================================================================
	// Files
	// =========================================================================
	{"file too large", UserMessage{
		Message: "File exceeds maximum size limit",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE001",
	}},
	{"invalid csv", UserMessage{
		Message: "File is not a valid CSV",
		Action:  "Save the sheet as CSV separated by commas or semicolons",
		Code:    "FILE002",
	}},
	{"encoding error", UserMessage{
		Message: "File contains invalid characters",
		Action:  "Save file as UTF-8 encoding",
		Code:    "FILE003",
	}},
	{"no file provided", UserMessage{
		Message: "No file was selected",
		Action:  "Please select a CSV file to upload",
		Code:    "FILE004",
	}},
	{"file is empty", UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Please upload a CSV file with a header and data rows",
		Code:    "FILE005",
	}},

	// =========================================================================
	// Export and print
	// =========================================================================
	{"format unavailable", UserMessage{
		Message: "This export format is not available",
		Action:  "Choose another format or contact the administrator",
		Code:    "EXP001",
	}},
	{"render", UserMessage{
		Message: "The document could not be generated",
		Action:  "Please try again or contact support",
		Code:    "EXP002",
	}},

	// =========================================================================
	// Request lifecycle
	// =========================================================================
	{"context canceled", UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "IMP003",
	}},
	{"context deadline exceeded", UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "IMP004",
	}},
	{"timeout", UserMessage{
		Message: "Operation timed out",
		Action:  "Please try again later",
		Code:    "DB006",
	}},
	{"rate limit", UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// A nil error maps to the zero UserMessage.
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

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matched a specific pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
