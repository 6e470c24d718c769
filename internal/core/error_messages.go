package core

// # Error Codes Reference
//
// This file maps technical errors to user-facing messages with codes for
// support reference. A user can quote the code shown next to an error and
// support can look it up here.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: A file exceeds the upload size limit
//	          Action: Split the file or upload fewer files at once
//	          Patterns: "file too large", "request body too large"
//
//	FILE002 - Invalid CSV: File is not a valid CSV
//	          Action: Ensure every row has no more fields than the header
//	          Patterns: "invalid csv"
//
//	FILE003 - Encoding error: File contains invalid characters
//	          Action: Save file as UTF-8 encoding
//	          Patterns: "encoding error"
//
//	FILE004 - No file: No files were uploaded
//	          Action: Upload files before running the tool
//	          Sentinel: ErrNoInputs. Patterns: "no file provided"
//
//	FILE005 - Empty file: An uploaded file is empty
//	          Action: Upload a file with a header row
//	          Sentinel: ErrEmptyFile
//
//	FILE006 - Unsupported format: The file type is not accepted by this tool
//	          Action: Check the accepted file extensions for this tool
//	          Sentinel: ErrUnsupportedFormat
//
//	FILE007 - Invalid spreadsheet: File is not a readable .xlsx workbook
//	          Action: Re-save the workbook as .xlsx and try again
//	          Patterns: "invalid spreadsheet"
//
//	FILE008 - No header: The file has no header row
//	          Action: Add a header row naming each column
//	          Sentinel: ErrNoHeader
//
//	FILE009 - Too many files: Too many files were uploaded at once
//	          Action: Upload fewer files and try again
//	          Patterns: "too many files"
//
// # Document Errors (DOC001-DOC099)
//
//	DOC001 - Invalid PDF: A file could not be read as a PDF
//	         Action: Check the file opens in a PDF viewer and is not password protected
//	         Patterns: "invalid pdf"
//
//	DOC002 - Merge failed: The pages could not be combined
//	         Action: Try merging fewer documents at once
//	         Kind: KindDocument
//
// # Operation Errors (OP001-OP099)
//
//	OP001 - Invalid rows per file: Rows per file must be at least 1
//	        Action: Enter a whole number of 1 or more
//	        Sentinel: ErrInvalidChunkSize
//
//	OP002 - Columns differ: Files do not share the same columns
//	        Action: Turn off strict mode to merge with empty cells for missing columns
//	        Kind: KindSchema
//
//	OP003 - Unknown tool: The selected tool does not exist
//	        Action: Return to the dashboard and pick a tool
//	        Sentinel: ErrUnknownOperation
//
//	OP004 - Cannot move: The file is already first or last
//	        Action: Move it the other way
//	        Sentinel: ErrOrderBoundary
//
//	OP005 - Invalid position: The file position is out of range
//	        Action: Refresh the page and try again
//	        Sentinel: ErrOrderPosition
//
//	OP006 - Output failed: The result could not be written
//	        Action: Please try again or contact support
//	        Kind: KindIO
//
//	OP007 - Cannot run: The tool cannot run with these inputs
//	        Action: Check the uploaded files and options
//	        Kind: KindPrecondition
//
//	OP008 - Invalid option: A tool option has an invalid value
//	        Action: Check the options and try again
//	        Patterns: "invalid option"
//
// # Session Errors (SES001-SES099)
//
//	SES001 - Session expired: Your session was not found
//	         Action: Reload the page and upload your files again
//	         Sentinel: ErrNoSession
//
//	SES002 - Result expired: The job was not found
//	         Action: Run the tool again
//	         Sentinel: ErrJobNotFound
//
//	SES003 - Request cancelled: Request was cancelled
//	         Action: Please try again
//	         Patterns: "context canceled"
//
//	SES004 - Request timeout: Request timed out
//	         Action: Try smaller files or check your connection
//	         Patterns: "context deadline exceeded"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//	          Action: Please wait a moment before trying again
//	          Patterns: "rate limit"
//
//	RATE002 - System busy: Too many jobs in progress
//	          Action: Please wait a moment and try again
//	          Sentinel: ErrTooManyJobs
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Matching Order
//
// MapError checks sentinels with errors.Is first, then the pattern table
// (case-insensitive strings.Contains, first match wins), then the error's
// Kind. When a user reports ERR000, check the logs for the technical error.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgNoInputs = UserMessage{
		Message: "No files were uploaded",
		Action:  "Upload files before running the tool",
		Code:    "FILE004",
	}
	msgEmptyFile = UserMessage{
		Message: "An uploaded file is empty",
		Action:  "Upload a file with a header row",
		Code:    "FILE005",
	}
	msgUnsupported = UserMessage{
		Message: "This file type is not accepted by the tool",
		Action:  "Check the accepted file extensions for this tool",
		Code:    "FILE006",
	}
	msgNoHeader = UserMessage{
		Message: "The file has no header row",
		Action:  "Add a header row naming each column",
		Code:    "FILE008",
	}
	msgMergeFailed = UserMessage{
		Message: "The pages could not be combined",
		Action:  "Try merging fewer documents at once",
		Code:    "DOC002",
	}
	msgChunkSize = UserMessage{
		Message: "Rows per file must be at least 1",
		Action:  "Enter a whole number of 1 or more",
		Code:    "OP001",
	}
	msgSchema = UserMessage{
		Message: "Files do not share the same columns",
		Action:  "Turn off strict mode to merge with empty cells for missing columns",
		Code:    "OP002",
	}
	msgUnknownOp = UserMessage{
		Message: "The selected tool does not exist",
		Action:  "Return to the dashboard and pick a tool",
		Code:    "OP003",
	}
	msgBoundary = UserMessage{
		Message: "The file is already at the edge of the list",
		Action:  "Move it the other way",
		Code:    "OP004",
	}
	msgPosition = UserMessage{
		Message: "The file position is out of range",
		Action:  "Refresh the page and try again",
		Code:    "OP005",
	}
	msgOutput = UserMessage{
		Message: "The result could not be written",
		Action:  "Please try again or contact support",
		Code:    "OP006",
	}
	msgNoSession = UserMessage{
		Message: "Your session was not found",
		Action:  "Reload the page and upload your files again",
		Code:    "SES001",
	}
	msgNoJob = UserMessage{
		Message: "This result is no longer available",
		Action:  "Run the tool again",
		Code:    "SES002",
	}
	msgBusy = UserMessage{
		Message: "System is busy processing other jobs",
		Action:  "Please wait a moment and try again",
		Code:    "RATE002",
	}
)

// sentinelMessages is checked with errors.Is before any pattern.
var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrNoInputs, msgNoInputs},
	{ErrEmptyFile, msgEmptyFile},
	{ErrUnsupportedFormat, msgUnsupported},
	{ErrNoHeader, msgNoHeader},
	{ErrInvalidChunkSize, msgChunkSize},
	{ErrUnknownOperation, msgUnknownOp},
	{ErrOrderBoundary, msgBoundary},
	{ErrOrderPosition, msgPosition},
	{ErrNoSession, msgNoSession},
	{ErrJobNotFound, msgNoJob},
	{ErrTooManyJobs, msgBusy},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
// The first matching pattern wins, so specific patterns come first.
var errorPatterns = []errorPattern{
	// =========================================================================
	// File Errors
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "A file exceeds the upload size limit",
			Action:  "Split the file or upload fewer files at once",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "A file exceeds the upload size limit",
			Action:  "Split the file or upload fewer files at once",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure every row has no more fields than the header",
			Code:    "FILE002",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save file as UTF-8 encoding",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg:     msgNoInputs,
	},
	{
		pattern: "too many files",
		msg: UserMessage{
			Message: "Too many files were uploaded at once",
			Action:  "Upload fewer files and try again",
			Code:    "FILE009",
		},
	},
	{
		pattern: "invalid spreadsheet",
		msg: UserMessage{
			Message: "File is not a readable Excel workbook",
			Action:  "Re-save the workbook as .xlsx and try again",
			Code:    "FILE007",
		},
	},

	// =========================================================================
	// Document Errors
	// =========================================================================
	{
		pattern: "invalid pdf",
		msg: UserMessage{
			Message: "A file could not be read as a PDF",
			Action:  "Check the file opens in a PDF viewer and is not password protected",
			Code:    "DOC001",
		},
	},

	// =========================================================================
	// Request Errors
	// =========================================================================
	{
		pattern: "invalid option",
		msg: UserMessage{
			Message: "A tool option has an invalid value",
			Action:  "Check the options and try again",
			Code:    "OP008",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "SES003",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try smaller files or check your connection",
			Code:    "SES004",
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

// kindMessages is the fallback for OpErrors no sentinel or pattern matched.
var kindMessages = map[ErrorKind]UserMessage{
	KindParse: {
		Message: "A file could not be read",
		Action:  "Check the file is a valid CSV or Excel file",
		Code:    "FILE002",
	},
	KindDocument:     msgMergeFailed,
	KindIO:           msgOutput,
	KindSchema:       msgSchema,
	KindPrecondition: {
		Message: "The tool cannot run with these inputs",
		Action:  "Check the uploaded files and options",
		Code:    "OP007",
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	err := fmt.Errorf("split: %w", ErrInvalidChunkSize)
//	msg := MapError(err)
//	// msg.Code == "OP001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.err) {
			return s.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	if msg, ok := kindMessages[KindOf(err)]; ok {
		return msg
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action", with the offending file
// named first when the error carries one.
//
// Example output: "report.pdf: A file could not be read as a PDF (Code: DOC001). Check the file opens in a PDF viewer and is not password protected"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}

	text := fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
	var opErr *OpError
	if errors.As(err, &opErr) && opErr.File != "" {
		text = opErr.File + ": " + text
	}
	return text
}

// IsUserFacing reports whether err maps to a specific message rather than
// the generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
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
