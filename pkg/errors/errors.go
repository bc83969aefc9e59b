package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown        ErrorCode = "UNKNOWN"
	ErrInternal       ErrorCode = "INTERNAL"
	ErrInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrNotImplemented ErrorCode = "NOT_IMPLEMENTED"
	ErrPermission     ErrorCode = "PERMISSION"
	ErrIO             ErrorCode = "IO_ERROR"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"
	ErrConfigNewer ErrorCode = "CONFIG_NEWER_VERSION"

	// Package and recipe errors
	ErrPackageNotFound  ErrorCode = "PACKAGE_NOT_FOUND"
	ErrPackageInstalled ErrorCode = "PACKAGE_ALREADY_INSTALLED"
	ErrVersionNotFound  ErrorCode = "VERSION_NOT_FOUND"
	ErrPlatformSupport  ErrorCode = "PLATFORM_NOT_SUPPORTED"
	ErrRepoFormat       ErrorCode = "INVALID_REPO_FORMAT"
	ErrInsecurePackage  ErrorCode = "INSECURE_PACKAGE"

	// Registry errors
	ErrRegistryNotFound ErrorCode = "REGISTRY_NOT_FOUND"
	ErrRegistryExists   ErrorCode = "REGISTRY_EXISTS"
	ErrGitScheme        ErrorCode = "GIT_SCHEME_BLOCKED"
	ErrGitBomb          ErrorCode = "GIT_REPOSITORY_TOO_LARGE"
	ErrGitOperation     ErrorCode = "GIT_OPERATION_FAILED"

	// Network errors
	ErrNetwork         ErrorCode = "NETWORK_ERROR"
	ErrBadScheme       ErrorCode = "URL_SCHEME_BLOCKED"
	ErrBlockedHost     ErrorCode = "URL_HOST_BLOCKED"
	ErrDNSRebind       ErrorCode = "DNS_REBINDING_DETECTED"
	ErrRedirectBlocked ErrorCode = "REDIRECT_BLOCKED"
	ErrContentTooLarge ErrorCode = "CONTENT_TOO_LARGE"
	ErrHTTPStatus      ErrorCode = "HTTP_STATUS"

	// Verification errors
	ErrChecksumMismatch  ErrorCode = "CHECKSUM_MISMATCH"
	ErrChecksumMissing   ErrorCode = "NO_CHECKSUM_CONFIGURED"
	ErrChecksumFormat    ErrorCode = "CHECKSUM_FORMAT"
	ErrSignatureInvalid  ErrorCode = "SIGNATURE_INVALID"
	ErrGpgNotImplemented ErrorCode = "GPG_NOT_IMPLEMENTED"
	ErrCertPinMismatch   ErrorCode = "CERTIFICATE_PIN_MISMATCH"

	// Template and pattern errors
	ErrTemplateTooLong   ErrorCode = "TEMPLATE_VALUE_TOO_LONG"
	ErrTemplateTraversal ErrorCode = "TEMPLATE_PATH_TRAVERSAL"
	ErrTemplateNullByte  ErrorCode = "TEMPLATE_NULL_BYTE"
	ErrTemplateNewline   ErrorCode = "TEMPLATE_NEWLINE"
	ErrPatternTooLong    ErrorCode = "PATTERN_TOO_LONG"
	ErrPatternGroups     ErrorCode = "PATTERN_TOO_MANY_GROUPS"
	ErrPatternCompile    ErrorCode = "PATTERN_COMPILE"

	// Extraction errors
	ErrArchiveFormat   ErrorCode = "UNSUPPORTED_ARCHIVE_FORMAT"
	ErrOversizeFile    ErrorCode = "EXTRACT_FILE_TOO_LARGE"
	ErrOversizeTotal   ErrorCode = "EXTRACT_TOTAL_TOO_LARGE"
	ErrTooManyFiles    ErrorCode = "EXTRACT_TOO_MANY_FILES"
	ErrDepthExceeded   ErrorCode = "EXTRACT_DEPTH_EXCEEDED"
	ErrPathTooLong     ErrorCode = "EXTRACT_PATH_TOO_LONG"
	ErrPathTraversal   ErrorCode = "PATH_TRAVERSAL_DETECTED"

	// Deployment errors
	ErrGlobNoMatch    ErrorCode = "GLOB_NO_MATCH"
	ErrPathEscape     ErrorCode = "PATH_ESCAPE"
	ErrMissingBinary  ErrorCode = "MISSING_BINARY"
	ErrSymlinkTarget  ErrorCode = "SYMLINK_OUTSIDE_BIN"
	ErrSymlinkExists  ErrorCode = "SYMLINK_DESTINATION_OCCUPIED"
	ErrFileCreate     ErrorCode = "FILE_CREATE"
	ErrDirCreate      ErrorCode = "DIR_CREATE"
)

// OraError represents a structured error with code and details
type OraError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *OraError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *OraError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *OraError) Is(target error) bool {
	var targetErr *OraError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new OraError with the given code and message
func New(code ErrorCode, message string) *OraError {
	return &OraError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new OraError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *OraError {
	return &OraError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with an OraError
func Wrap(err error, code ErrorCode, message string) *OraError {
	if err == nil {
		return nil
	}
	return &OraError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *OraError {
	if err == nil {
		return nil
	}
	return &OraError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *OraError) WithDetail(key string, value interface{}) *OraError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var oraErr *OraError
	if errors.As(err, &oraErr) {
		return oraErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not an OraError
func GetErrorCode(err error) ErrorCode {
	var oraErr *OraError
	if errors.As(err, &oraErr) {
		return oraErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not an OraError
func GetErrorDetails(err error) map[string]interface{} {
	var oraErr *OraError
	if errors.As(err, &oraErr) {
		return oraErr.Details
	}
	return nil
}
