package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodePayloadTooLarge    ErrorCode = "COMMON_003"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeFeatureDisabled    ErrorCode = "COMMON_015"
	ErrCodeNotImplemented     ErrorCode = "COMMON_016"
	ErrCodeStorageError       ErrorCode = "COMMON_017"
	ErrCodeMessagingError     ErrorCode = "COMMON_018"
)

// Aliases kept short for call sites.
const (
	CodeInternal       = ErrCodeInternal
	CodeInvalidParam   = ErrCodeBadRequest
	CodeNotFound       = ErrCodeNotFound
	CodeConflict       = ErrCodeConflict
	CodeRateLimit      = ErrCodeTooManyRequests
	CodeNotImplemented = ErrCodeNotImplemented
	CodeOK             = ErrorCode("OK")
	CodeUnknown        = ErrorCode("UNKNOWN")

	CodeMalformedRecord   = ErrCodeMalformedRecord
	CodeSessionNotFound   = ErrCodeSessionNotFound
	CodeCacheError        = ErrCodeCacheError
	CodeStorageError      = ErrCodeStorageError
	CodeMessageQueueError = ErrCodeMessagingError
)

// Molecule Module Error Codes
const (
	ErrCodeMoleculeInvalidSMILES    ErrorCode = "MOL_001"
	ErrCodeMoleculeInvalidFormat    ErrorCode = "MOL_003"
	ErrCodeMoleculeParsingFailed    ErrorCode = "MOL_006"
	ErrCodeMoleculeConversionFailed ErrorCode = "MOL_011"
	ErrCodeMalformedRecord          ErrorCode = "MOL_016"
)

// Scene / Viewer Module Error Codes
const (
	ErrCodeSceneBuildFailed    ErrorCode = "SCN_001"
	ErrCodeSceneNotFound       ErrorCode = "SCN_002"
	ErrCodeSceneExportFailed   ErrorCode = "SCN_003"
	ErrCodeSessionNotFound     ErrorCode = "SCN_004"
	ErrCodeSessionLimitReached ErrorCode = "SCN_005"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodePayloadTooLarge:    http.StatusRequestEntityTooLarge,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeFeatureDisabled:    http.StatusForbidden,
	ErrCodeNotImplemented:     http.StatusNotImplemented,
	ErrCodeStorageError:       http.StatusInternalServerError,
	ErrCodeMessagingError:     http.StatusInternalServerError,

	ErrCodeMoleculeInvalidSMILES:    http.StatusBadRequest,
	ErrCodeMoleculeInvalidFormat:    http.StatusBadRequest,
	ErrCodeMoleculeParsingFailed:    http.StatusInternalServerError,
	ErrCodeMoleculeConversionFailed: http.StatusBadGateway,
	ErrCodeMalformedRecord:          http.StatusUnprocessableEntity,

	ErrCodeSceneBuildFailed:    http.StatusInternalServerError,
	ErrCodeSceneNotFound:       http.StatusNotFound,
	ErrCodeSceneExportFailed:   http.StatusInternalServerError,
	ErrCodeSessionNotFound:     http.StatusNotFound,
	ErrCodeSessionLimitReached: http.StatusTooManyRequests,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodePayloadTooLarge:    "request body too large",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeFeatureDisabled:    "feature disabled",
	ErrCodeNotImplemented:     "not implemented",
	ErrCodeStorageError:       "object storage error",
	ErrCodeMessagingError:     "message queue error",

	ErrCodeMoleculeInvalidSMILES:    "invalid SMILES format",
	ErrCodeMoleculeInvalidFormat:    "unsupported molecule format",
	ErrCodeMoleculeParsingFailed:    "failed to parse molecule",
	ErrCodeMoleculeConversionFailed: "molecule format conversion failed",
	ErrCodeMalformedRecord:          "malformed structure record",

	ErrCodeSceneBuildFailed:    "scene build failed",
	ErrCodeSceneNotFound:       "scene not found",
	ErrCodeSceneExportFailed:   "scene export failed",
	ErrCodeSessionNotFound:     "viewer session not found",
	ErrCodeSessionLimitReached: "viewer session limit reached",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
