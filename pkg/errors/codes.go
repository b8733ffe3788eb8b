package errors

// ErrorCode is a stable, machine-readable identifier for a failure category.
// Codes are grouped by concern: COMMON_* for cross-cutting failures and
// CARRIER_* / AUDIT_* for the carrier-intelligence domain.
type ErrorCode string

// Common cross-cutting error codes.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeTimeout            ErrorCode = "COMMON_005"
	ErrCodeValidation         ErrorCode = "COMMON_006"
	ErrCodeSerialization      ErrorCode = "COMMON_007"
	ErrCodeDatabaseError      ErrorCode = "COMMON_008"
	ErrCodeCacheError         ErrorCode = "COMMON_009"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_010"
	ErrCodeNotImplemented     ErrorCode = "COMMON_011"
)

// Carrier-intelligence domain error codes.
const (
	ErrCodePatternNotFound   ErrorCode = "CARRIER_001"
	ErrCodeCarrierNotFound   ErrorCode = "CARRIER_002"
	ErrCodePatternConflict   ErrorCode = "CARRIER_003"
	ErrCodeInvalidPattern    ErrorCode = "CARRIER_004"
	ErrCodeInvalidAuditInput ErrorCode = "AUDIT_001"
	ErrCodeAuditWriteFailed  ErrorCode = "AUDIT_002"
	ErrCodeAuditSignalDecode ErrorCode = "AUDIT_003"
)

// codeMessages maps each code to its default human-readable summary, used
// when a factory is called without a bespoke message.
var codeMessages = map[ErrorCode]string{
	ErrCodeInternal:           "internal error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTimeout:            "operation timed out",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeNotImplemented:     "not implemented",
	ErrCodePatternNotFound:    "carrier pattern not found",
	ErrCodeCarrierNotFound:    "carrier not found",
	ErrCodePatternConflict:    "carrier pattern conflict",
	ErrCodeInvalidPattern:     "invalid carrier pattern",
	ErrCodeInvalidAuditInput:  "invalid audit input",
	ErrCodeAuditWriteFailed:   "audit outcome write failed",
	ErrCodeAuditSignalDecode:  "audit signal decode failed",
}

// String returns the stable string form of the code.
func (c ErrorCode) String() string { return string(c) }

// DefaultMessage returns the canonical summary text for the code, or the
// internal-error summary for unknown codes.
func (c ErrorCode) DefaultMessage() string {
	if m, ok := codeMessages[c]; ok {
		return m
	}
	return codeMessages[ErrCodeInternal]
}
