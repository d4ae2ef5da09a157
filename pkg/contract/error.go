package contract

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrorCodeUnsupportedType       ErrorCode = "UNSUPPORTED_TYPE"
	ErrorCodeColumnMismatch        ErrorCode = "COLUMN_MISMATCH"
	ErrorCodeInvalidArtifact       ErrorCode = "INVALID_ARTIFACT"
	ErrorCodeTargetMappingMismatch ErrorCode = "TARGET_MAPPING_MISMATCH"
	ErrorCodeValidation            ErrorCode = "VALIDATION_ERROR"
	ErrorCodeInvalidParameterValue ErrorCode = "INVALID_PARAMETER_VALUE"
	ErrorCodeBadRequest            ErrorCode = "BAD_REQUEST"
	ErrorCodeResourceDoesNotExist  ErrorCode = "RESOURCE_DOES_NOT_EXIST"
	ErrorCodeResourceAlreadyExists ErrorCode = "RESOURCE_ALREADY_EXISTS"
	ErrorCodeInvalidState          ErrorCode = "INVALID_STATE"
	ErrorCodeEndpointNotFound      ErrorCode = "ENDPOINT_NOT_FOUND"
	ErrorCodeInternalError         ErrorCode = "INTERNAL_ERROR"
)

type Error struct {
	Code    ErrorCode `json:"error_code"`
	Message string    `json:"message"`
	Inner   error     `json:"-"`
}

func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

func NewErrorWith(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Inner:   err,
	}
}

func Errorf(code ErrorCode, format string, args ...any) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Inner != nil {
		return fmt.Sprintf("%s: %v", msg, e.Inner)
	}

	return msg
}

func (e *Error) Unwrap() error {
	return e.Inner
}

// Is matches another *Error carrying the same code, so callers can compare
// against a bare code with errors.Is(err, contract.NewError(code, "")).
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}

	return other.Code == e.Code
}

//nolint:cyclop
func (e *Error) StatusCode() int {
	switch e.Code {
	case ErrorCodeUnsupportedType,
		ErrorCodeColumnMismatch,
		ErrorCodeInvalidArtifact,
		ErrorCodeTargetMappingMismatch,
		ErrorCodeValidation,
		ErrorCodeInvalidParameterValue,
		ErrorCodeBadRequest:
		return http.StatusBadRequest
	case ErrorCodeResourceDoesNotExist, ErrorCodeEndpointNotFound:
		return http.StatusNotFound
	case ErrorCodeResourceAlreadyExists, ErrorCodeInvalidState:
		return http.StatusConflict
	case ErrorCodeInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf returns the code of the first *Error in err's chain, or
// INTERNAL_ERROR when there is none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrorCodeInternalError
}
