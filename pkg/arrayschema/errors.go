package arrayschema

import (
	"errors"
	"fmt"
)

// Code classifies an Error by the kind of contract violation it reports.
type Code string

const (
	CodeMissingField         Code = "MISSING_FIELD"
	CodeBadTypeSpec          Code = "BAD_TYPE_SPEC"
	CodeBadValue             Code = "BAD_VALUE"
	CodeDuplicateName        Code = "DUPLICATE_NAME"
	CodeIncompatibleOrder    Code = "INCOMPATIBLE_ORDER"
	CodeDenseRequiresExtents Code = "DENSE_REQUIRES_EXTENTS"
	CodeDenseCoordType       Code = "DENSE_COORD_TYPE"
	CodeBadSchemaImage       Code = "BAD_SCHEMA_IMAGE"
	CodeNotFinalized         Code = "SCHEMA_NOT_FINALIZED"
)

// Error is the structured error type returned by Builder and Codec
// operations. Accessors on a finalized Schema return one only for an
// out-of-range index, an unknown name in AttributeIDs, or TileNum on a
// schema without integer regular tiles.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("arrayschema: [%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("arrayschema: [%s] %s", e.Code, e.Message)
}

// Unwrap supports errors.Is/errors.As against Cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func newErr(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func wrapErr(code Code, cause error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}
