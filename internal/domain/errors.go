package domain

import (
	"errors"
	"fmt"

	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/geo"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/query"
)

type ErrCode string

const (
	CodeValidation      ErrCode = "validation_error"
	CodeInvalidArgument ErrCode = "invalid_argument"
	CodeNotFound        ErrCode = "not_found"
	CodeForbidden       ErrCode = "forbidden"
	CodeConflict        ErrCode = "conflict"
)

type AppError struct {
	Code    ErrCode
	Message string
	Meta    map[string]string
}

func (e *AppError) Error() string {
	if len(e.Meta) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Meta)
}

func ErrValidation(msg string) error { return &AppError{Code: CodeValidation, Message: msg} }
func ErrValidationMeta(msg string, meta map[string]string) error {
	return &AppError{Code: CodeValidation, Message: msg, Meta: meta}
}
func ErrInvalidArgument(msg string, meta map[string]string) error {
	return &AppError{Code: CodeInvalidArgument, Message: msg, Meta: meta}
}
func ErrNotFound(msg string) error  { return &AppError{Code: CodeNotFound, Message: msg} }
func ErrForbidden(msg string) error { return &AppError{Code: CodeForbidden, Message: msg} }
func ErrConflict(msg string) error  { return &AppError{Code: CodeConflict, Message: msg} }

// FromValidation lifts query and geo input errors into AppErrors; anything
// else is returned as is.
func FromValidation(err error) error {
	if err == nil {
		return nil
	}
	var ve *query.ValidationError
	if errors.As(err, &ve) {
		return ErrValidationMeta("invalid "+ve.Field, map[string]string{ve.Field: ve.Message})
	}
	var ce *geo.InvalidCoordinateError
	if errors.As(err, &ce) {
		return ErrInvalidArgument("invalid coordinate", map[string]string{ce.Field: ce.Reason})
	}
	return err
}

func IsCode(err error, code ErrCode) bool {
	var ae *AppError
	return errors.As(err, &ae) && ae.Code == code
}
