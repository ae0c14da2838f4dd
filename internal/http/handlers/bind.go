package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/geocoder89/storefront/internal/credentials"
	"github.com/gin-gonic/gin"
)

// BindJSON decodes the request body into out. Decoding problems are answered
// with a field-tagged 400; rule checks happen later in the service.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	if err := ctx.ShouldBindJSON(out); err != nil {
		if fe := bindFieldError(err); fe != nil {
			RespondValidation(ctx, fe)
		} else {
			RespondError(ctx, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body is too large", nil)
		}
		return false
	}

	return true
}

// bindFieldError returns nil only for oversized bodies.
func bindFieldError(err error) *credentials.FieldError {
	var (
		syntaxErr  *json.SyntaxError
		typeErr    *json.UnmarshalTypeError
		tooLongErr *http.MaxBytesError
	)

	switch {
	case errors.As(err, &tooLongErr):
		return nil
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return &credentials.FieldError{Field: field, Message: fmt.Sprintf("must be of type %s", typeErr.Type.String())}
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return &credentials.FieldError{Field: "body", Message: "must be valid JSON"}
	case errors.Is(err, io.EOF):
		return &credentials.FieldError{Field: "body", Message: "is required"}
	default:
		return &credentials.FieldError{Field: "body", Message: "could not be decoded"}
	}
}
