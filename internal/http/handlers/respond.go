package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/geocoder89/storefront/internal/credentials"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	if v, ok := ctx.Get("request_id"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}

	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

// RespondValidation reports a single offending field.
func RespondValidation(ctx *gin.Context, fe *credentials.FieldError) {
	RespondError(ctx, http.StatusBadRequest, "validation_error", fe.Field+" "+fe.Message, fe)
}

func RespondUnauthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondForbidden(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusForbidden, code, message, nil)
}

func RespondLocked(ctx *gin.Context, until time.Time, now time.Time) {
	locked := &credentials.LockedError{Until: until}
	minutes := locked.MinutesRemaining(now)

	RespondError(ctx, http.StatusLocked, "account_locked",
		fmt.Sprintf("Account temporarily locked. Try again in %d minute(s).", minutes),
		gin.H{
			"lockedUntil":      until.UTC().Format(time.RFC3339),
			"minutesRemaining": minutes,
		},
	)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

// respondServiceError maps credential service errors onto the API envelope.
// Anything unrecognised becomes a generic 500; details stay in the logs.
func respondServiceError(ctx *gin.Context, err error, now time.Time, fallback string) {
	var (
		fe     *credentials.FieldError
		locked *credentials.LockedError
	)

	switch {
	case errors.As(err, &fe):
		RespondValidation(ctx, fe)
	case errors.As(err, &locked):
		RespondLocked(ctx, locked.Until, now)
	case errors.Is(err, credentials.ErrInvalidCredentials):
		RespondUnauthorized(ctx, "invalid_credentials", "Invalid credentials")
	case errors.Is(err, credentials.ErrNotAuthenticated):
		RespondUnauthorized(ctx, "not_authenticated", "Not authenticated")
	default:
		RespondInternal(ctx, fallback)
	}
}
