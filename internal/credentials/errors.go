package credentials

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

// FieldError reports the first input rule that failed.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// LockedError is returned while an account is locked out.
type LockedError struct {
	Until time.Time
}

func (e *LockedError) Error() string {
	return "account locked until " + e.Until.UTC().Format(time.RFC3339)
}

// MinutesRemaining rounds up, so a lock with seconds left still reports 1.
func (e *LockedError) MinutesRemaining(now time.Time) int {
	left := e.Until.Sub(now)
	if left <= 0 {
		return 0
	}

	return int(math.Ceil(left.Minutes()))
}
