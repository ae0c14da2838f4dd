package credentials

import (
	"strings"
	"unicode"

	"github.com/geocoder89/storefront/internal/domain/user"
	"github.com/go-playground/validator/v10"
)

const (
	maxPasswordBytes = 72 // bcrypt ignores anything beyond this
	minPhoneDigits   = 10
	maxPhoneDigits   = 15
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return isPhone(fl.Field().String())
	})
	_ = v.RegisterValidation("password_strength", func(fl validator.FieldLevel) bool {
		return isStrongPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("bcrypt_len", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= maxPasswordBytes
	})

	return v
}

type RegisterRequest struct {
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
}

// ValidatedRegistration holds normalized registration input.
type ValidatedRegistration struct {
	Email     string
	Phone     string
	Password  string
	FirstName string
	LastName  string
}

type ProfileUpdate struct {
	Email           *string `json:"email"`
	Phone           *string `json:"phone"`
	FirstName       *string `json:"firstName"`
	LastName        *string `json:"lastName"`
	Password        *string `json:"password"`
	ConfirmPassword *string `json:"confirmPassword"`
	CurrentPassword *string `json:"currentPassword"`
}

type rule struct {
	field   string
	value   string
	tag     string
	message string
}

func firstFailure(rules []rule) *FieldError {
	for _, r := range rules {
		if err := validate.Var(r.value, r.tag); err != nil {
			return &FieldError{Field: r.field, Message: r.message}
		}
	}

	return nil
}

func passwordRules(field, password string) []rule {
	return []rule{
		{field, password, "min=8", "must be at least 8 characters"},
		{field, password, "bcrypt_len", "must be at most 72 bytes"},
		{field, password, "password_strength", "must contain an uppercase letter, a lowercase letter and a digit"},
	}
}

func nameRule(field, name string) rule {
	return rule{field, strings.TrimSpace(name), "min=1,max=50", "must be between 1 and 50 characters"}
}

// ValidateRegistration checks req rule by rule and stops at the first
// failure. It has no side effects.
func ValidateRegistration(req RegisterRequest) (ValidatedRegistration, *FieldError) {
	rules := []rule{
		{"email", req.Email, "required", "is required"},
		{"password", req.Password, "required", "is required"},
		{"confirmPassword", req.ConfirmPassword, "required", "is required"},
		{"firstName", req.FirstName, "required", "is required"},
		{"lastName", req.LastName, "required", "is required"},
		{"email", strings.TrimSpace(req.Email), "email", "must be a valid email address"},
	}
	if strings.TrimSpace(req.Phone) != "" {
		rules = append(rules, rule{"phone", req.Phone, "phone", "must contain 10 to 15 digits"})
	}
	rules = append(rules, passwordRules("password", req.Password)...)

	if fe := firstFailure(rules); fe != nil {
		return ValidatedRegistration{}, fe
	}
	if err := validate.VarWithValue(req.ConfirmPassword, req.Password, "eqcsfield"); err != nil {
		return ValidatedRegistration{}, &FieldError{Field: "confirmPassword", Message: "must match password"}
	}
	if fe := firstFailure([]rule{nameRule("firstName", req.FirstName), nameRule("lastName", req.LastName)}); fe != nil {
		return ValidatedRegistration{}, fe
	}

	return ValidatedRegistration{
		Email:     user.NormalizeEmail(req.Email),
		Phone:     user.NormalizePhone(req.Phone),
		Password:  req.Password,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
	}, nil
}

// ValidateLogin only checks presence; wrong formats simply fail to match.
func ValidateLogin(identifier, password string) *FieldError {
	return firstFailure([]rule{
		{"email", strings.TrimSpace(identifier), "required", "is required"},
		{"password", password, "required", "is required"},
	})
}

// ValidateProfileUpdate applies the registration rules to the fields present
// in upd and converts it into directory updates.
func ValidateProfileUpdate(upd ProfileUpdate) (user.Updates, *FieldError) {
	var (
		out   user.Updates
		rules []rule
	)

	if upd.Email != nil {
		rules = append(rules, rule{"email", strings.TrimSpace(*upd.Email), "required,email", "must be a valid email address"})
	}
	if upd.Phone != nil && strings.TrimSpace(*upd.Phone) != "" {
		rules = append(rules, rule{"phone", *upd.Phone, "phone", "must contain 10 to 15 digits"})
	}
	if upd.Password != nil {
		rules = append(rules, passwordRules("password", *upd.Password)...)
	}

	if fe := firstFailure(rules); fe != nil {
		return user.Updates{}, fe
	}

	if upd.Password != nil {
		confirm := ""
		if upd.ConfirmPassword != nil {
			confirm = *upd.ConfirmPassword
		}
		if err := validate.VarWithValue(confirm, *upd.Password, "eqcsfield"); err != nil {
			return user.Updates{}, &FieldError{Field: "confirmPassword", Message: "must match password"}
		}
		if upd.CurrentPassword == nil || *upd.CurrentPassword == "" {
			return user.Updates{}, &FieldError{Field: "currentPassword", Message: "is required to change password"}
		}
	}

	if upd.FirstName != nil {
		if fe := firstFailure([]rule{nameRule("firstName", *upd.FirstName)}); fe != nil {
			return user.Updates{}, fe
		}
		v := strings.TrimSpace(*upd.FirstName)
		out.FirstName = &v
	}
	if upd.LastName != nil {
		if fe := firstFailure([]rule{nameRule("lastName", *upd.LastName)}); fe != nil {
			return user.Updates{}, fe
		}
		v := strings.TrimSpace(*upd.LastName)
		out.LastName = &v
	}

	if upd.Email != nil {
		v := user.NormalizeEmail(*upd.Email)
		out.Email = &v
	}
	if upd.Phone != nil {
		v := user.NormalizePhone(*upd.Phone)
		out.Phone = &v
	}
	out.Password = upd.Password

	if out.Empty() {
		return user.Updates{}, &FieldError{Field: "body", Message: "must change at least one field"}
	}

	return out, nil
}

// isPhone accepts common separators but requires 10-15 digits overall.
func isPhone(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' || r == '-' || r == ' ' || r == '(' || r == ')' || r == '.':
		default:
			return false
		}
	}

	return digits >= minPhoneDigits && digits <= maxPhoneDigits
}

func isStrongPassword(s string) bool {
	var upper, lower, digit bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}

	return upper && lower && digit
}
