package credentials

import (
	"strings"
	"testing"
)

func validRegistration() RegisterRequest {
	return RegisterRequest{
		Email:           "a@x.com",
		Password:        "Abcdef12",
		ConfirmPassword: "Abcdef12",
		FirstName:       "A",
		LastName:        "B",
	}
}

func TestValidateRegistration_FirstFailingRuleWins(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(r *RegisterRequest)
		wantField string
		wantMsg   string
	}{
		{"missing email", func(r *RegisterRequest) { r.Email = "" }, "email", "required"},
		{"missing everything reports email first", func(r *RegisterRequest) { *r = RegisterRequest{} }, "email", "required"},
		{"missing last name before bad email", func(r *RegisterRequest) { r.Email = "nope"; r.LastName = "" }, "lastName", "required"},
		{"bad email", func(r *RegisterRequest) { r.Email = "not-an-email" }, "email", "valid email"},
		{"short phone", func(r *RegisterRequest) { r.Phone = "12345" }, "phone", "10 to 15 digits"},
		{"phone with letters", func(r *RegisterRequest) { r.Phone = "555-CALL-NOW1" }, "phone", "10 to 15 digits"},
		{"short password", func(r *RegisterRequest) { r.Password, r.ConfirmPassword = "short1", "short1" }, "password", "at least 8"},
		{"password too long for bcrypt", func(r *RegisterRequest) {
			r.Password = "Aa1" + strings.Repeat("x", 70)
			r.ConfirmPassword = r.Password
		}, "password", "72 bytes"},
		{"weak password", func(r *RegisterRequest) { r.Password, r.ConfirmPassword = "abcdefgh", "abcdefgh" }, "password", "uppercase"},
		{"mismatched confirmation", func(r *RegisterRequest) { r.ConfirmPassword = "Abcdef13" }, "confirmPassword", "match"},
		{"blank first name", func(r *RegisterRequest) { r.FirstName = "   " }, "firstName", "between 1 and 50"},
		{"long last name", func(r *RegisterRequest) { r.LastName = strings.Repeat("b", 51) }, "lastName", "between 1 and 50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRegistration()
			tt.mutate(&req)

			_, fe := ValidateRegistration(req)
			if fe == nil {
				t.Fatalf("expected a field error")
			}
			if fe.Field != tt.wantField || !strings.Contains(fe.Message, tt.wantMsg) {
				t.Fatalf("got %s %q, want %s containing %q", fe.Field, fe.Message, tt.wantField, tt.wantMsg)
			}
		})
	}
}

func TestValidateRegistration_Normalizes(t *testing.T) {
	req := validRegistration()
	req.Email = "  A@X.com "
	req.Phone = "+1 (555) 123-4567"
	req.FirstName = "  Ada "

	out, fe := ValidateRegistration(req)
	if fe != nil {
		t.Fatalf("unexpected field error %v", fe)
	}
	if out.Email != "a@x.com" || out.Phone != "15551234567" || out.FirstName != "Ada" {
		t.Fatalf("unexpected normalized input %+v", out)
	}
}

func TestValidateProfileUpdate(t *testing.T) {
	str := func(s string) *string { return &s }

	tests := []struct {
		name      string
		in        ProfileUpdate
		wantField string
	}{
		{"empty", ProfileUpdate{}, "body"},
		{"bad email", ProfileUpdate{Email: str("nope")}, "email"},
		{"password without confirmation", ProfileUpdate{Password: str("Abcdef12")}, "confirmPassword"},
		{"password without current", ProfileUpdate{Password: str("Abcdef12"), ConfirmPassword: str("Abcdef12")}, "currentPassword"},
		{"weak password", ProfileUpdate{Password: str("abcdefgh")}, "password"},
		{"blank name", ProfileUpdate{FirstName: str(" ")}, "firstName"},
		{"ok", ProfileUpdate{FirstName: str(" Grace "), Phone: str("")}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, fe := ValidateProfileUpdate(tt.in)

			if tt.wantField == "" {
				if fe != nil {
					t.Fatalf("unexpected field error %v", fe)
				}
				if *out.FirstName != "Grace" || *out.Phone != "" {
					t.Fatalf("unexpected updates %+v", out)
				}
				return
			}

			if fe == nil || fe.Field != tt.wantField {
				t.Fatalf("got %v, want field %s", fe, tt.wantField)
			}
		})
	}
}
