package auth

import (
	"strings"
	"testing"
)

func TestCookieManager_CreateSecureCookie(t *testing.T) {
	m := NewCookieManager()

	got := m.CreateSecureCookie("tok.en.value")

	for _, want := range []string{
		SessionCookieName + "=tok.en.value",
		"Path=/",
		"Max-Age=604800",
		"HttpOnly",
		"Secure",
		"SameSite=Strict",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("cookie %q missing %q", got, want)
		}
	}
}

func TestCookieManager_RoundTrip(t *testing.T) {
	m := NewCookieManager()

	tok, err := NewJWTCodec("secret").Issue(testIdentity)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	got, ok := m.ExtractToken(m.CreateSecureCookie(tok))
	if !ok || got != tok {
		t.Fatalf("round trip failed: ok=%v got=%q", ok, got)
	}
}

func TestCookieManager_ExtractToken(t *testing.T) {
	m := NewCookieManager()

	tests := []struct {
		name   string
		header string
		want   string
		wantOK bool
	}{
		{name: "empty", header: "", wantOK: false},
		{name: "other cookies only", header: "theme=dark; cart=abc", wantOK: false},
		{name: "among others", header: "theme=dark; " + SessionCookieName + "=abc.def; cart=1", want: "abc.def", wantOK: true},
		{name: "empty value", header: SessionCookieName + "=", wantOK: false},
		{name: "garbage", header: ";;;===", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.ExtractToken(tt.header)
			if ok != tt.wantOK || got != tt.want {
				t.Fatalf("got (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCookieManager_DeleteCookie(t *testing.T) {
	got := NewCookieManager().DeleteCookie()

	if !strings.HasPrefix(got, SessionCookieName+"=;") {
		t.Fatalf("expected empty value, got %q", got)
	}
	if !strings.Contains(got, "Max-Age=0") {
		t.Fatalf("expected immediate expiry, got %q", got)
	}
}
