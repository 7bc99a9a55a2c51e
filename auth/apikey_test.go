package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestNewAPIKey_Defaults(t *testing.T) {
	k := NewAPIKey("  sk_live_abc  ", APIKeyConfig{})
	if k.HeaderName() != "Authorization" {
		t.Errorf("HeaderName() = %q, want Authorization", k.HeaderName())
	}
	if !k.Configured() {
		t.Error("Configured() = false, want true")
	}
}

func TestAPIKey_Apply(t *testing.T) {
	tests := []struct {
		name       string
		config     APIKeyConfig
		wantHeader string
		wantValue  string
	}{
		{name: "raw key", config: APIKeyConfig{}, wantHeader: "Authorization", wantValue: "sk_live_abc"},
		{name: "scheme", config: APIKeyConfig{Scheme: "Bearer"}, wantHeader: "Authorization", wantValue: "Bearer sk_live_abc"},
		{name: "custom header", config: APIKeyConfig{HeaderName: "X-API-Key"}, wantHeader: "X-API-Key", wantValue: "sk_live_abc"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "https://api.example.com/risks", nil)
			if err := NewAPIKey("sk_live_abc", tc.config).Apply(req); err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if got := req.Header.Get(tc.wantHeader); got != tc.wantValue {
				t.Errorf("%s = %q, want %q", tc.wantHeader, got, tc.wantValue)
			}
		})
	}
}

func TestAPIKey_ApplyMissing(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "https://api.example.com/risks", nil)

	err := NewAPIKey("   ", APIKeyConfig{}).Apply(req)
	if !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("Apply() error = %v, want ErrMissingCredentials", err)
	}
	if req.Header.Get("Authorization") != "" {
		t.Error("Authorization header set despite missing key")
	}
}

func TestAPIKey_ValidateRejectsControlCharacters(t *testing.T) {
	err := NewAPIKey("abc\r\nX-Injected: 1", APIKeyConfig{}).Validate()
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Validate() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestAPIKey_NeverFormatsKey(t *testing.T) {
	k := NewAPIKey("sk_live_abc", APIKeyConfig{})

	for _, s := range []string{
		k.String(),
		fmt.Sprintf("%v", k),
		fmt.Sprintf("%s", k),
		fmt.Sprintf("%#v", k),
	} {
		if strings.Contains(s, "sk_live_abc") {
			t.Errorf("formatted key leaked: %q", s)
		}
	}
	if k.String() != "[REDACTED]" {
		t.Errorf("String() = %q, want [REDACTED]", k.String())
	}
	if NewAPIKey("", APIKeyConfig{}).String() != "[MISSING]" {
		t.Error("String() of empty key should be [MISSING]")
	}
}

func TestAPIKey_Fingerprint(t *testing.T) {
	a := NewAPIKey("key-a", APIKeyConfig{})
	b := NewAPIKey("key-b", APIKeyConfig{})

	if len(a.Fingerprint()) != 12 {
		t.Errorf("Fingerprint() length = %d, want 12", len(a.Fingerprint()))
	}
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("different keys produced the same fingerprint")
	}
	if a.Fingerprint() != NewAPIKey("key-a", APIKeyConfig{}).Fingerprint() {
		t.Error("fingerprint is not stable")
	}
	if NewAPIKey("", APIKeyConfig{}).Fingerprint() != "" {
		t.Error("empty key should have empty fingerprint")
	}
}

func TestCredentialFunc(t *testing.T) {
	cred := CredentialFunc(func(req *http.Request) error {
		req.Header.Set("X-Test", "1")
		return nil
	})
	req, _ := http.NewRequest(http.MethodGet, "https://api.example.com/", nil)
	if err := cred.Apply(req); err != nil || req.Header.Get("X-Test") != "1" {
		t.Errorf("Apply() = %v, header %q", err, req.Header.Get("X-Test"))
	}
}
