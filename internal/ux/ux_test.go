package ux

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	apperrors "github.com/felixgeelhaar/stayadmin/internal/errors"
)

func TestSessionViewRenderText(t *testing.T) {
	exp := time.Date(2027, 1, 2, 3, 4, 5, 0, time.UTC)
	v := SessionView{
		Status:      "authenticated",
		Admin:       true,
		Role:        "admin",
		Name:        "A",
		Email:       "a@x.com",
		Token:       "3f2a9c1d0b7e",
		TokenFormat: "jwt",
		ExpiresAt:   &exp,
		API:         "https://api.stays.example",
		Backends:    []string{"file", "cookie"},
	}

	plain := v.RenderText(true)
	for _, want := range []string{
		"Status    authenticated",
		"Admin     A <a@x.com>",
		"Role      admin (admin console)",
		"Token     3f2a9c1d0b7e · jwt",
		"API       https://api.stays.example",
		"Stored in file, cookie",
	} {
		if !strings.Contains(plain, want) {
			t.Errorf("plain rendering missing %q:\n%s", want, plain)
		}
	}

	styled := v.RenderText(false)
	if !strings.Contains(styled, "authenticated") || !strings.Contains(styled, "A <a@x.com>") {
		t.Errorf("styled rendering lost content:\n%s", styled)
	}
}

func TestLoginInputMissing(t *testing.T) {
	tests := []struct {
		in   LoginInput
		want bool
	}{
		{LoginInput{}, true},
		{LoginInput{Email: "a@x.com"}, true},
		{LoginInput{Email: "  ", Password: "pw"}, true},
		{LoginInput{Email: "a@x.com", Password: "pw"}, false},
	}
	for _, tt := range tests {
		if got := tt.in.Missing(); got != tt.want {
			t.Errorf("%+v.Missing() = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPromptLoginSkipsCompleteInput(t *testing.T) {
	in := LoginInput{Email: "a@x.com", Password: "pw"}
	got, err := PromptLogin(in)
	if err != nil {
		t.Fatalf("PromptLogin() error = %v", err)
	}
	if got != in {
		t.Errorf("PromptLogin() = %+v, want %+v", got, in)
	}
}

func TestEnhanceError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"refused", errors.New("dial tcp 127.0.0.1:8000: connect: connection refused"), "STAYADMIN_API_URL"},
		{"tls", errors.New("x509: certificate signed by unknown authority"), "TLS certificate"},
		{"permission", errors.New("open /root/.stayadmin/credentials.json: permission denied"), "STAYADMIN_HOME"},
		{"unauthorized", errors.New("GET /api/admin/bookings: unauthorized (HTTP 401)"), "auth login"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EnhanceError(tt.err)
			if !strings.Contains(got.Error(), tt.want) {
				t.Errorf("EnhanceError() = %q, want hint containing %q", got, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Error("enhanced error should wrap the original")
			}
		})
	}

	structured := apperrors.NewNotLoggedInError()
	if EnhanceError(structured) != error(structured) {
		t.Error("errors with their own suggestions should pass through")
	}
	if EnhanceError(nil) != nil {
		t.Error("EnhanceError(nil) should be nil")
	}
	if err := errors.New("plain"); EnhanceError(err) != err {
		t.Error("unrecognised errors should pass through")
	}
}

func TestFormatError(t *testing.T) {
	err := FormatError(errors.New("connection refused"), "login")
	if !strings.HasPrefix(err.Error(), "login: connection refused") {
		t.Errorf("FormatError() = %q", err)
	}
	if FormatError(nil, "login") != nil {
		t.Error("FormatError(nil) should be nil")
	}
}

func TestIsInteractiveRejectsDevNull(t *testing.T) {
	null, err := os.Open(os.DevNull)
	if err != nil {
		t.Fatal(err)
	}
	defer null.Close()

	prev := os.Stdin
	os.Stdin = null
	defer func() { os.Stdin = prev }()

	if IsInteractive() {
		t.Errorf("%s is a character device, not a terminal", os.DevNull)
	}
}
