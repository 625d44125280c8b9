package ux

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// LoginInput is what the login form collects.
type LoginInput struct {
	Email    string
	Password string
}

// Missing reports whether either field is still empty.
func (in LoginInput) Missing() bool {
	return strings.TrimSpace(in.Email) == "" || in.Password == ""
}

// PromptLogin asks for the fields of in that are still empty. The password
// is masked.
func PromptLogin(in LoginInput) (LoginInput, error) {
	var fields []huh.Field
	if strings.TrimSpace(in.Email) == "" {
		fields = append(fields, huh.NewInput().
			Title("Email").
			Placeholder("admin@example.com").
			Validate(requireValue("email")).
			Value(&in.Email))
	}
	if in.Password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Validate(requireValue("password")).
			Value(&in.Password))
	}
	if len(fields) == 0 {
		return in, nil
	}

	form := huh.NewForm(huh.NewGroup(fields...))
	if err := form.Run(); err != nil {
		return in, fmt.Errorf("prompt failed: %w", err)
	}
	in.Email = strings.TrimSpace(in.Email)
	return in, nil
}

// Confirm displays a yes/no confirmation prompt.
func Confirm(message string, defaultValue bool) (bool, error) {
	confirmed := defaultValue
	form := huh.NewForm(huh.NewGroup(huh.NewConfirm().
		Title(message).
		Value(&confirmed)))
	if err := form.Run(); err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}
	return confirmed, nil
}

func requireValue(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

// IsInteractive returns true if stdin is a terminal. Character devices such
// as /dev/null do not count.
func IsInteractive() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
