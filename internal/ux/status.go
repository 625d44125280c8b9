package ux

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// SessionView is what `auth status` and `auth login` print.
type SessionView struct {
	Status      string     `json:"status" yaml:"status"`
	Admin       bool       `json:"isAdmin" yaml:"is_admin"`
	Role        string     `json:"role,omitempty" yaml:"role,omitempty"`
	Name        string     `json:"name,omitempty" yaml:"name,omitempty"`
	Email       string     `json:"email,omitempty" yaml:"email,omitempty"`
	Token       string     `json:"token,omitempty" yaml:"token,omitempty"`
	TokenFormat string     `json:"tokenFormat,omitempty" yaml:"token_format,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty" yaml:"expires_at,omitempty"`
	API         string     `json:"api,omitempty" yaml:"api,omitempty"`
	Backends    []string   `json:"backends,omitempty" yaml:"backends,omitempty"`
}

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(10)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

var boxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("63")).
	Padding(0, 1)

// RenderText draws the session as a boxed table.
func (v SessionView) RenderText(noColor bool) string {
	status := v.Status
	if !noColor {
		switch v.Status {
		case "authenticated":
			status = okStyle.Render(status)
		case "loading":
			status = warnStyle.Render(status)
		default:
			status = badStyle.Render(status)
		}
	}

	rows := [][2]string{{"Status", status}}
	if v.Name != "" || v.Email != "" {
		rows = append(rows, [2]string{"Admin", strings.TrimSpace(fmt.Sprintf("%s <%s>", v.Name, v.Email))})
	}
	if v.Role != "" {
		role := v.Role
		if v.Admin {
			role += " (admin console)"
		}
		rows = append(rows, [2]string{"Role", role})
	}
	if v.Token != "" {
		token := v.Token
		if v.TokenFormat != "" {
			token += " · " + v.TokenFormat
		}
		rows = append(rows, [2]string{"Token", token})
	}
	if v.ExpiresAt != nil {
		rows = append(rows, [2]string{"Expires", v.ExpiresAt.Local().Format(time.RFC1123)})
	}
	if v.API != "" {
		rows = append(rows, [2]string{"API", v.API})
	}
	if len(v.Backends) > 0 {
		rows = append(rows, [2]string{"Stored in", strings.Join(v.Backends, ", ")})
	}

	lines := make([]string, len(rows))
	for i, r := range rows {
		if noColor {
			lines[i] = fmt.Sprintf("%-10s%s", r[0], r[1])
			continue
		}
		lines[i] = lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(r[0]), r[1])
	}
	body := strings.Join(lines, "\n")
	if noColor {
		return body
	}
	return boxStyle.Render(body)
}
