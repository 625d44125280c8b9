package route

import (
	"fmt"
	"strings"
)

// Table lists the two route subtrees and the landing path of each.
// Patterns use chi syntax; a trailing "/*" also matches the bare prefix.
type Table struct {
	Home      string   `json:"home" yaml:"home"`
	Login     string   `json:"login" yaml:"login"`
	Protected []string `json:"protected" yaml:"protected"`
	Public    []string `json:"public" yaml:"public"`
}

// DefaultTable returns the admin console's route tree.
func DefaultTable() Table {
	return Table{
		Home:  "/admin/dashboard",
		Login: "/admin/login",
		Protected: []string{
			"/admin/dashboard",
			"/admin/apartments/*",
			"/admin/agents/*",
			"/admin/users/*",
			"/admin/bookings/*",
			"/admin/reservations/*",
			"/admin/landlords/*",
			"/admin/shop/*",
			"/admin/statistics/*",
			"/admin/profile",
		},
		Public: []string{
			"/admin/login",
		},
	}
}

// Validate checks that every pattern is rooted and that both landing paths
// exist in their own subtree.
func (t Table) Validate() error {
	if t.Home == "" || t.Login == "" {
		return fmt.Errorf("route table needs both a home and a login path")
	}
	if t.Home == t.Login {
		return fmt.Errorf("home and login path are both %q", t.Home)
	}
	if len(t.Protected) == 0 || len(t.Public) == 0 {
		return fmt.Errorf("route table needs protected and public patterns")
	}
	for _, p := range append(append([]string{}, t.Protected...), t.Public...) {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("route pattern %q must start with /", p)
		}
	}
	return nil
}
