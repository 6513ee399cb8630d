// Package routegate decides, per navigation attempt, whether to proceed or
// redirect. Decisions are a pure function of the current Session and the
// target route's requirements; the gate never waits on network I/O.
package routegate

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/myhealth-dev/myhealth/internal/authstate"
)

// Route is one entry of the static route table.
type Route struct {
	Path          string `yaml:"path" json:"path"`
	Name          string `yaml:"name,omitempty" json:"name,omitempty"`
	Redirect      string `yaml:"redirect,omitempty" json:"redirect,omitempty"`
	RequiresGuest bool   `yaml:"requires_guest,omitempty" json:"requiresGuest,omitempty"`
	RequiresAdmin bool   `yaml:"requires_admin,omitempty" json:"requiresAdmin,omitempty"`
}

// Decision is the outcome of a navigation attempt. Denials redirect
// silently; no error is surfaced to the user.
type Decision struct {
	Allow      bool   `json:"allow"`
	RedirectTo string `json:"redirectTo,omitempty"`
}

// Table is the route table, read-only after construction.
type Table struct {
	routes []Route
	home   string
}

// tableFile is the YAML shape of a route table override.
type tableFile struct {
	Home   string  `yaml:"home"`
	Routes []Route `yaml:"routes"`
}

// NewTable builds a table from routes with home as the default landing
// route for redirects and unmatched paths.
func NewTable(routes []Route, home string) (*Table, error) {
	if home == "" {
		return nil, fmt.Errorf("routegate: home route is required")
	}
	seen := make(map[string]bool, len(routes))
	homeDefined := false
	for _, r := range routes {
		if r.Path == "" {
			return nil, fmt.Errorf("routegate: route with empty path")
		}
		if seen[r.Path] {
			return nil, fmt.Errorf("routegate: duplicate route path %q", r.Path)
		}
		seen[r.Path] = true
		if r.Path == home {
			homeDefined = true
		}
	}
	if !homeDefined {
		return nil, fmt.Errorf("routegate: home route %q not in table", home)
	}
	return &Table{routes: routes, home: home}, nil
}

// ParseTable loads a table from YAML.
func ParseTable(data []byte) (*Table, error) {
	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("routegate: failed to parse route table: %w", err)
	}
	return NewTable(file.Routes, file.Home)
}

// DefaultTable is the application's built-in route table.
func DefaultTable() *Table {
	table, err := NewTable([]Route{
		{Path: "/", Redirect: "/home"},
		{Path: "/home", Name: "Home"},
		{Path: "/about", Name: "About"},
		{Path: "/login", Name: "Login", RequiresGuest: true},
		{Path: "/register", Name: "Register", RequiresGuest: true},
		{Path: "/admin", Name: "Admin", RequiresAdmin: true},
	}, "/home")
	if err != nil {
		panic(err)
	}
	return table
}

// Routes returns the table entries for the UI shell.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// Home returns the default landing route.
func (t *Table) Home() string {
	return t.home
}

// Match returns the route for path, if any.
func (t *Table) Match(path string) (Route, bool) {
	for _, r := range t.routes {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

// Authorize evaluates a navigation attempt to path under sess.
//
// Unknown paths and alias routes redirect. A guest-only route redirects
// authenticated users home; an admin-only route proceeds only for
// Role == admin. While the initial auth sync is pending the role is
// unknown, so admin routes redirect: unreachable until the first event
// lands, by choice of fail-closed over fail-open.
func (t *Table) Authorize(sess authstate.Session, path string) Decision {
	route, ok := t.Match(path)
	if !ok {
		return Decision{RedirectTo: t.home}
	}
	if route.Redirect != "" {
		return Decision{RedirectTo: route.Redirect}
	}
	if route.RequiresGuest && sess.Authenticated {
		return Decision{RedirectTo: t.home}
	}
	if route.RequiresAdmin && sess.Role != authstate.RoleAdmin {
		return Decision{RedirectTo: t.home}
	}
	return Decision{Allow: true}
}
