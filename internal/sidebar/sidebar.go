// Package sidebar models the collapsible navigation list shown on every page.
package sidebar

import (
	"net/url"
	"strings"
)

// QueryParam carries the collapsed/open state between page loads.
const QueryParam = "sidebar"

// Link is one navigation entry. Logout entries are actions, not routes.
type Link struct {
	Href   string
	Label  string
	Icon   string
	Logout bool
}

// DefaultLinks is the fixed navigation list.
var DefaultLinks = []Link{
	{Href: "/", Label: "Home", Icon: "home"},
	{Href: "/login", Label: "Login", Icon: "login"},
	{Href: "/dashboard", Label: "Dashboard", Icon: "dashboard"},
	{Href: "/profile", Label: "Profile", Icon: "person"},
	{Href: "/settings", Label: "Settings", Icon: "settings"},
	{Href: "/logout", Label: "Logout", Icon: "logout", Logout: true},
}

// View is the sidebar as rendered for one page.
type View struct {
	Open    bool
	Current string
	Links   []Link
}

// New returns an open or collapsed sidebar for the page at current.
func New(open bool, current string) View {
	links := make([]Link, len(DefaultLinks))
	copy(links, DefaultLinks)
	return View{Open: open, Current: current, Links: links}
}

// FromQuery reads the state from ?sidebar=. Anything but "closed" is open.
func FromQuery(q url.Values, current string) View {
	return New(!strings.EqualFold(q.Get(QueryParam), "closed"), current)
}

// Toggle flips the collapsed state.
func (v *View) Toggle() {
	v.Open = !v.Open
}

// ToggleQuery returns the query string that renders the opposite state.
func (v View) ToggleQuery() string {
	v.Toggle()
	return v.Query()
}

// Query returns the query string that renders v as it is.
func (v View) Query() string {
	state := "closed"
	if v.Open {
		state = "open"
	}
	return "?" + url.Values{QueryParam: {state}}.Encode()
}

// IsActive reports whether link points at the current page.
func (v View) IsActive(link Link) bool {
	return !link.Logout && link.Href == v.Current
}
