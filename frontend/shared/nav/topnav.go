package nav

import (
	"strings"

	"receiptstudio/infrastructure/rbac"
	"receiptstudio/models"
)

// Link is one top navigation entry.
type Link struct {
	Label  string
	Href   string
	Active bool
}

// TopNavData is shared with page renderers.
type TopNavData struct {
	Username string
	Role     string
	Links    []Link
}

// BuildTopNavData returns the links visible to the session user, marking the one
// that prefixes currentPath as active.
func BuildTopNavData(session models.Session, currentPath string) TopNavData {
	links := []Link{
		{Label: "Receipts", Href: "/app/receipts"},
		{Label: "New Receipt", Href: "/app/receipts/new"},
		{Label: "Templates", Href: "/app/templates"},
		{Label: "Gallery", Href: "/gallery"},
		{Label: "Export CSV", Href: "/app/exports/receipts.csv"},
	}
	if session.User.Role == rbac.RoleAdmin {
		links = append(links, Link{Label: "Users", Href: "/app/admin/users"})
	}
	links = append(links, Link{Label: "Help", Href: "/app/help"})

	best := -1
	for i, l := range links {
		if strings.HasPrefix(currentPath, l.Href) && (best < 0 || len(l.Href) > len(links[best].Href)) {
			best = i
		}
	}
	if best >= 0 {
		links[best].Active = true
	}
	return TopNavData{Username: session.User.Username, Role: session.User.Role, Links: links}
}
