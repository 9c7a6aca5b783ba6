package model

// View selects which screen the shell renders.
type View string

// Views.
const (
	ViewBrowse    View = "browse"
	ViewDashboard View = "dashboard"
	ViewProfile   View = "profile"
)

// ParseView returns the view named s, or false if s names none.
func ParseView(s string) (View, bool) {
	switch v := View(s); v {
	case ViewBrowse, ViewDashboard, ViewProfile:
		return v, true
	}
	return "", false
}
