package shared

import "github.com/matzehuels/hydrate/pkg/project"

// Eligibility records which synthetic packages a unit should receive.
type Eligibility struct {
	Shared bool
	Views  bool
}

// Eligible decides which synthetic packages unit u receives. It is a pure
// function of the unit (including its local overrides) and the project
// description; it does not look at the filesystem.
//
// Shared code goes into every unit unless the unit disables it. Views go only
// into view-bearing units: GET handlers listed in the project's explicit views
// mapping, or every GET handler when no mapping is declared. A unit that
// disables shared code receives no views either.
func Eligible(u project.Unit, p *project.Project) Eligibility {
	e := Eligibility{
		Shared: !u.Config.SharedDisabled(),
	}
	if !e.Shared || u.Config.ViewsDisabled() {
		return e
	}
	e.Views = ViewBearing(u, p)
	return e
}

// ViewBearing reports whether the project declares u as a view-bearing unit,
// ignoring local overrides.
func ViewBearing(u project.Unit, p *project.Project) bool {
	if !u.IsGet() {
		return false
	}
	if p.HasExplicitViews() {
		return p.ExplicitView(*u.Route)
	}
	return true
}
