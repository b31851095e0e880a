package shared

import (
	"testing"

	"github.com/matzehuels/hydrate/pkg/project"
)

func boolPtr(b bool) *bool { return &b }

func httpUnit(method, path string, cfg project.UnitConfig) project.Unit {
	r := project.Route{Method: method, Path: path}
	name := project.UnitName(method, path)
	return project.Unit{
		Path:   project.UnitDir(project.KindHTTP, name),
		Kind:   project.KindHTTP,
		Name:   name,
		Route:  &r,
		Config: cfg,
	}
}

func TestEligible(t *testing.T) {
	implicit := &project.Project{
		HTTP: []project.Route{{Method: "get", Path: "/"}, {Method: "get", Path: "/about"}, {Method: "post", Path: "/notes"}},
	}
	explicit := &project.Project{
		HTTP:  implicit.HTTP,
		Views: []project.Route{{Method: "get", Path: "/about"}},
	}
	event := project.Unit{Path: "src/events/ping", Kind: project.KindEvents, Name: "ping"}

	tests := []struct {
		name    string
		unit    project.Unit
		project *project.Project
		want    Eligibility
	}{
		{"implicit GET", httpUnit("get", "/", project.UnitConfig{}), implicit, Eligibility{Shared: true, Views: true}},
		{"implicit POST", httpUnit("post", "/notes", project.UnitConfig{}), implicit, Eligibility{Shared: true}},
		{"event", event, implicit, Eligibility{Shared: true}},
		{"explicit bound GET", httpUnit("get", "/about", project.UnitConfig{}), explicit, Eligibility{Shared: true, Views: true}},
		{"explicit unbound GET", httpUnit("get", "/", project.UnitConfig{}), explicit, Eligibility{Shared: true}},
		{"explicit POST", httpUnit("post", "/notes", project.UnitConfig{}), explicit, Eligibility{Shared: true}},
		{"shared disabled on GET", httpUnit("get", "/", project.UnitConfig{Shared: boolPtr(false)}), implicit, Eligibility{}},
		{"shared disabled on explicit view", httpUnit("get", "/about", project.UnitConfig{Shared: boolPtr(false)}), explicit, Eligibility{}},
		{"views disabled", httpUnit("get", "/", project.UnitConfig{Views: boolPtr(false)}), implicit, Eligibility{Shared: true}},
		{"explicit true", httpUnit("get", "/", project.UnitConfig{Shared: boolPtr(true), Views: boolPtr(true)}), implicit, Eligibility{Shared: true, Views: true}},
		{"views forced on POST has no effect", httpUnit("post", "/notes", project.UnitConfig{Views: boolPtr(true)}), implicit, Eligibility{Shared: true}},
		{"shared disabled on event", project.Unit{Kind: project.KindEvents, Config: project.UnitConfig{Shared: boolPtr(false)}}, implicit, Eligibility{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Eligible(tt.unit, tt.project); got != tt.want {
				t.Errorf("Eligible() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEligibleNineUnitScenario(t *testing.T) {
	p := &project.Project{
		HTTP: []project.Route{
			{Method: "get", Path: "/"}, {Method: "get", Path: "/memories"}, {Method: "post", Path: "/up-tents"},
			{Method: "put", Path: "/on-stilts"}, {Method: "delete", Path: "/badness"},
		},
		Views:     []project.Route{{Method: "get", Path: "/memories"}},
		Events:    []string{"just-being-in-nature"},
		Queues:    []string{"cat-loves-fish"},
		Scheduled: []string{"hikes-with-friends rate(1 day)"},
		Tables:    []string{"trails"},
	}
	units := p.Units()
	if len(units) != 9 {
		t.Fatalf("expected 9 units, got %d", len(units))
	}
	// get-index opts out of shared code
	units[0].Config = project.UnitConfig{Shared: boolPtr(false)}

	var shared, views int
	for _, u := range units {
		e := Eligible(u, p)
		if e.Shared {
			shared++
		}
		if e.Views {
			views++
			if u.Route == nil || u.Route.Path != "/memories" {
				t.Errorf("unexpected views unit %s", u.Path)
			}
		}
		if u.Name == "get-index" && (e.Shared || e.Views) {
			t.Errorf("opted-out unit received %+v", e)
		}
	}
	if shared != 8 {
		t.Errorf("shared units = %d, want 8", shared)
	}
	if views != 1 {
		t.Errorf("views units = %d, want 1", views)
	}
}
