package config

import (
	"fmt"
	"sort"

	"github.com/opd-ai/go-flightsim/pkg/physics"
)

// DefaultCourse is the obstacle layout used when none is named
const DefaultCourse = "tunnel"

// CourseTemplate is a named, ready-made obstacle layout
type CourseTemplate struct {
	Name        string
	Description string
	Obstacles   []physics.Zone
}

var courseTemplates = map[string]CourseTemplate{
	"tunnel": {
		Name:        "tunnel",
		Description: "Two tall walls either side of the start position",
		Obstacles: []physics.Zone{
			{Name: "left_wall", Rect: physics.Rect{X: 300, Y: 200, Width: 50, Height: 400}},
			{Name: "right_wall", Rect: physics.Rect{X: 800, Y: 200, Width: 50, Height: 400}},
		},
	},
	"open_sky": {
		Name:        "open_sky",
		Description: "No obstacles; only the arena edges are fatal",
	},
	"slalom": {
		Name:        "slalom",
		Description: "Alternating pillars hanging from the top and rising from the bottom",
		Obstacles: []physics.Zone{
			{Name: "pillar_1", Rect: physics.Rect{X: 200, Y: 0, Width: 40, Height: 420}},
			{Name: "pillar_2", Rect: physics.Rect{X: 420, Y: 300, Width: 40, Height: 420}},
			{Name: "pillar_3", Rect: physics.Rect{X: 860, Y: 0, Width: 40, Height: 420}},
			{Name: "pillar_4", Rect: physics.Rect{X: 1060, Y: 300, Width: 40, Height: 420}},
		},
	},
}

// GetCourseTemplate returns the named template, or the default course when
// the name is unknown.
func GetCourseTemplate(name string) CourseTemplate {
	t, ok := courseTemplates[name]
	if !ok {
		t = courseTemplates[DefaultCourse]
	}
	t.Obstacles = append([]physics.Zone(nil), t.Obstacles...)
	return t
}

// ListCourseTemplates returns the template names in sorted order
func ListCourseTemplates() []string {
	names := make([]string, 0, len(courseTemplates))
	for name := range courseTemplates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyCourseTemplate replaces the obstacles in cfg with the named layout
func ApplyCourseTemplate(cfg *SimConfig, name string) error {
	t, ok := courseTemplates[name]
	if !ok {
		return fmt.Errorf("%w: unknown course %q", ErrInvalidZone, name)
	}
	cfg.Course = name
	cfg.Obstacles = append([]physics.Zone(nil), t.Obstacles...)
	return nil
}
