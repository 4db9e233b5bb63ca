// Package templates holds the canned alert messages offered on the
// communication dashboard and fills in their {placeholders}.
package templates

import (
	"errors"
	"regexp"

	"github.com/mr1hm/crisis-alerts/internal/models"
)

var ErrTemplateNotFound = errors.New("template not found")

type Template struct {
	ID       int                  `json:"id"`
	Name     string               `json:"name"`
	Body     string               `json:"template"`
	Severity models.AlertSeverity `json:"severity"`
}

var catalog = []Template{
	{
		ID:       1,
		Name:     "Severe Weather Alert",
		Body:     "Severe weather warning for {area}. Please take necessary precautions and stay indoors.",
		Severity: models.AlertSeverityHigh,
	},
	{
		ID:       2,
		Name:     "Evacuation Notice",
		Body:     "EVACUATION NOTICE for {area}. Please follow emergency routes and proceed to designated shelters.",
		Severity: models.AlertSeverityCritical,
	},
	{
		ID:       3,
		Name:     "Power Outage",
		Body:     "Power outage reported in {area}. Estimated restoration time: {time}. Please prepare accordingly.",
		Severity: models.AlertSeverityMedium,
	},
	{
		ID:       4,
		Name:     "Road Closure",
		Body:     "Road closure in {area} due to {reason}. Please use alternative routes.",
		Severity: models.AlertSeverityMedium,
	},
	{
		ID:       5,
		Name:     "Medical Emergency",
		Body:     "Medical emergency in {area}. Emergency services are responding. Please avoid the area.",
		Severity: models.AlertSeverityHigh,
	},
}

// Areas are the response zones an alert can target.
var Areas = []string{
	"Downtown Area",
	"River District",
	"Industrial Park",
	"Residential Zone A",
	"North District",
	"Central Business District",
	"South Side",
	"East End",
	"West Valley",
}

var placeholder = regexp.MustCompile(`\{([^}]+)\}`)

func All() []Template {
	return append([]Template(nil), catalog...)
}

func Get(id int) (Template, error) {
	for _, t := range catalog {
		if t.ID == id {
			return t, nil
		}
	}
	return Template{}, ErrTemplateNotFound
}

// Variables lists distinct placeholder names in order of first appearance.
func (t Template) Variables() []string {
	matches := placeholder.FindAllStringSubmatch(t.Body, -1)
	vars := make([]string, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		vars = append(vars, m[1])
	}
	return vars
}

// Render substitutes the first occurrence of each placeholder in one pass
// over the body, so substituted values are never expanded again. Missing or
// empty values fall back to the variable name.
func (t Template) Render(values map[string]string) string {
	seen := make(map[string]bool)
	return placeholder.ReplaceAllStringFunc(t.Body, func(match string) string {
		name := match[1 : len(match)-1]
		if seen[name] {
			return match
		}
		seen[name] = true
		if v := values[name]; v != "" {
			return v
		}
		return name
	})
}
