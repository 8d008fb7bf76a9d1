// Package templates provides embedded starter stub files for stubctl init.
package templates

import (
	"embed"
	"fmt"
	"sort"
	"strings"
)

//go:embed *.yaml
var templateFS embed.FS

// Template represents a starter stubs file.
type Template struct {
	ID          string
	Description string
	Filename    string
}

// AvailableTemplates returns all available starter templates.
var AvailableTemplates = []Template{
	{
		ID:          "default",
		Description: "A hello endpoint and a health check",
		Filename:    "default.yaml",
	},
	{
		ID:          "rest",
		Description: "List, get, create and delete for a users resource",
		Filename:    "rest.yaml",
	},
}

// Get returns the template content by ID.
func Get(id string) ([]byte, error) {
	t, err := GetTemplate(id)
	if err != nil {
		return nil, err
	}
	return templateFS.ReadFile(t.Filename)
}

// GetTemplate returns the Template metadata by ID.
func GetTemplate(id string) (*Template, error) {
	for i := range AvailableTemplates {
		if strings.EqualFold(AvailableTemplates[i].ID, id) {
			return &AvailableTemplates[i], nil
		}
	}
	return nil, fmt.Errorf("unknown template: %s (available: %s)", id, strings.Join(List(), ", "))
}

// List returns all template IDs sorted alphabetically.
func List() []string {
	ids := make([]string, len(AvailableTemplates))
	for i, t := range AvailableTemplates {
		ids[i] = t.ID
	}
	sort.Strings(ids)
	return ids
}
