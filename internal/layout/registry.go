// Package layout resolves the folder labels the provisioner materializes:
// the root workspace label per company type and the category label per
// project type. Labels live in an embedded YAML file so renaming a workspace
// folder is a config change, not a code change.
package layout

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"auditdrive/internal/domain"
	"auditdrive/internal/domain/models"
)

//go:embed config/layout.yaml
var configFiles embed.FS

// Registry maps company and project types to workspace folder labels.
type Registry struct {
	roots      map[models.CompanyType]string
	categories map[models.ProjectType]string
}

type layoutFile struct {
	Roots      map[string]string `yaml:"roots"`
	Categories map[string]string `yaml:"categories"`
}

// NewRegistry loads the embedded layout file.
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/layout.yaml")
	if err != nil {
		return nil, fmt.Errorf("read layout config: %w", err)
	}

	var file layoutFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal layout config: %w", err)
	}

	r := &Registry{
		roots:      make(map[models.CompanyType]string, len(file.Roots)),
		categories: make(map[models.ProjectType]string, len(file.Categories)),
	}
	for k, v := range file.Roots {
		if v == "" {
			return nil, fmt.Errorf("layout config: empty root label for %q", k)
		}
		r.roots[models.CompanyType(k)] = v
	}
	for k, v := range file.Categories {
		if v == "" {
			return nil, fmt.Errorf("layout config: empty category label for %q", k)
		}
		r.categories[models.ProjectType(k)] = v
	}

	return r, nil
}

// RootLabel returns the top-level workspace folder for a company type.
func (r *Registry) RootLabel(ct models.CompanyType) (string, error) {
	label, ok := r.roots[ct]
	if !ok {
		return "", fmt.Errorf("%w: no root label for company type %q", domain.ErrValidation, ct)
	}
	return label, nil
}

// CategoryLabel returns the category folder for a project type.
func (r *Registry) CategoryLabel(pt models.ProjectType) (string, error) {
	label, ok := r.categories[pt]
	if !ok {
		return "", fmt.Errorf("%w: no category label for project type %q", domain.ErrValidation, pt)
	}
	return label, nil
}
