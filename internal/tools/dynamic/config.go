package dynamic

import (
	"context"
	"fmt"
	"strings"

	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/importer"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/loadcsv"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/tools"
)

// Manifest is the YAML description of an import job. Each manifest becomes
// one MCP tool.
type Manifest struct {
	// Name is the unique tool identifier (e.g., "import-social-network")
	Name string `yaml:"name"`

	// Description provides the operational description of the tool
	Description string `yaml:"description"`

	// Intent tells agents WHEN to use this tool
	Intent string `yaml:"intent,omitempty"`

	// CSV overrides the server loader configuration for every file
	CSV tools.CSVOptions `yaml:"csv,omitempty"`

	Nodes         []importer.NodeFile         `yaml:"nodes,omitempty"`
	Relationships []importer.RelationshipFile `yaml:"relationships,omitempty"`

	// Category is derived from the folder structure (e.g., "social")
	// This is an internal field, not from YAML
	Category string `yaml:"-"`
}

// ManifestInput are the arguments of a manifest tool.
type ManifestInput struct {
	DryRun bool `json:"dryRun,omitempty" jsonschema:"description=Return the Cypher programs without executing them"`
}

// Job returns the files of the manifest as an importer job.
func (m *Manifest) Job() importer.Job {
	return importer.Job{Nodes: m.Nodes, Relationships: m.Relationships}
}

// Importer returns im configured with the manifest's CSV settings.
func (m *Manifest) Importer(im *importer.Importer) (*importer.Importer, error) {
	if m.CSV.IsZero() {
		return im, nil
	}
	cfg, err := m.CSV.Apply(im.Config())
	if err != nil {
		return nil, fmt.Errorf("manifest %s: invalid csv settings: %w", m.Name, err)
	}
	return im.WithConfig(cfg)
}

// Run executes the manifest's job.
func (m *Manifest) Run(ctx context.Context, im *importer.Importer) (*importer.Report, error) {
	im, err := m.Importer(im)
	if err != nil {
		return nil, err
	}
	return im.Run(ctx, m.Job())
}

// Plan renders the programs of every file in import order, each preceded by
// a comment naming the file.
func (m *Manifest) Plan(im *importer.Importer) (string, error) {
	im, err := m.Importer(im)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	write := func(path string, program loadcsv.Program) {
		sb.WriteString("// ")
		sb.WriteString(path)
		sb.WriteString("\n")
		sb.WriteString(program.String())
		sb.WriteString(";\n\n")
	}

	for _, f := range m.Nodes {
		plan, err := im.PlanNodes(f)
		if err != nil {
			return "", err
		}
		write(f.Path, plan.Program())
	}
	for _, f := range m.Relationships {
		plan, err := im.PlanRelationships(f)
		if err != nil {
			return "", err
		}
		write(f.Path, plan.Program())
	}
	return sb.String(), nil
}
