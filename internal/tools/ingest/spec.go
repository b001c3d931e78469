package ingest

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/tools"
)

type ImportCSVInput struct {
	Kind   string   `json:"kind" jsonschema:"required,enum=nodes,enum=relationships,description=Whether the file holds nodes or relationships"`
	File   string   `json:"file" jsonschema:"required,description=File path relative to the Neo4j import directory or a URL"`
	Labels []string `json:"labels,omitempty" jsonschema:"description=Labels given to every node (nodes only)"`
	Type   string   `json:"type,omitempty" jsonschema:"description=Relationship type (relationships only); may be omitted when the header has a :TYPE column"`
	Header string   `json:"header,omitempty" jsonschema:"description=Header line to use instead of the first line of the file; required for URLs"`
	tools.CSVOptions
}

func ImportCSVSpec() mcp.Tool {
	return mcp.NewTool("import-csv",
		mcp.WithDescription(`
		Imports one CSV file into Neo4j with LOAD CSV.

		The header (the first line of the file unless given) describes every column,
		see convert-node-header for the notation. Node files must be imported before
		the relationship files referring to them: relationships are created between
		nodes matched on their :ID values.

		Large local files are loaded in batches of rows. Returns a JSON report with
		the number of rows, batches and the created nodes, relationships and properties.`),
		mcp.WithInputSchema[ImportCSVInput](),
		mcp.WithTitleAnnotation("Import CSV File"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}
