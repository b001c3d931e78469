package preview

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/tools"
)

type PreviewCSVInput struct {
	File  string `json:"file" jsonschema:"required,description=File path relative to the Neo4j import directory or an http(s) URL"`
	Lines int    `json:"lines,omitempty" jsonschema:"description=Number of data rows to show after the header (default 5 and at most 50)"`
	tools.CSVOptions
}

// PreviewCSVSpec returns the tool specification for preview-csv
func PreviewCSVSpec() mcp.Tool {
	return mcp.NewTool("preview-csv",
		mcp.WithDescription(`
		Shows the header and the first rows of a CSV file, and how each header
		column is interpreted: identifier, start or end node, per-row label or type,
		or a property with its type.

		Use this tool before import-csv to check that the header is well-formed,
		that the separators are right and which identifier spaces are used.
		Local files are read from the Neo4j import directory; http and https URLs
		are fetched.`),
		mcp.WithInputSchema[PreviewCSVInput](),
		mcp.WithTitleAnnotation("Preview CSV File"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}
