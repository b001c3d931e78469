package header

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/tools"
)

type ConvertNodeHeaderInput struct {
	Header string   `json:"header" jsonschema:"required,description=Header line of the CSV file e.g. :ID(Person)|name:STRING|age:INT"`
	Source string   `json:"source" jsonschema:"required,description=File path relative to the Neo4j import directory or a URL"`
	Labels []string `json:"labels,omitempty" jsonschema:"description=Labels given to every node of the file"`
	tools.CSVOptions
}

type ConvertRelationshipHeaderInput struct {
	Header string `json:"header" jsonschema:"required,description=Header line of the CSV file e.g. :START_ID(Person)|:END_ID(Person)|since:INT"`
	Source string `json:"source" jsonschema:"required,description=File path relative to the Neo4j import directory or a URL"`
	Type   string `json:"type,omitempty" jsonschema:"description=Relationship type; may be omitted when the header has a :TYPE column"`
	tools.CSVOptions
}

const headerGuide = `
		Header columns use the neo4j-admin import notation:
		- name, name:TYPE, name:TYPE[] for properties (TYPE is STRING INT LONG FLOAT DOUBLE BOOLEAN BYTE SHORT CHAR; [] marks an array)
		- :ID or :ID(space) for the node identifier
		- :START_ID(space) and :END_ID(space) for relationship endpoints
		- :LABEL for per-row labels and :TYPE for per-row relationship types (require APOC)
		- :IGNORE to skip a column`

func ConvertNodeHeaderSpec() mcp.Tool {
	return mcp.NewTool("convert-node-header",
		mcp.WithDescription(`
		Converts the header of a node CSV file into a Cypher LOAD CSV program.

		Returns the Cypher statements, separated by semicolons: an optional index
		statement on the identifier property followed by the load statement.
		Nothing is executed; use import-csv to run the import.
		`+headerGuide),
		mcp.WithInputSchema[ConvertNodeHeaderInput](),
		mcp.WithTitleAnnotation("Convert Node CSV Header"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}

func ConvertRelationshipHeaderSpec() mcp.Tool {
	return mcp.NewTool("convert-relationship-header",
		mcp.WithDescription(`
		Converts the header of a relationship CSV file into a Cypher LOAD CSV statement.

		Endpoints are matched on the identifier written by a node import, within
		the identifier space named in :START_ID(space) and :END_ID(space).
		Nothing is executed; use import-csv to run the import.
		`+headerGuide),
		mcp.WithInputSchema[ConvertRelationshipHeaderInput](),
		mcp.WithTitleAnnotation("Convert Relationship CSV Header"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}
