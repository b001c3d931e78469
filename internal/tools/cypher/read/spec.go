package read

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Params are the parameters passed to a Cypher query.
type Params map[string]any

type ReadCypherInput struct {
	Query  string `json:"query" jsonschema:"default=MATCH(n) RETURN n LIMIT 10,description=The Cypher query to execute"`
	Params Params `json:"params,omitempty" jsonschema:"default={},description=Parameters to pass to the Cypher query"`
}

func ReadCypherSpec() mcp.Tool {
	return mcp.NewTool("read-cypher",
		mcp.WithDescription("read-cypher can run only read-only Cypher statements, e.g. to inspect imported nodes and relationships. Imports are done with import-csv; statements that write are rejected by the database."),
		mcp.WithInputSchema[ReadCypherInput](),
		mcp.WithTitleAnnotation("Read Cypher"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}
