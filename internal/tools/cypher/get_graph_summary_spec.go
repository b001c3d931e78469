package cypher

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func GetGraphSummarySpec() mcp.Tool {
	return mcp.NewTool("get-graph-summary",
		mcp.WithDescription(`
		Summarises what is currently stored in Neo4j, typically to check the result of an import.

		Returns:
		- Node labels with their node counts and property types
		- Relationship types with their relationship counts and property types
		- Indexes, including the identifier indexes created by imports

		Labels named IdSpace<space> mark the identifier space of imported nodes.

		If the database contains no data, no summary is returned.`),
		mcp.WithTitleAnnotation("Get Graph Summary"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}
