package tools

import (
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/analytics"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/database"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/importer"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/loadcsv"
)

// ToolDependencies contains all dependencies needed by tools
type ToolDependencies struct {
	DBService        database.Service
	AnalyticsService analytics.Service
	Importer         *importer.Importer
	// LoaderConfig is the server-wide loader configuration; tool arguments
	// may override single settings.
	LoaderConfig loadcsv.Config
}
