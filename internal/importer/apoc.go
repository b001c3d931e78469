package importer

import (
	"context"
	"log/slog"

	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/database"
)

const apocVersionQuery = "RETURN apoc.version() AS version"

// DetectAPOC reports whether apoc.version() can be called. Any failure is
// treated as APOC being absent.
func DetectAPOC(ctx context.Context, db database.Service) bool {
	records, err := db.ExecuteReadQuery(ctx, apocVersionQuery, nil)
	if err != nil || len(records) == 0 {
		slog.Info("APOC is not available; dynamic labels and relationship types are disabled", "error", err)
		return false
	}
	version, _ := records[0].Get("version")
	slog.Info("APOC detected", "version", version)
	return true
}
