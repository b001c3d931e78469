package read_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	db "github.com/mkd-neo4j/neo4j-mcp-csv/internal/database/mocks"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/tools"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/tools/cypher/read"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestReadCypherHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("returns records as JSON", func(t *testing.T) {
		mockDB := db.NewMockService(ctrl)
		records := []*neo4j.Record{{Keys: []string{"name"}, Values: []any{"Alice"}}}
		mockDB.EXPECT().
			ExecuteReadQuery(gomock.Any(), "MATCH (p:Person {name: $name}) RETURN p.name AS name", map[string]any{"name": "Alice"}).
			Return(records, nil)
		mockDB.EXPECT().Neo4jRecordsToJSON(records).Return(`[{"name": "Alice"}]`, nil)

		handler := read.ReadCypherHandler(&tools.ToolDependencies{DBService: mockDB})
		result, err := handler(context.Background(), mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Arguments: map[string]any{
					"query":  "MATCH (p:Person {name: $name}) RETURN p.name AS name",
					"params": map[string]any{"name": "Alice"},
				},
			},
		})
		require.NoError(t, err)
		require.False(t, result.IsError)
		assert.Equal(t, `[{"name": "Alice"}]`, result.Content[0].(mcp.TextContent).Text)
	})

	t.Run("query error", func(t *testing.T) {
		mockDB := db.NewMockService(ctrl)
		mockDB.EXPECT().
			ExecuteReadQuery(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, errors.New("Writing in read access mode not allowed"))

		handler := read.ReadCypherHandler(&tools.ToolDependencies{DBService: mockDB})
		result, err := handler(context.Background(), mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Arguments: map[string]any{"query": "CREATE (n)"},
			},
		})
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})

	t.Run("missing query", func(t *testing.T) {
		handler := read.ReadCypherHandler(&tools.ToolDependencies{DBService: db.NewMockService(ctrl)})
		result, err := handler(context.Background(), mcp.CallToolRequest{
			Params: mcp.CallToolParams{Arguments: map[string]any{}},
		})
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})
}
