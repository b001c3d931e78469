package header_test

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	analytics "github.com/mkd-neo4j/neo4j-mcp-csv/internal/analytics/mocks"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/loadcsv"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/tools"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/tools/header"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func callRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestConvertNodeHeaderHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	analyticsService := analytics.NewMockService(ctrl)
	analyticsService.EXPECT().NewToolsEvent("convert-node-header").AnyTimes()
	analyticsService.EXPECT().EmitEvent(gomock.Any()).AnyTimes()

	deps := &tools.ToolDependencies{
		AnalyticsService: analyticsService,
		LoaderConfig:     loadcsv.DefaultConfig(),
	}
	handler := header.ConvertNodeHeaderHandler(deps)

	t.Run("program with index statement", func(t *testing.T) {
		result, err := handler(context.Background(), callRequest(map[string]any{
			"header":         ":ID(Person)|name:STRING|age:INT",
			"source":         "person.csv",
			"labels":         []any{"Person"},
			"fieldSeparator": "PIPE",
		}))
		require.NoError(t, err)
		require.False(t, result.IsError)

		statements := strings.Split(resultText(t, result), ";\n")
		require.Len(t, statements, 2)
		assert.Equal(t, "CREATE INDEX IF NOT EXISTS FOR (n:`IdSpacePerson`) ON (n.`__csv_id`)", statements[0])
		assert.Contains(t, statements[1], "LOAD CSV FROM 'file:///person.csv' AS line FIELDTERMINATOR '|'")
		assert.Contains(t, statements[1], "toInteger(line[2]) AS `age`")
	})

	t.Run("server config is the default", func(t *testing.T) {
		result, err := handler(context.Background(), callRequest(map[string]any{
			"header": "name",
			"source": "https://example.test/people.csv",
		}))
		require.NoError(t, err)
		require.False(t, result.IsError)
		assert.Contains(t, resultText(t, result), "LOAD CSV FROM 'https://example.test/people.csv' AS line FIELDTERMINATOR ','")
	})

	t.Run("numeric identifiers override", func(t *testing.T) {
		result, err := handler(context.Background(), callRequest(map[string]any{
			"header":    ":ID,name",
			"source":    "p.csv",
			"labels":    []any{"P"},
			"stringIds": false,
		}))
		require.NoError(t, err)
		require.False(t, result.IsError)
		assert.Contains(t, resultText(t, result), "toInteger(line[0]) AS `__csv_id`")
	})

	t.Run("missing source", func(t *testing.T) {
		result, err := handler(context.Background(), callRequest(map[string]any{
			"header": "name",
		}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})

	t.Run("malformed header", func(t *testing.T) {
		result, err := handler(context.Background(), callRequest(map[string]any{
			"header": "first name",
			"source": "p.csv",
		}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "not well-formed")
	})

	t.Run("colliding separators", func(t *testing.T) {
		result, err := handler(context.Background(), callRequest(map[string]any{
			"header":         "name",
			"source":         "p.csv",
			"arraySeparator": ",",
		}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})
}

func TestConvertRelationshipHeaderHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	deps := &tools.ToolDependencies{
		LoaderConfig: loadcsv.DefaultConfig(),
	}
	handler := header.ConvertRelationshipHeaderHandler(deps)

	t.Run("static type", func(t *testing.T) {
		result, err := handler(context.Background(), callRequest(map[string]any{
			"header": ":START_ID(Person),:END_ID(Person),since:INT",
			"source": "knows.csv",
			"type":   "KNOWS",
		}))
		require.NoError(t, err)
		require.False(t, result.IsError)

		text := resultText(t, result)
		assert.Contains(t, text, "(src:`IdSpacePerson` {`__csv_id`: `__csv_start_id`})")
		assert.Contains(t, text, "CREATE (src)-[:`KNOWS` {`since`: `since`}]->(trg)")
	})

	t.Run("dynamic type", func(t *testing.T) {
		result, err := handler(context.Background(), callRequest(map[string]any{
			"header": ":START_ID,:END_ID,:TYPE",
			"source": "rels.csv",
		}))
		require.NoError(t, err)
		require.False(t, result.IsError)
		assert.Contains(t, resultText(t, result), "apoc.create.relationship")
	})

	t.Run("missing type", func(t *testing.T) {
		result, err := handler(context.Background(), callRequest(map[string]any{
			"header": ":START_ID,:END_ID",
			"source": "rels.csv",
		}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})

	t.Run("missing endpoint", func(t *testing.T) {
		result, err := handler(context.Background(), callRequest(map[string]any{
			"header": ":START_ID,name",
			"source": "rels.csv",
			"type":   "R",
		}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})
}
