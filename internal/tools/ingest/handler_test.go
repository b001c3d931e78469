package ingest_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/analytics"
	analytics_mocks "github.com/mkd-neo4j/neo4j-mcp-csv/internal/analytics/mocks"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/database"
	db "github.com/mkd-neo4j/neo4j-mcp-csv/internal/database/mocks"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/importer"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/loadcsv"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/tools"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/tools/ingest"
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

func setup(t *testing.T, ctrl *gomock.Controller, apoc bool) (*db.MockService, *analytics_mocks.MockService, *tools.ToolDependencies) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "person.csv"), []byte(":ID(Person),name,age:INT\n1,Alice,30\n2,Bob,41\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "knows.csv"), []byte(":START_ID(Person)|:END_ID(Person)\n1|2\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "typed.csv"), []byte(":START_ID,:END_ID,:TYPE\n1,2,KNOWS\n"), 0o600))

	mockDB := db.NewMockService(ctrl)
	analyticsService := analytics_mocks.NewMockService(ctrl)
	analyticsService.EXPECT().NewToolsEvent("import-csv").AnyTimes()

	im, err := importer.New(mockDB, loadcsv.DefaultConfig(), importer.WithImportDir(dir), importer.WithAPOC(apoc))
	require.NoError(t, err)

	return mockDB, analyticsService, &tools.ToolDependencies{
		DBService:        mockDB,
		AnalyticsService: analyticsService,
		Importer:         im,
		LoaderConfig:     loadcsv.DefaultConfig(),
	}
}

func TestImportCSVHandler(t *testing.T) {
	t.Run("imports a node file", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		mockDB, analyticsService, deps := setup(t, ctrl, false)

		mockDB.EXPECT().
			ExecuteWriteQuery(gomock.Any(), "CREATE INDEX IF NOT EXISTS FOR (n:`IdSpacePerson`) ON (n.`__csv_id`)", nil).
			Return(&database.WriteResult{Counters: database.Counters{IndexesAdded: 1}}, nil)
		mockDB.EXPECT().
			ExecuteWriteQuery(gomock.Any(), gomock.Any(), nil).
			Return(&database.WriteResult{Counters: database.Counters{NodesCreated: 2, PropertiesSet: 6, LabelsAdded: 4}}, nil)

		analyticsService.EXPECT().NewImportEvent(gomock.Any()).DoAndReturn(func(info analytics.ImportEventInfo) analytics.TrackEvent {
			assert.Equal(t, "nodes", info.Kind)
			assert.Equal(t, 2, info.Rows)
			assert.True(t, info.Succeeded)
			return analytics.TrackEvent{Event: "MCP_CSV_IMPORT"}
		})
		analyticsService.EXPECT().EmitEvent(gomock.Any()).Times(2)

		handler := ingest.ImportCSVHandler(deps)
		result, err := handler(context.Background(), callRequest(map[string]any{
			"kind":   "nodes",
			"file":   "person.csv",
			"labels": []any{"Person"},
		}))
		require.NoError(t, err)
		require.False(t, result.IsError, resultText(t, result))

		var report importer.FileResult
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &report))
		assert.Equal(t, "person.csv", report.Path)
		assert.Equal(t, 2, report.Rows)
		assert.Equal(t, 1, report.Batches)
		assert.Equal(t, 2, report.Counters.NodesCreated)
		assert.Equal(t, 1, report.Counters.IndexesAdded)
	})

	t.Run("imports a relationship file with overrides", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		mockDB, analyticsService, deps := setup(t, ctrl, false)

		mockDB.EXPECT().
			ExecuteWriteQuery(gomock.Any(), gomock.Any(), nil).
			DoAndReturn(func(_ context.Context, cypher string, _ map[string]any) (*database.WriteResult, error) {
				assert.Contains(t, cypher, "FIELDTERMINATOR '|'")
				assert.Contains(t, cypher, "CREATE (src)-[:`KNOWS`]->(trg)")
				return &database.WriteResult{Counters: database.Counters{RelationshipsCreated: 1}}, nil
			})
		analyticsService.EXPECT().NewImportEvent(gomock.Any())
		analyticsService.EXPECT().EmitEvent(gomock.Any()).Times(2)

		handler := ingest.ImportCSVHandler(deps)
		result, err := handler(context.Background(), callRequest(map[string]any{
			"kind":           "relationships",
			"file":           "knows.csv",
			"type":           "KNOWS",
			"fieldSeparator": "|",
		}))
		require.NoError(t, err)
		require.False(t, result.IsError, resultText(t, result))
		assert.Equal(t, ',', deps.Importer.Config().FieldSeparator, "overrides do not leak into the shared importer")
	})

	t.Run("dynamic type without APOC", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		_, analyticsService, deps := setup(t, ctrl, false)

		analyticsService.EXPECT().NewImportEvent(gomock.Any()).DoAndReturn(func(info analytics.ImportEventInfo) analytics.TrackEvent {
			assert.False(t, info.Succeeded)
			return analytics.TrackEvent{}
		})
		analyticsService.EXPECT().EmitEvent(gomock.Any()).Times(2)

		handler := ingest.ImportCSVHandler(deps)
		result, err := handler(context.Background(), callRequest(map[string]any{
			"kind": "relationships",
			"file": "typed.csv",
		}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "Install APOC")
	})

	t.Run("database failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		mockDB, analyticsService, deps := setup(t, ctrl, true)

		mockDB.EXPECT().
			ExecuteWriteQuery(gomock.Any(), gomock.Any(), nil).
			Return(nil, errors.New("connection refused"))
		analyticsService.EXPECT().NewImportEvent(gomock.Any())
		analyticsService.EXPECT().EmitEvent(gomock.Any()).Times(2)

		handler := ingest.ImportCSVHandler(deps)
		result, err := handler(context.Background(), callRequest(map[string]any{
			"kind": "relationships",
			"file": "typed.csv",
		}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "connection refused")
	})

	t.Run("invalid kind", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		_, analyticsService, deps := setup(t, ctrl, false)
		analyticsService.EXPECT().EmitEvent(gomock.Any()).Times(1)

		handler := ingest.ImportCSVHandler(deps)
		result, err := handler(context.Background(), callRequest(map[string]any{
			"kind": "edges",
			"file": "knows.csv",
		}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})

	t.Run("missing file", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		_, analyticsService, deps := setup(t, ctrl, false)
		analyticsService.EXPECT().EmitEvent(gomock.Any()).Times(1)

		handler := ingest.ImportCSVHandler(deps)
		result, err := handler(context.Background(), callRequest(map[string]any{
			"kind": "nodes",
		}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})

	t.Run("nil importer", func(t *testing.T) {
		handler := ingest.ImportCSVHandler(&tools.ToolDependencies{})
		result, err := handler(context.Background(), callRequest(map[string]any{
			"kind": "nodes",
			"file": "person.csv",
		}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})
}
