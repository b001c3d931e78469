package server

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/tools"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/tools/cypher"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/tools/cypher/read"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/tools/dynamic"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/tools/header"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/tools/ingest"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/tools/preview"
)

// registerTools registers all enabled MCP tools and adds them to the provided MCP server.
// Tools are filtered according to the server configuration. When read-only mode is enabled
// (NEO4J_READ_ONLY or Config.ReadOnly) every tool that writes to the database is excluded,
// which removes import-csv and all manifest tools.
func (s *Neo4jMCPServer) registerTools() (int, error) {
	filteredTools := s.getEnabledTools()
	s.MCPServer.AddTools(filteredTools...)
	return len(filteredTools), nil
}

type toolFilter func(tools []ToolDefinition) []ToolDefinition

type toolCategory int

const (
	headerCategory  toolCategory = 0
	importCategory  toolCategory = 1
	cypherCategory  toolCategory = 2
	dynamicCategory toolCategory = 3 // Manifest-based import tools
)

type ToolDefinition struct {
	category   toolCategory
	definition server.ServerTool
	readonly   bool
}

func (s *Neo4jMCPServer) getEnabledTools() []server.ServerTool {
	filters := make([]toolFilter, 0)

	// If read-only mode is enabled, expose only tools annotated as read-only.
	if s.config != nil && s.config.ReadOnly {
		filters = append(filters, filterWriteTools)
	}
	// Without an importer files can only be converted, not read or loaded.
	if s.importer == nil {
		filters = append(filters, filterImportTools)
	}
	deps := &tools.ToolDependencies{
		DBService:        s.dbService,
		AnalyticsService: s.anService,
		Importer:         s.importer,
		LoaderConfig:     s.loaderConfig,
	}
	toolDefs := s.getAllToolsDefs(deps)

	for _, filter := range filters {
		toolDefs = filter(toolDefs)
	}

	enabledTools := make([]server.ServerTool, 0, len(toolDefs))
	s.manifestTools = 0
	for _, toolDef := range toolDefs {
		if toolDef.category == dynamicCategory {
			s.manifestTools++
		}
		enabledTools = append(enabledTools, toolDef.definition)
	}
	return enabledTools
}

func filterWriteTools(tools []ToolDefinition) []ToolDefinition {
	readOnlyTools := make([]ToolDefinition, 0, len(tools))
	for _, t := range tools {
		if t.readonly {
			readOnlyTools = append(readOnlyTools, t)
		}
	}
	return readOnlyTools
}

func filterImportTools(tools []ToolDefinition) []ToolDefinition {
	nonImportTools := make([]ToolDefinition, 0, len(tools))
	for _, t := range tools {
		if t.category != importCategory && t.category != dynamicCategory {
			nonImportTools = append(nonImportTools, t)
		}
	}
	return nonImportTools
}

// getAllToolsDefs returns all available tools with their specs and handlers
func (s *Neo4jMCPServer) getAllToolsDefs(deps *tools.ToolDependencies) []ToolDefinition {
	toolDefs := []ToolDefinition{
		{
			category: headerCategory,
			definition: server.ServerTool{
				Tool:    header.ConvertNodeHeaderSpec(),
				Handler: header.ConvertNodeHeaderHandler(deps),
			},
			readonly: true,
		},
		{
			category: headerCategory,
			definition: server.ServerTool{
				Tool:    header.ConvertRelationshipHeaderSpec(),
				Handler: header.ConvertRelationshipHeaderHandler(deps),
			},
			readonly: true,
		},
		{
			category: importCategory,
			definition: server.ServerTool{
				Tool:    preview.PreviewCSVSpec(),
				Handler: preview.PreviewCSVHandler(deps),
			},
			readonly: true,
		},
		{
			category: importCategory,
			definition: server.ServerTool{
				Tool:    ingest.ImportCSVSpec(),
				Handler: ingest.ImportCSVHandler(deps),
			},
			readonly: false,
		},
		{
			category: cypherCategory,
			definition: server.ServerTool{
				Tool:    cypher.GetGraphSummarySpec(),
				Handler: cypher.GetGraphSummaryHandler(deps),
			},
			readonly: true,
		},
		{
			category: cypherCategory,
			definition: server.ServerTool{
				Tool:    read.ReadCypherSpec(),
				Handler: read.ReadCypherHandler(deps),
			},
			readonly: true,
		},
	}

	// Load import manifests, embedded and from the manifest directory
	dynamicTools := s.loadDynamicTools(deps)
	toolDefs = append(toolDefs, dynamicTools...)

	return toolDefs
}

// loadDynamicTools turns every import manifest into a tool
func (s *Neo4jMCPServer) loadDynamicTools(deps *tools.ToolDependencies) []ToolDefinition {
	manifestDir := ""
	if s.config != nil {
		manifestDir = s.config.ManifestDir
	}
	registry := dynamic.NewToolRegistry(manifestDir)

	if err := registry.LoadTools(); err != nil {
		slog.Error("failed to load import manifests", "error", err)
		return []ToolDefinition{}
	}

	if registry.GetToolCount() == 0 {
		slog.Info("no import manifests found", "dir", manifestDir)
		return []ToolDefinition{}
	}

	serverTools := registry.GetServerTools(deps)
	toolDefs := make([]ToolDefinition, 0, len(serverTools))

	for _, serverTool := range serverTools {
		// Manifest tools always write to the database
		toolDefs = append(toolDefs, ToolDefinition{
			category:   dynamicCategory,
			definition: serverTool,
			readonly:   false,
		})
	}

	return toolDefs
}
