package dynamic

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/tools"
)

// ToolRegistry manages the loading and registration of manifest tools
type ToolRegistry struct {
	configDir string
	manifests []*Manifest
}

// NewToolRegistry creates a new tool registry
func NewToolRegistry(configDir string) *ToolRegistry {
	return &ToolRegistry{
		configDir: configDir,
		manifests: make([]*Manifest, 0),
	}
}

// LoadTools loads all manifests
func (r *ToolRegistry) LoadTools() error {
	manifests, err := WalkConfigDirectory(r.configDir)
	if err != nil {
		return fmt.Errorf("failed to load manifests: %w", err)
	}

	r.manifests = manifests
	slog.Info("loaded import manifests", "count", len(manifests), "configDir", r.configDir, "categories", r.ListCategories())

	return nil
}

// GetToolCount returns the number of loaded tools
func (r *ToolRegistry) GetToolCount() int {
	return len(r.manifests)
}

// GetServerTools converts all loaded manifests into MCP server tools
func (r *ToolRegistry) GetServerTools(deps *tools.ToolDependencies) []server.ServerTool {
	serverTools := make([]server.ServerTool, 0, len(r.manifests))

	for _, manifest := range r.manifests {
		serverTools = append(serverTools, r.buildServerTool(manifest, deps))
	}

	return serverTools
}

// buildServerTool creates an MCP server tool from a manifest
func (r *ToolRegistry) buildServerTool(manifest *Manifest, deps *tools.ToolDependencies) server.ServerTool {
	mcpTool := mcp.NewTool(manifest.Name,
		mcp.WithDescription(buildEnrichedDescription(manifest)),
		mcp.WithInputSchema[ManifestInput](),
		mcp.WithTitleAnnotation(manifest.Name),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	slog.Debug("built manifest tool", "name", manifest.Name, "category", manifest.Category)

	return server.ServerTool{
		Tool:    mcpTool,
		Handler: NewManifestHandler(manifest, deps),
	}
}

// ListCategories returns all unique categories, sorted
func (r *ToolRegistry) ListCategories() []string {
	categoryMap := make(map[string]bool)
	for _, manifest := range r.manifests {
		categoryMap[manifest.Category] = true
	}

	categories := make([]string, 0, len(categoryMap))
	for category := range categoryMap {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	return categories
}
