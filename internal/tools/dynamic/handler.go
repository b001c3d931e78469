package dynamic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/analytics"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/importer"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/tools"
)

// NewManifestHandler creates a handler function running the manifest's import
func NewManifestHandler(manifest *Manifest, deps *tools.ToolDependencies) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleManifest(ctx, request, manifest, deps)
	}
}

func handleManifest(ctx context.Context, request mcp.CallToolRequest, manifest *Manifest, deps *tools.ToolDependencies) (*mcp.CallToolResult, error) {
	if deps.Importer == nil {
		errMessage := "importer is not initialized"
		slog.Error(errMessage)
		return mcp.NewToolResultError(errMessage), nil
	}

	if deps.AnalyticsService != nil {
		deps.AnalyticsService.EmitEvent(deps.AnalyticsService.NewToolsEvent(manifest.Name))
	}

	var args ManifestInput
	if err := request.BindArguments(&args); err != nil {
		slog.Error("error binding arguments", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	if args.DryRun {
		program, err := manifest.Plan(deps.Importer)
		if err != nil {
			slog.Error("failed to plan manifest", "tool", manifest.Name, "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(program), nil
	}

	slog.Info("running import manifest", "tool", manifest.Name, "category", manifest.Category,
		"nodeFiles", len(manifest.Nodes), "relationshipFiles", len(manifest.Relationships))

	start := time.Now()
	report, err := manifest.Run(ctx, deps.Importer)

	if deps.AnalyticsService != nil {
		deps.AnalyticsService.EmitEvent(deps.AnalyticsService.NewImportEvent(importEventInfo(manifest, report, time.Since(start), err)))
	}

	if err != nil {
		slog.Error("import manifest failed", "tool", manifest.Name, "error", err)
		if errors.Is(err, importer.ErrAPOCRequired) {
			return mcp.NewToolResultError(err.Error() + ". Install APOC or replace the :LABEL/:TYPE columns with static labels or a type."), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	response, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		slog.Error("error formatting import report", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(response)), nil
}

func importEventInfo(manifest *Manifest, report *importer.Report, elapsed time.Duration, err error) analytics.ImportEventInfo {
	info := analytics.ImportEventInfo{
		Kind:      "manifest",
		Files:     len(manifest.Nodes) + len(manifest.Relationships),
		Duration:  elapsed,
		Succeeded: err == nil,
	}
	if report != nil {
		for _, f := range report.Files {
			if f.Rows > 0 {
				info.Rows += f.Rows
			}
			info.Batches += f.Batches
			info.Dynamic = info.Dynamic || f.Dynamic
		}
	}
	return info
}

// buildEnrichedDescription describes the manifest and the files it imports
func buildEnrichedDescription(manifest *Manifest) string {
	var sb strings.Builder

	sb.WriteString(manifest.Description)

	if manifest.Intent != "" {
		sb.WriteString("\n\n## Intent\n")
		sb.WriteString(manifest.Intent)
	}

	if len(manifest.Nodes) > 0 {
		sb.WriteString("\n\n## Node Files\n")
		for _, f := range manifest.Nodes {
			sb.WriteString(fmt.Sprintf("- `%s`", f.Path))
			if len(f.Labels) > 0 {
				sb.WriteString(fmt.Sprintf(" as :%s", strings.Join(f.Labels, ":")))
			}
			sb.WriteString("\n")
		}
	}

	if len(manifest.Relationships) > 0 {
		sb.WriteString("\n\n## Relationship Files\n")
		for _, f := range manifest.Relationships {
			sb.WriteString(fmt.Sprintf("- `%s`", f.Path))
			if f.Type != "" {
				sb.WriteString(fmt.Sprintf(" as :%s", f.Type))
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n\nNode files are imported before relationship files. Set dryRun to see the Cypher without running it.")
	return sb.String()
}
