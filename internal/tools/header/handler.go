// Package header exposes the header-to-Cypher conversion as MCP tools.
package header

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/importer"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/loadcsv"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/tools"
)

// ConvertNodeHeaderHandler returns a handler function for the convert-node-header tool
func ConvertNodeHeaderHandler(deps *tools.ToolDependencies) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleConvertNodeHeader(request, deps)
	}
}

// ConvertRelationshipHeaderHandler returns a handler function for the convert-relationship-header tool
func ConvertRelationshipHeaderHandler(deps *tools.ToolDependencies) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleConvertRelationshipHeader(request, deps)
	}
}

func handleConvertNodeHeader(request mcp.CallToolRequest, deps *tools.ToolDependencies) (*mcp.CallToolResult, error) {
	if deps.AnalyticsService != nil {
		deps.AnalyticsService.EmitEvent(deps.AnalyticsService.NewToolsEvent("convert-node-header"))
	}

	var args ConvertNodeHeaderInput
	if err := request.BindArguments(&args); err != nil {
		slog.Error("error binding arguments", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	if args.Source == "" {
		errMessage := "source parameter is required"
		slog.Error(errMessage)
		return mcp.NewToolResultError(errMessage), nil
	}

	cfg, err := args.CSVOptions.Apply(deps.LoaderConfig)
	if err != nil {
		slog.Error("invalid csv options", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	program, err := loadcsv.ConvertNodes(importer.SourceURL(args.Source), args.Header, args.Labels, cfg)
	if err != nil {
		slog.Error("failed to convert node header", "header", args.Header, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	slog.Info("converted node header", "source", args.Source, "statements", len(program))
	return mcp.NewToolResultText(program.String()), nil
}

func handleConvertRelationshipHeader(request mcp.CallToolRequest, deps *tools.ToolDependencies) (*mcp.CallToolResult, error) {
	if deps.AnalyticsService != nil {
		deps.AnalyticsService.EmitEvent(deps.AnalyticsService.NewToolsEvent("convert-relationship-header"))
	}

	var args ConvertRelationshipHeaderInput
	if err := request.BindArguments(&args); err != nil {
		slog.Error("error binding arguments", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	if args.Source == "" {
		errMessage := "source parameter is required"
		slog.Error(errMessage)
		return mcp.NewToolResultError(errMessage), nil
	}

	cfg, err := args.CSVOptions.Apply(deps.LoaderConfig)
	if err != nil {
		slog.Error("invalid csv options", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	query, err := loadcsv.ConvertRelationships(importer.SourceURL(args.Source), args.Header, args.Type, cfg)
	if err != nil {
		slog.Error("failed to convert relationship header", "header", args.Header, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	slog.Info("converted relationship header", "source", args.Source, "type", args.Type)
	return mcp.NewToolResultText(query), nil
}
