package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/analytics"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/importer"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/tools"
)

// ImportCSVHandler returns a handler function for the import-csv tool
func ImportCSVHandler(deps *tools.ToolDependencies) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleImportCSV(ctx, request, deps)
	}
}

func handleImportCSV(ctx context.Context, request mcp.CallToolRequest, deps *tools.ToolDependencies) (*mcp.CallToolResult, error) {
	if deps.Importer == nil {
		errMessage := "importer is not initialized"
		slog.Error(errMessage)
		return mcp.NewToolResultError(errMessage), nil
	}

	if deps.AnalyticsService == nil {
		errMessage := "analytics service is not initialized"
		slog.Error(errMessage)
		return mcp.NewToolResultError(errMessage), nil
	}

	deps.AnalyticsService.EmitEvent(deps.AnalyticsService.NewToolsEvent("import-csv"))

	var args ImportCSVInput
	if err := request.BindArguments(&args); err != nil {
		slog.Error("error binding arguments", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	if args.File == "" {
		errMessage := "file parameter is required"
		slog.Error(errMessage)
		return mcp.NewToolResultError(errMessage), nil
	}

	im := deps.Importer
	if !args.CSVOptions.IsZero() {
		cfg, err := args.CSVOptions.Apply(im.Config())
		if err != nil {
			slog.Error("invalid csv options", "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		if im, err = im.WithConfig(cfg); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	slog.Info("importing csv file", "file", args.File, "kind", args.Kind)

	start := time.Now()
	var (
		result *importer.FileResult
		err    error
	)
	switch args.Kind {
	case importer.KindNodes:
		result, err = im.ImportNodes(ctx, importer.NodeFile{Path: args.File, Labels: args.Labels, Header: args.Header})
	case importer.KindRelationships:
		result, err = im.ImportRelationships(ctx, importer.RelationshipFile{Path: args.File, Type: args.Type, Header: args.Header})
	default:
		errMessage := fmt.Sprintf("kind must be %q or %q, got %q", importer.KindNodes, importer.KindRelationships, args.Kind)
		slog.Error(errMessage)
		return mcp.NewToolResultError(errMessage), nil
	}

	deps.AnalyticsService.EmitEvent(deps.AnalyticsService.NewImportEvent(analytics.ImportEventInfo{
		Kind:      args.Kind,
		Files:     1,
		Rows:      rowsOf(result),
		Batches:   batchesOf(result),
		Dynamic:   result != nil && result.Dynamic,
		Duration:  time.Since(start),
		Succeeded: err == nil,
	}))

	if err != nil {
		slog.Error("csv import failed", "file", args.File, "error", err)
		if errors.Is(err, importer.ErrAPOCRequired) {
			return mcp.NewToolResultError(err.Error() + ". Install APOC or replace the :LABEL/:TYPE columns with static labels or a type."), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	response, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		slog.Error("error formatting import result", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(response)), nil
}

func rowsOf(r *importer.FileResult) int {
	if r == nil {
		return 0
	}
	return r.Rows
}

func batchesOf(r *importer.FileResult) int {
	if r == nil {
		return 0
	}
	return r.Batches
}
