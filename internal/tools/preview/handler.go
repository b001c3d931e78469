package preview

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/csvheader"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/importer"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/loadcsv"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/tools"
)

const (
	httpTimeout  = 10 * time.Second
	defaultLines = 5
	maxLines     = 50
	maxChars     = 15000
	// maxFetchBytes bounds how much of a remote body is read.
	maxFetchBytes = 8 << 20
)

// PreviewCSVHandler returns a handler function for the preview-csv tool
func PreviewCSVHandler(deps *tools.ToolDependencies) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handlePreviewCSV(ctx, deps, request)
	}
}

func handlePreviewCSV(ctx context.Context, deps *tools.ToolDependencies, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if deps.Importer == nil {
		errMessage := "importer is not initialized"
		slog.Error(errMessage)
		return mcp.NewToolResultError(errMessage), nil
	}

	if deps.AnalyticsService != nil {
		deps.AnalyticsService.EmitEvent(deps.AnalyticsService.NewToolsEvent("preview-csv"))
	}

	var args PreviewCSVInput
	if err := request.BindArguments(&args); err != nil {
		slog.Error("error binding arguments", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	if args.File == "" {
		errMessage := "file parameter is required"
		slog.Error(errMessage)
		return mcp.NewToolResultError(errMessage), nil
	}

	lines := args.Lines
	if lines <= 0 {
		lines = defaultLines
	}
	lines = min(lines, maxLines)

	cfg, err := args.CSVOptions.Apply(deps.Importer.Config())
	if err != nil {
		slog.Error("invalid csv options", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	content, err := readPreview(ctx, deps, args.File, lines+1)
	if err != nil {
		slog.Warn("failed to read file for preview", "file", args.File, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(content) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("%s is empty", args.File)), nil
	}

	slog.Info("previewing CSV file", "file", args.File, "lines", len(content))
	return mcp.NewToolResultText(truncate(formatPreview(args.File, content, cfg), maxChars)), nil
}

// readPreview returns the first n lines of a local file or an http(s) URL.
func readPreview(ctx context.Context, deps *tools.ToolDependencies, file string, n int) ([]string, error) {
	local, url := deps.Importer.Locate(file)
	if local != "" {
		f, err := os.Open(local)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", file, err)
		}
		defer f.Close()
		return importer.ReadLines(f, n)
	}

	lower := strings.ToLower(url)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return nil, fmt.Errorf("only local files and http(s) URLs can be previewed, got %s", file)
	}
	body, err := fetchURL(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return importer.ReadLines(io.LimitReader(body, maxFetchBytes), n)
}

// fetchURL opens the body of url. The caller closes it.
func fetchURL(ctx context.Context, url string) (io.ReadCloser, error) {
	client := &http.Client{
		Timeout: httpTimeout,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return resp.Body, nil
}

func formatPreview(file string, lines []string, cfg loadcsv.Config) string {
	var md strings.Builder

	md.WriteString(fmt.Sprintf("# %s\n\n", file))
	md.WriteString("## Header\n\n")
	md.WriteString(fmt.Sprintf("`%s`\n\n", lines[0]))

	fields, err := loadcsv.NewSynthesizer(cfg).ParseHeader(lines[0])
	if err != nil {
		md.WriteString(fmt.Sprintf("The header cannot be used: %v\n\n", err))
		md.WriteString("If the file has no header line, pass the header explicitly to import-csv and set skipHeaderRow to false.\n\n")
	} else {
		md.WriteString("## Columns\n\n")
		md.WriteString("| # | Column | Role | Type | ID space |\n")
		md.WriteString("|---|--------|------|------|----------|\n")
		for _, f := range fields {
			md.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n", f.Index, columnName(f), role(f), columnType(f), f.IDSpace))
		}
		md.WriteString("\n")
	}

	md.WriteString(fmt.Sprintf("## First %d rows\n\n", len(lines)-1))
	md.WriteString("```\n")
	for _, line := range lines[1:] {
		md.WriteString(line)
		md.WriteString("\n")
	}
	md.WriteString("```\n")

	return md.String()
}

func columnName(f csvheader.Field) string {
	if f.Kind.IsIdentifier() || f.Name == "" {
		return "-"
	}
	return f.Name
}

func role(f csvheader.Field) string {
	switch f.Kind {
	case csvheader.Identifier:
		return "node identifier"
	case csvheader.RelationshipStart:
		return "start node"
	case csvheader.RelationshipEnd:
		return "end node"
	case csvheader.DynamicLabel:
		return "labels (APOC)"
	case csvheader.DynamicType:
		return "relationship type (APOC)"
	default:
		return "property"
	}
}

func columnType(f csvheader.Field) string {
	if f.Kind != csvheader.Plain {
		return ""
	}
	if f.Repeated {
		return f.Type + "[]"
	}
	return f.Type
}

// truncate cuts the preview to a maximum size to keep responses small
func truncate(preview string, maxChars int) string {
	if len(preview) <= maxChars {
		return preview
	}

	truncated := preview[:maxChars]
	lastNewline := strings.LastIndex(truncated, "\n")
	if lastNewline > maxChars-500 {
		truncated = truncated[:lastNewline]
	}

	return truncated + "\n\n...[preview truncated]..."
}
