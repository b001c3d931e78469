package cypher

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/loadcsv"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/tools"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const (
	labelCountsQuery = `
		MATCH (n)
		UNWIND labels(n) AS label
		RETURN label, count(*) AS count
		ORDER BY label
	`

	relTypeCountsQuery = `
		MATCH ()-[r]->()
		RETURN type(r) AS type, count(*) AS count
		ORDER BY type
	`

	// nodePropertiesQuery retrieves node properties with their types
	nodePropertiesQuery = `
		CALL db.schema.nodeTypeProperties()
		YIELD nodeLabels, propertyName, propertyTypes
		RETURN nodeLabels, propertyName, propertyTypes
	`

	// relPropertiesQuery retrieves relationship properties with their types
	relPropertiesQuery = `
		CALL db.schema.relTypeProperties()
		YIELD relType, propertyName, propertyTypes
		RETURN relType, propertyName, propertyTypes
	`

	indexesQuery = `
		SHOW INDEXES
		YIELD name, type, labelsOrTypes, properties, state
		WHERE type <> 'LOOKUP'
		RETURN name, type, labelsOrTypes, properties, state
		ORDER BY name
	`
)

// ElementSummary describes one label or relationship type.
type ElementSummary struct {
	Name       string
	Count      int64
	Properties map[string]string
}

type IndexSummary struct {
	Name          string
	Type          string
	LabelsOrTypes []string
	Properties    []string
	State         string
}

type GraphSummary struct {
	Labels            []ElementSummary
	RelationshipTypes []ElementSummary
	Indexes           []IndexSummary
}

// GetGraphSummaryHandler returns a handler function for the get-graph-summary tool
func GetGraphSummaryHandler(deps *tools.ToolDependencies) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetGraphSummary(ctx, deps)
	}
}

func handleGetGraphSummary(ctx context.Context, deps *tools.ToolDependencies) (*mcp.CallToolResult, error) {
	if deps.DBService == nil {
		errMessage := "database service is not initialized"
		slog.Error(errMessage)
		return mcp.NewToolResultError(errMessage), nil
	}
	if deps.AnalyticsService == nil {
		errMessage := "analytics service is not initialized"
		slog.Error(errMessage)
		return mcp.NewToolResultError(errMessage), nil
	}

	deps.AnalyticsService.EmitEvent(deps.AnalyticsService.NewToolsEvent("get-graph-summary"))
	slog.Info("retrieving graph summary", "database", deps.DBService.GetDatabaseName())

	labelRecords, err := deps.DBService.ExecuteReadQuery(ctx, labelCountsQuery, nil)
	if err != nil {
		slog.Error("failed to execute label counts query", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(labelRecords) == 0 {
		slog.Info("database is empty, no summary to return", "database", deps.DBService.GetDatabaseName())
		return mcp.NewToolResultText(fmt.Sprintf("The get-graph-summary tool executed successfully; however, since the Neo4j database '%s' contains no data, no summary was returned.", deps.DBService.GetDatabaseName())), nil
	}

	relRecords, err := deps.DBService.ExecuteReadQuery(ctx, relTypeCountsQuery, nil)
	if err != nil {
		slog.Error("failed to execute relationship counts query", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	nodePropsRecords, err := deps.DBService.ExecuteReadQuery(ctx, nodePropertiesQuery, nil)
	if err != nil {
		slog.Error("failed to execute node properties query", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	relPropsRecords, err := deps.DBService.ExecuteReadQuery(ctx, relPropertiesQuery, nil)
	if err != nil {
		slog.Error("failed to execute relationship properties query", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	// index listing needs privileges some users lack; the summary is still useful without it
	indexRecords, err := deps.DBService.ExecuteReadQuery(ctx, indexesQuery, nil)
	if err != nil {
		slog.Warn("failed to list indexes", "error", err)
		indexRecords = nil
	}

	summary := buildGraphSummary(labelRecords, relRecords, nodePropsRecords, relPropsRecords, indexRecords)
	markdown := formatSummaryAsMarkdown(summary)

	slog.Info("returning graph summary",
		"labels", len(summary.Labels),
		"relationshipTypes", len(summary.RelationshipTypes),
		"indexes", len(summary.Indexes))
	return mcp.NewToolResultText(markdown), nil
}

func buildGraphSummary(labelRecords, relRecords, nodePropsRecords, relPropsRecords, indexRecords []*neo4j.Record) GraphSummary {
	nodeProps := nodePropertyTypes(nodePropsRecords)
	relProps := relPropertyTypes(relPropsRecords)

	var summary GraphSummary
	for _, record := range labelRecords {
		name, count, ok := nameAndCount(record, "label")
		if !ok {
			slog.Warn("skipping label record", "keys", record.Keys)
			continue
		}
		summary.Labels = append(summary.Labels, ElementSummary{Name: name, Count: count, Properties: nodeProps[name]})
	}
	for _, record := range relRecords {
		name, count, ok := nameAndCount(record, "type")
		if !ok {
			slog.Warn("skipping relationship type record", "keys", record.Keys)
			continue
		}
		summary.RelationshipTypes = append(summary.RelationshipTypes, ElementSummary{Name: name, Count: count, Properties: relProps[name]})
	}
	for _, record := range indexRecords {
		name, _ := record.Get("name")
		typ, _ := record.Get("type")
		state, _ := record.Get("state")
		labelsOrTypes, _ := record.Get("labelsOrTypes")
		properties, _ := record.Get("properties")

		idx := IndexSummary{
			LabelsOrTypes: stringList(labelsOrTypes),
			Properties:    stringList(properties),
		}
		idx.Name, _ = name.(string)
		idx.Type, _ = typ.(string)
		idx.State, _ = state.(string)
		summary.Indexes = append(summary.Indexes, idx)
	}
	return summary
}

func nameAndCount(record *neo4j.Record, nameKey string) (string, int64, bool) {
	nameRaw, _ := record.Get(nameKey)
	countRaw, _ := record.Get("count")
	name, ok := nameRaw.(string)
	if !ok {
		return "", 0, false
	}
	switch c := countRaw.(type) {
	case int64:
		return name, c, true
	case int:
		return name, int64(c), true
	}
	return "", 0, false
}

// nodePropertyTypes builds label -> {propName -> propType}. A property
// seen on nodes with several labels is reported for each of them.
func nodePropertyTypes(records []*neo4j.Record) map[string]map[string]string {
	props := make(map[string]map[string]string)
	for _, record := range records {
		nodeLabelsRaw, _ := record.Get("nodeLabels")
		propertyName, _ := record.Get("propertyName")
		propertyTypes, _ := record.Get("propertyTypes")

		propName, ok := propertyName.(string)
		if !ok {
			continue
		}
		propType := firstString(propertyTypes)
		for _, label := range stringList(nodeLabelsRaw) {
			if props[label] == nil {
				props[label] = make(map[string]string)
			}
			props[label][propName] = propType
		}
	}
	return props
}

// relPropertyTypes builds relType -> {propName -> propType}. relType is
// reported by Neo4j as ":`TYPE`".
func relPropertyTypes(records []*neo4j.Record) map[string]map[string]string {
	props := make(map[string]map[string]string)
	for _, record := range records {
		relTypeRaw, _ := record.Get("relType")
		propertyName, _ := record.Get("propertyName")
		propertyTypes, _ := record.Get("propertyTypes")

		relType, ok := relTypeRaw.(string)
		if !ok {
			continue
		}
		relType = strings.Trim(strings.TrimPrefix(relType, ":"), "`")
		propName, ok := propertyName.(string)
		if !ok {
			continue
		}
		if props[relType] == nil {
			props[relType] = make(map[string]string)
		}
		props[relType][propName] = firstString(propertyTypes)
	}
	return props
}

func stringList(raw any) []string {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func firstString(raw any) string {
	if list := stringList(raw); len(list) > 0 {
		return list[0]
	}
	return ""
}

func formatSummaryAsMarkdown(summary GraphSummary) string {
	var md strings.Builder

	md.WriteString("# Graph Summary\n\n")

	if len(summary.Labels) > 0 {
		md.WriteString("## 1. Node Labels\n\n")
		for _, label := range summary.Labels {
			md.WriteString(fmt.Sprintf("### :%s (%d nodes)", label.Name, label.Count))
			if strings.HasPrefix(label.Name, loadcsv.IDSpaceLabelPrefix) {
				md.WriteString(" identifier space")
			}
			md.WriteString("\n\n")
			writeProperties(&md, label.Properties)
		}
	}

	if len(summary.RelationshipTypes) > 0 {
		md.WriteString("## 2. Relationship Types\n\n")
		for _, rel := range summary.RelationshipTypes {
			md.WriteString(fmt.Sprintf("### :%s (%d relationships)\n\n", rel.Name, rel.Count))
			writeProperties(&md, rel.Properties)
		}
	}

	if len(summary.Indexes) > 0 {
		md.WriteString("## 3. Indexes\n\n")
		for _, idx := range summary.Indexes {
			md.WriteString(fmt.Sprintf("  - `%s` %s on (:%s) {%s} [%s]\n",
				idx.Name, idx.Type, strings.Join(idx.LabelsOrTypes, ":"), strings.Join(idx.Properties, ", "), idx.State))
		}
		md.WriteString("\n")
	}

	return md.String()
}

func writeProperties(md *strings.Builder, props map[string]string) {
	if len(props) == 0 {
		return
	}
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	md.WriteString("*Properties:*\n\n")
	for _, name := range names {
		md.WriteString(fmt.Sprintf("  - `%s` (%s)\n", name, props[name]))
	}
	md.WriteString("\n")
}
