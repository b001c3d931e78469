package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// Neo4jService executes queries through a Neo4j driver against one database.
type Neo4jService struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jService wraps an existing driver.
func NewNeo4jService(driver neo4j.DriverWithContext, database string) (*Neo4jService, error) {
	if driver == nil {
		return nil, fmt.Errorf("driver is required")
	}
	if database == "" {
		database = "neo4j"
	}
	return &Neo4jService{driver: driver, database: database}, nil
}

// Connect creates a driver with basic auth and wraps it.
func Connect(uri, username, password, database string) (*Neo4jService, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}
	return NewNeo4jService(driver, database)
}

func (s *Neo4jService) VerifyConnectivity(ctx context.Context) error {
	if err := s.driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("failed to verify connectivity: %w", err)
	}
	return nil
}

func (s *Neo4jService) ExecuteReadQuery(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	res, err := neo4j.ExecuteQuery(ctx, s.driver, cypher, params, neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database),
		neo4j.ExecuteQueryWithReadersRouting())
	if err != nil {
		slog.Error("error executing read query", "database", s.database, "error", err)
		return nil, fmt.Errorf("failed to execute read query: %w", err)
	}
	return res.Records, nil
}

func (s *Neo4jService) ExecuteWriteQuery(ctx context.Context, cypher string, params map[string]any) (*WriteResult, error) {
	res, err := neo4j.ExecuteQuery(ctx, s.driver, cypher, params, neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database),
		neo4j.ExecuteQueryWithWritersRouting())
	if err != nil {
		slog.Error("error executing write query", "database", s.database, "error", err)
		return nil, fmt.Errorf("failed to execute write query: %w", err)
	}

	result := &WriteResult{Records: res.Records}
	if res.Summary != nil {
		c := res.Summary.Counters()
		result.Counters = Counters{
			NodesCreated:         c.NodesCreated(),
			RelationshipsCreated: c.RelationshipsCreated(),
			PropertiesSet:        c.PropertiesSet(),
			LabelsAdded:          c.LabelsAdded(),
			IndexesAdded:         c.IndexesAdded(),
		}
	}
	return result, nil
}

// Neo4jRecordsToJSON renders records as a JSON array of objects keyed by
// column name. Nodes and relationships become plain maps.
func (s *Neo4jService) Neo4jRecordsToJSON(records []*neo4j.Record) (string, error) {
	return RecordsToJSON(records)
}

func (s *Neo4jService) GetDatabaseName() string {
	return s.database
}

func (s *Neo4jService) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// RecordsToJSON is the driver-independent part of Neo4jRecordsToJSON.
func RecordsToJSON(records []*neo4j.Record) (string, error) {
	rows := make([]map[string]any, 0, len(records))
	for _, record := range records {
		row := make(map[string]any, len(record.Keys))
		for i, key := range record.Keys {
			row[key] = toJSONValue(record.Values[i])
		}
		rows = append(rows, row)
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal records: %w", err)
	}
	return string(data), nil
}

func toJSONValue(v any) any {
	switch val := v.(type) {
	case dbtype.Node:
		props := make(map[string]any, len(val.Props)+1)
		for k, p := range val.Props {
			props[k] = toJSONValue(p)
		}
		props["_labels"] = val.Labels
		return props
	case dbtype.Relationship:
		props := make(map[string]any, len(val.Props)+1)
		for k, p := range val.Props {
			props[k] = toJSONValue(p)
		}
		props["_type"] = val.Type
		return props
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = toJSONValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = toJSONValue(item)
		}
		return out
	default:
		return val
	}
}
