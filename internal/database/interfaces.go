package database

//go:generate mockgen -destination=mocks/mock_database.go -package=database_mocks -typed github.com/mkd-neo4j/neo4j-mcp-csv/internal/database Service
import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Service is the query execution engine used by the tools and the importer.
type Service interface {
	VerifyConnectivity(ctx context.Context) error
	ExecuteReadQuery(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error)
	ExecuteWriteQuery(ctx context.Context, cypher string, params map[string]any) (*WriteResult, error)
	Neo4jRecordsToJSON(records []*neo4j.Record) (string, error)
	GetDatabaseName() string
	Close(ctx context.Context) error
}

// Counters are the update statistics of a write query.
type Counters struct {
	NodesCreated         int `json:"nodesCreated"`
	RelationshipsCreated int `json:"relationshipsCreated"`
	PropertiesSet        int `json:"propertiesSet"`
	LabelsAdded          int `json:"labelsAdded"`
	IndexesAdded         int `json:"indexesAdded"`
}

// Add accumulates other into c.
func (c *Counters) Add(other Counters) {
	c.NodesCreated += other.NodesCreated
	c.RelationshipsCreated += other.RelationshipsCreated
	c.PropertiesSet += other.PropertiesSet
	c.LabelsAdded += other.LabelsAdded
	c.IndexesAdded += other.IndexesAdded
}

// WriteResult is the outcome of a write query.
type WriteResult struct {
	Records  []*neo4j.Record
	Counters Counters
}
