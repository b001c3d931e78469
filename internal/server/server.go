package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"
	"github.com/mkd-neo4j/neo4j-mcp-csv/docs"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/analytics"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/config"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/database"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/importer"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/loadcsv"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/tools/dynamic"
	toolsconfig "github.com/mkd-neo4j/neo4j-mcp-csv/tools"
)

const serverName = "neo4j-mcp-csv"

// Neo4jMCPServer exposes the CSV header conversion and import tools over MCP.
type Neo4jMCPServer struct {
	MCPServer *server.MCPServer

	version       string
	config        *config.Config
	loaderConfig  loadcsv.Config
	dbService     database.Service
	anService     analytics.Service
	importer      *importer.Importer
	apocInstalled bool
	manifestTools int
}

// NewNeo4jMCPServer creates the server. Nothing touches the database until
// Start is called.
func NewNeo4jMCPServer(version string, cfg *config.Config, dbService database.Service, anService analytics.Service) (*Neo4jMCPServer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if dbService == nil {
		return nil, fmt.Errorf("database service is required")
	}
	loaderConfig, err := cfg.LoaderConfig()
	if err != nil {
		return nil, err
	}

	dynamic.EmbeddedFS = toolsconfig.ConfigFiles

	mcpServer := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions(docs.HeaderDSLPrompt),
	)

	return &Neo4jMCPServer{
		MCPServer:    mcpServer,
		version:      version,
		config:       cfg,
		loaderConfig: loaderConfig,
		dbService:    dbService,
		anService:    anService,
	}, nil
}

// Start verifies the connection, registers the tools and serves stdio until
// the client disconnects.
func (s *Neo4jMCPServer) Start(ctx context.Context) error {
	if err := s.prepare(ctx); err != nil {
		return err
	}
	slog.Info("starting MCP server on stdio", "name", serverName, "version", s.version)
	return server.ServeStdio(s.MCPServer)
}

// Stop closes the database connection.
func (s *Neo4jMCPServer) Stop(ctx context.Context) error {
	return s.dbService.Close(ctx)
}

func (s *Neo4jMCPServer) prepare(ctx context.Context) error {
	if err := s.dbService.VerifyConnectivity(ctx); err != nil {
		return err
	}

	s.apocInstalled = importer.DetectAPOC(ctx, s.dbService)

	im, err := importer.New(s.dbService, s.loaderConfig,
		importer.WithImportDir(s.config.ImportDir),
		importer.WithConcurrency(s.config.Concurrency),
		importer.WithAPOC(s.apocInstalled),
	)
	if err != nil {
		return fmt.Errorf("failed to create importer: %w", err)
	}
	s.importer = im

	toolCount, err := s.registerTools()
	if err != nil {
		return fmt.Errorf("failed to register tools: %w", err)
	}

	if s.anService != nil {
		s.anService.EmitEvent(s.anService.NewStartupEvent(analytics.StartupEventInfo{
			Version:       s.version,
			ReadOnly:      s.config.ReadOnly,
			APOCEnabled:   s.apocInstalled,
			ToolCount:     toolCount,
			ManifestTools: s.manifestTools,
		}))
	}
	return nil
}
