package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/analytics"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/config"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/database"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app carries the configuration shared by every command.
type app struct {
	v   *viper.Viper
	cfg *config.Config
}

func newRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:          "neo4j-mcp-csv",
		Short:        "Convert and import neo4j-admin style CSV files with LOAD CSV",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "configuration file (yaml, json or toml)")
	flags.String("uri", "", "Neo4j connection URI")
	flags.String("username", "", "Neo4j username")
	flags.String("database", "", "Neo4j database")
	flags.String("import-dir", "", "Neo4j import directory used to read headers and count rows")
	flags.String("manifest-dir", "", "directory of import manifests")
	flags.Bool("read-only", false, "hide tools that write to the database")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("field-separator", "", "CSV field separator, a character or TAB, COMMA, SEMICOLON, PIPE")
	flags.String("array-separator", "", "separator of array values")
	flags.Int("batch-size", 0, "rows per LOAD CSV statement, 0 loads a file in one statement")

	for key, flag := range map[string]string{
		"config":              "config",
		"uri":                 "uri",
		"username":            "username",
		"database":            "database",
		"import_dir":          "import-dir",
		"manifest_dir":        "manifest-dir",
		"read_only":           "read-only",
		"log.level":           "log-level",
		"csv.field_separator": "field-separator",
		"csv.array_separator": "array-separator",
		"csv.batch_size":      "batch-size",
	} {
		if err := a.v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", flag, err))
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the MCP tools on stdio",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.serve(cmd.Context())
			},
		},
		newConvertCommand(a),
		newImportCommand(a),
	)

	return root
}

// load reads the configuration and installs the logger. Logs go to stderr
// because stdout carries the MCP protocol.
func (a *app) load() error {
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	slog.SetDefault(cfg.Log.NewLogger(os.Stderr))
	return nil
}

func (a *app) connect(ctx context.Context) (*database.Neo4jService, error) {
	db, err := database.Connect(a.cfg.URI, a.cfg.Username, a.cfg.Password, a.cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := db.VerifyConnectivity(ctx); err != nil {
		_ = db.Close(ctx)
		return nil, err
	}
	return db, nil
}

func (a *app) serve(ctx context.Context) error {
	db, err := database.Connect(a.cfg.URI, a.cfg.Username, a.cfg.Password, a.cfg.Database)
	if err != nil {
		slog.Error("failed to create database service", "error", err)
		return err
	}

	anService := analytics.NewAnalytics("", nil)
	if a.cfg.Telemetry {
		anService = analytics.NewAnalytics(a.cfg.AnalyticsEndpoint, &http.Client{Timeout: 5 * time.Second})
	}

	s, err := server.NewNeo4jMCPServer(version, a.cfg, db, anService)
	if err != nil {
		slog.Error("failed to create MCP server", "error", err)
		return err
	}
	defer func() {
		if err := s.Stop(context.Background()); err != nil {
			slog.Warn("failed to close database connection", "error", err)
		}
	}()

	if err := s.Start(ctx); err != nil {
		slog.Error("MCP server stopped", "error", err)
		return err
	}
	return nil
}
