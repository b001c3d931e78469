package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/database"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/importer"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/tools/dynamic"
	"github.com/spf13/cobra"
)

func newImportCommand(a *app) *cobra.Command {
	var (
		manifestPath string
		dryRun       bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Run an import manifest",
		Long: `Run an import manifest: every node file, then every relationship file.

With --dry-run the Cypher programs are printed and nothing is executed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			manifest, err := dynamic.LoadManifestFile(manifestPath)
			if err != nil {
				return err
			}
			if dryRun {
				return a.planManifest(cmd.OutOrStdout(), manifest)
			}
			return a.runManifest(cmd.Context(), cmd.OutOrStdout(), manifest)
		},
	}

	cmd.Flags().StringVar(&manifestPath, "manifest", "", "import manifest file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the Cypher without executing it")
	_ = cmd.MarkFlagRequired("manifest")

	return cmd
}

func (a *app) newImporter(db database.Service, apoc bool) (*importer.Importer, error) {
	cfg, err := a.cfg.LoaderConfig()
	if err != nil {
		return nil, err
	}
	opts := []importer.Option{
		importer.WithImportDir(a.cfg.ImportDir),
		importer.WithConcurrency(a.cfg.Concurrency),
		importer.WithAPOC(apoc),
	}
	if db == nil {
		return importer.NewPlanner(cfg, opts...)
	}
	return importer.New(db, cfg, opts...)
}

func (a *app) planManifest(w io.Writer, manifest *dynamic.Manifest) error {
	im, err := a.newImporter(nil, false)
	if err != nil {
		return err
	}
	program, err := manifest.Plan(im)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, program)
	return err
}

func (a *app) runManifest(ctx context.Context, w io.Writer, manifest *dynamic.Manifest) error {
	db, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close(context.Background())

	im, err := a.newImporter(db, importer.DetectAPOC(ctx, db))
	if err != nil {
		return err
	}

	slog.Info("running import manifest", "name", manifest.Name,
		"nodeFiles", len(manifest.Nodes), "relationshipFiles", len(manifest.Relationships))

	report, err := manifest.Run(ctx, im)
	if err != nil {
		return fmt.Errorf("import %s failed: %w", manifest.Name, err)
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
