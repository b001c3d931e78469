// Package importer runs LOAD CSV programs against Neo4j: it reads header
// lines, counts rows, splits each file into row windows and executes the
// windows in order.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/csvheader"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/database"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/loadcsv"
	"golang.org/x/sync/errgroup"
)

// ErrAPOCRequired is returned for headers with :LABEL or :TYPE columns when
// the database has no APOC procedures.
var ErrAPOCRequired = errors.New("dynamic labels and relationship types require the APOC plugin")

// ErrNoDatabase is returned when an importer created by NewPlanner is asked
// to import.
var ErrNoDatabase = errors.New("importer has no database")

const (
	KindNodes         = "nodes"
	KindRelationships = "relationships"
)

// NodeFile is a CSV file of nodes. Header overrides the first line of the
// file; it is required for remote files.
type NodeFile struct {
	Path   string   `json:"path" yaml:"file"`
	Labels []string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Header string   `json:"header,omitempty" yaml:"header,omitempty"`
}

// RelationshipFile is a CSV file of relationships. Type may be empty when the
// header has a :TYPE column.
type RelationshipFile struct {
	Path   string `json:"path" yaml:"file"`
	Type   string `json:"type,omitempty" yaml:"type,omitempty"`
	Header string `json:"header,omitempty" yaml:"header,omitempty"`
}

// Job imports node files first and relationship files second, so that
// relationships can match the nodes of the same job.
type Job struct {
	Nodes         []NodeFile
	Relationships []RelationshipFile
}

// FileResult reports one imported file. Rows is -1 when the row count is
// unknown (remote files).
type FileResult struct {
	Path     string            `json:"path"`
	Kind     string            `json:"kind"`
	Rows     int               `json:"rows"`
	Batches  int               `json:"batches"`
	Dynamic  bool              `json:"dynamic"`
	Counters database.Counters `json:"counters"`
	Duration time.Duration     `json:"duration"`
}

// Report aggregates a job.
type Report struct {
	Files    []FileResult      `json:"files"`
	Counters database.Counters `json:"counters"`
	Duration time.Duration     `json:"duration"`
}

// Importer executes import programs. It is safe for concurrent use.
type Importer struct {
	db          database.Service
	cfg         loadcsv.Config
	synth       *loadcsv.Synthesizer
	parser      *csvheader.Parser
	headers     *headerCache
	importDir   string
	concurrency int
	apoc        bool
}

type Option func(*Importer)

// WithImportDir resolves relative paths against dir when reading headers
// and counting rows.
func WithImportDir(dir string) Option {
	return func(im *Importer) {
		im.importDir = dir
	}
}

// WithConcurrency bounds how many files of one phase run at the same time.
func WithConcurrency(n int) Option {
	return func(im *Importer) {
		if n > 0 {
			im.concurrency = n
		}
	}
}

// WithAPOC declares whether APOC procedures are available.
func WithAPOC(available bool) Option {
	return func(im *Importer) {
		im.apoc = available
	}
}

// New creates an importer with a validated loader configuration.
func New(db database.Service, cfg loadcsv.Config, opts ...Option) (*Importer, error) {
	if db == nil {
		return nil, fmt.Errorf("database service is required")
	}
	return newImporter(db, cfg, opts...)
}

// NewPlanner creates an importer without a database. It builds plans and
// programs; importing through it fails with ErrNoDatabase.
func NewPlanner(cfg loadcsv.Config, opts ...Option) (*Importer, error) {
	return newImporter(nil, cfg, opts...)
}

func newImporter(db database.Service, cfg loadcsv.Config, opts ...Option) (*Importer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid loader config: %w", err)
	}

	im := &Importer{
		db:          db,
		headers:     newHeaderCache(),
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(im)
	}
	im.setConfig(cfg)
	return im, nil
}

func (im *Importer) setConfig(cfg loadcsv.Config) {
	im.cfg = cfg
	im.synth = loadcsv.NewSynthesizer(cfg)
	im.parser = csvheader.NewParser(cfg.Quote, cfg.Grammar())
}

// Config returns the loader configuration.
func (im *Importer) Config() loadcsv.Config {
	return im.cfg
}

// WithConfig returns an importer sharing the database, options and header
// cache but using another loader configuration.
func (im *Importer) WithConfig(cfg loadcsv.Config) (*Importer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid loader config: %w", err)
	}
	clone := *im
	clone.setConfig(cfg)
	return &clone, nil
}

// Locate resolves path against the import directory, see Resolve.
func (im *Importer) Locate(path string) (local, url string) {
	return Resolve(im.importDir, path)
}

// PlanNodes builds the plan for a node file without executing it.
func (im *Importer) PlanNodes(f NodeFile) (*loadcsv.Plan, error) {
	_, url := Resolve(im.importDir, f.Path)
	fields, err := im.fields(f.Path, f.Header)
	if err != nil {
		return nil, err
	}
	plan, err := im.synth.NodePlan(url, fields, f.Labels)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	return plan, nil
}

// PlanRelationships builds the plan for a relationship file without
// executing it.
func (im *Importer) PlanRelationships(f RelationshipFile) (*loadcsv.Plan, error) {
	_, url := Resolve(im.importDir, f.Path)
	fields, err := im.fields(f.Path, f.Header)
	if err != nil {
		return nil, err
	}
	plan, err := im.synth.RelationshipPlan(url, fields, f.Type)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	return plan, nil
}

// ImportNodes imports one node file.
func (im *Importer) ImportNodes(ctx context.Context, f NodeFile) (*FileResult, error) {
	plan, err := im.PlanNodes(f)
	if err != nil {
		return nil, err
	}
	return im.execute(ctx, f.Path, KindNodes, plan)
}

// ImportRelationships imports one relationship file.
func (im *Importer) ImportRelationships(ctx context.Context, f RelationshipFile) (*FileResult, error) {
	plan, err := im.PlanRelationships(f)
	if err != nil {
		return nil, err
	}
	return im.execute(ctx, f.Path, KindRelationships, plan)
}

// Run imports every node file, then every relationship file. Files of one
// phase run concurrently; the first failure cancels the rest of the phase
// and the job.
func (im *Importer) Run(ctx context.Context, job Job) (*Report, error) {
	start := time.Now()
	results := make([]FileResult, len(job.Nodes)+len(job.Relationships))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.concurrency)
	for i, f := range job.Nodes {
		g.Go(func() error {
			res, err := im.ImportNodes(gctx, f)
			if err != nil {
				return err
			}
			results[i] = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("node import failed: %w", err)
	}

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(im.concurrency)
	for i, f := range job.Relationships {
		g.Go(func() error {
			res, err := im.ImportRelationships(gctx, f)
			if err != nil {
				return err
			}
			results[len(job.Nodes)+i] = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("relationship import failed: %w", err)
	}

	report := &Report{Files: results}
	for _, r := range results {
		report.Counters.Add(r.Counters)
	}
	report.Duration = time.Since(start)

	slog.Info("import job finished",
		"files", len(results),
		"nodesCreated", report.Counters.NodesCreated,
		"relationshipsCreated", report.Counters.RelationshipsCreated,
		"duration", report.Duration)
	return report, nil
}

func (im *Importer) fields(path, header string) ([]csvheader.Field, error) {
	if header == "" {
		local, _ := Resolve(im.importDir, path)
		if local == "" {
			return nil, fmt.Errorf("%s: a header is required for remote files", path)
		}
		h, err := ReadHeader(local)
		if err != nil {
			return nil, err
		}
		header = h
	}

	fields, err := im.headers.parse(im.parser, im.cfg.FieldSeparator, header)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fields, nil
}

// rows returns the number of data rows, or -1 when it cannot be known.
func (im *Importer) rows(path string) int {
	local, _ := Resolve(im.importDir, path)
	if local == "" {
		return -1
	}
	lines, err := CountLines(local)
	if err != nil {
		slog.Warn("could not count rows, importing in one statement", "path", path, "error", err)
		return -1
	}
	return max(lines-im.cfg.HeaderRows(), 0)
}

func (im *Importer) execute(ctx context.Context, path, kind string, plan *loadcsv.Plan) (*FileResult, error) {
	if im.db == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNoDatabase)
	}
	if plan.RequiresAPOC && !im.apoc {
		return nil, fmt.Errorf("%s: %w", path, ErrAPOCRequired)
	}

	start := time.Now()
	result := &FileResult{
		Path:    path,
		Kind:    kind,
		Rows:    im.rows(path),
		Dynamic: plan.RequiresAPOC,
	}

	for _, stmt := range plan.Maintenance {
		res, err := im.db.ExecuteWriteQuery(ctx, stmt.Render(), nil)
		if err != nil {
			return nil, fmt.Errorf("%s: maintenance statement failed: %w", path, err)
		}
		result.Counters.Add(res.Counters)
	}

	for _, stmt := range im.batches(plan, result.Rows) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		res, err := im.db.ExecuteWriteQuery(ctx, stmt, nil)
		if err != nil {
			return nil, fmt.Errorf("%s: batch %d failed: %w", path, result.Batches+1, err)
		}
		result.Batches++
		result.Counters.Add(res.Counters)
		slog.Debug("batch imported", "path", path, "batch", result.Batches, "nodesCreated", res.Counters.NodesCreated, "relationshipsCreated", res.Counters.RelationshipsCreated)
	}

	result.Duration = time.Since(start)
	slog.Info("file imported",
		"path", path,
		"kind", kind,
		"rows", result.Rows,
		"batches", result.Batches,
		"duration", result.Duration)
	return result, nil
}

// batches renders the load statement once per row window. Unknown row counts
// and disabled batching load the whole file in one statement.
func (im *Importer) batches(plan *loadcsv.Plan, rows int) []string {
	size := im.cfg.BatchSize
	if size <= 0 || rows < 0 || rows <= size {
		return []string{plan.Load.Render()}
	}

	stmts := make([]string, 0, (rows+size-1)/size)
	for offset := 0; offset < rows; offset += size {
		stmts = append(stmts, plan.Window(offset, size).Load.Render())
	}
	return stmts
}
