package dynamic

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/csvheader"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/loadcsv"
	"gopkg.in/yaml.v3"
)

// EmbeddedFS holds the manifests compiled into the binary. It is set by the
// server before manifests are loaded.
var EmbeddedFS fs.FS

// WalkConfigDirectory loads the embedded manifests, then the manifests
// found under configDir. A manifest on disk replaces an embedded manifest
// of the same name.
func WalkConfigDirectory(configDir string) ([]*Manifest, error) {
	var manifests []*Manifest

	if EmbeddedFS != nil {
		embedded, err := walkFS(EmbeddedFS, ".")
		if err != nil {
			return nil, fmt.Errorf("failed to walk embedded manifests: %w", err)
		}
		slog.Debug("loaded manifests from embedded filesystem", "count", len(embedded))
		manifests = embedded
	}

	if configDir != "" {
		if _, err := os.Stat(configDir); errors.Is(err, fs.ErrNotExist) {
			slog.Debug("manifest directory does not exist", "dir", configDir)
		} else {
			onDisk, err := walkFS(os.DirFS(configDir), ".")
			if err != nil {
				return nil, fmt.Errorf("failed to walk manifest directory %s: %w", configDir, err)
			}
			manifests = merge(manifests, onDisk)
		}
	}

	return manifests, nil
}

// walkFS parses every YAML file below root.
func walkFS(fsys fs.FS, root string) ([]*Manifest, error) {
	var manifests []*Manifest
	names := make(map[string]string)

	err := fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip directories
		if d.IsDir() {
			return nil
		}

		// Only process YAML files
		if !strings.HasSuffix(d.Name(), ".yaml") && !strings.HasSuffix(d.Name(), ".yml") {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			slog.Error("failed to read manifest", "path", path, "error", err)
			return err
		}

		manifest, err := parseManifest(data, path)
		if err != nil {
			slog.Error("failed to parse manifest", "path", path, "error", err)
			return err
		}

		if other, ok := names[manifest.Name]; ok {
			return fmt.Errorf("manifest name %q is used by %s and %s", manifest.Name, other, path)
		}
		names[manifest.Name] = path

		manifests = append(manifests, manifest)
		slog.Debug("loaded manifest", "tool", manifest.Name, "category", manifest.Category, "path", path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return manifests, nil
}

func merge(base, overrides []*Manifest) []*Manifest {
	byName := make(map[string]int, len(base))
	for i, m := range base {
		byName[m.Name] = i
	}
	for _, m := range overrides {
		if i, ok := byName[m.Name]; ok {
			slog.Info("manifest on disk replaces embedded manifest", "tool", m.Name)
			base[i] = m
			continue
		}
		byName[m.Name] = len(base)
		base = append(base, m)
	}
	return base
}

// LoadManifestFile reads a single manifest.
func LoadManifestFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return parseManifest(data, path)
}

// parseManifest parses and validates a YAML manifest
func parseManifest(data []byte, path string) (*Manifest, error) {
	var manifest Manifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&manifest); err != nil {
		return nil, fmt.Errorf("failed to parse YAML in %s: %w", path, err)
	}

	// Derive category from directory structure
	manifest.Category = deriveCategoryFromPath(path)

	if manifest.Name == "" {
		return nil, fmt.Errorf("manifest name is required in config file: %s", path)
	}

	if manifest.Description == "" {
		return nil, fmt.Errorf("manifest description is required in config file: %s", path)
	}

	if err := validateFiles(&manifest); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}

	return &manifest, nil
}

// validateFiles checks what can be checked without reading the CSV files.
func validateFiles(m *Manifest) error {
	if len(m.Nodes) == 0 && len(m.Relationships) == 0 {
		return fmt.Errorf("at least one node or relationship file is required")
	}

	cfg, err := m.CSV.Apply(loadcsv.DefaultConfig())
	if err != nil {
		return fmt.Errorf("csv: %w", err)
	}
	parser := csvheader.NewParser(cfg.Quote, cfg.Grammar())

	for i, f := range m.Nodes {
		if f.Path == "" {
			return fmt.Errorf("nodes[%d]: file is required", i)
		}
		if f.Header != "" {
			if _, err := parser.ParseHeader(f.Header, cfg.FieldSeparator); err != nil {
				return fmt.Errorf("nodes[%d] %s: %w", i, f.Path, err)
			}
		}
	}

	for i, f := range m.Relationships {
		if f.Path == "" {
			return fmt.Errorf("relationships[%d]: file is required", i)
		}
		if f.Header == "" {
			continue
		}
		fields, err := parser.ParseHeader(f.Header, cfg.FieldSeparator)
		if err != nil {
			return fmt.Errorf("relationships[%d] %s: %w", i, f.Path, err)
		}
		if f.Type == "" && !hasKind(fields, csvheader.DynamicType) {
			return fmt.Errorf("relationships[%d] %s: %w", i, f.Path, loadcsv.ErrMissingRelationshipType)
		}
	}

	return nil
}

func hasKind(fields []csvheader.Field, kind csvheader.FieldKind) bool {
	for _, f := range fields {
		if f.Kind == kind {
			return true
		}
	}
	return false
}

// deriveCategoryFromPath extracts the category from the file path
// Example: "config/social/import-social-network.yaml" -> "social"
func deriveCategoryFromPath(path string) string {
	// Normalize path separators
	path = filepath.ToSlash(path)

	// Split path into components
	parts := strings.Split(path, "/")

	// Find "config" in the path and take the next component
	for i, part := range parts {
		if part == "config" && i+2 < len(parts) {
			return parts[i+1]
		}
	}

	// If we have at least 2 parts, use the first as category
	if len(parts) >= 2 {
		// Skip tools/ if present
		if parts[0] == "tools" && len(parts) >= 3 {
			return parts[1]
		}
		if dir := parts[len(parts)-2]; dir != "config" && dir != "." {
			return dir
		}
	}

	return "general"
}
