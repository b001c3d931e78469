package tools

import (
	"fmt"
	"unicode/utf8"

	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/loadcsv"
)

// CSVOptions override single settings of the loader configuration, per
// tool call or per manifest. Empty values keep the server setting.
type CSVOptions struct {
	FieldSeparator  string `json:"fieldSeparator,omitempty" yaml:"field_separator,omitempty" jsonschema:"description=Column separator: a single character or one of TAB COMMA SEMICOLON PIPE SPACE"`
	ArraySeparator  string `json:"arraySeparator,omitempty" yaml:"array_separator,omitempty" jsonschema:"description=Separator of array elements inside one value"`
	Quote           string `json:"quote,omitempty" yaml:"quote,omitempty" jsonschema:"description=Quote character stripped from header attributes"`
	SkipHeaderRow   *bool  `json:"skipHeaderRow,omitempty" yaml:"skip_header_row,omitempty" jsonschema:"description=Whether the first row of the file is a header row"`
	StringIDs       *bool  `json:"stringIds,omitempty" yaml:"string_ids,omitempty" jsonschema:"description=Keep :ID/:START_ID/:END_ID values as strings instead of integers"`
	PermissiveNames *bool  `json:"permissiveNames,omitempty" yaml:"permissive_names,omitempty" jsonschema:"description=Accept any character in column names"`
	BatchSize       *int   `json:"batchSize,omitempty" yaml:"batch_size,omitempty" jsonschema:"description=Rows per executed statement when importing; 0 loads a file in one statement"`
}

// Apply returns base with the overrides applied and validated.
func (o CSVOptions) Apply(base loadcsv.Config) (loadcsv.Config, error) {
	cfg := base

	if o.FieldSeparator != "" {
		r, err := loadcsv.ParseSeparator(o.FieldSeparator)
		if err != nil {
			return cfg, fmt.Errorf("fieldSeparator: %w", err)
		}
		cfg.FieldSeparator = r
	}
	if o.ArraySeparator != "" {
		r, err := loadcsv.ParseSeparator(o.ArraySeparator)
		if err != nil {
			return cfg, fmt.Errorf("arraySeparator: %w", err)
		}
		cfg.ArraySeparator = r
	}
	if o.Quote != "" {
		if utf8.RuneCountInString(o.Quote) != 1 {
			return cfg, fmt.Errorf("quote must be a single character, got %q", o.Quote)
		}
		cfg.Quote, _ = utf8.DecodeRuneInString(o.Quote)
	}
	if o.SkipHeaderRow != nil {
		cfg.SkipHeaderRow = *o.SkipHeaderRow
	}
	if o.StringIDs != nil {
		cfg.StringIDs = *o.StringIDs
	}
	if o.PermissiveNames != nil {
		cfg.PermissiveNames = *o.PermissiveNames
	}
	if o.BatchSize != nil {
		cfg.BatchSize = *o.BatchSize
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// IsZero reports whether no override is set.
func (o CSVOptions) IsZero() bool {
	return o == CSVOptions{}
}
