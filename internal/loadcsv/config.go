package loadcsv

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/csvheader"
)

// Config describes how CSV files are read. It is a plain value; copies are
// independent.
type Config struct {
	// FieldSeparator separates columns, both in the header and in data rows.
	FieldSeparator rune
	// ArraySeparator separates the elements of repeated (array) values.
	ArraySeparator rune
	// Quote is stripped from header attributes. 0 disables stripping.
	Quote rune
	// SkipHeaderRow skips the first row of the file when loading.
	SkipHeaderRow bool
	// StringIDs keeps identifier values as strings. When false, :ID,
	// :START_ID and :END_ID values are converted to integers.
	StringIDs bool
	// BatchSize is the number of rows per executed statement. It is only
	// used by the importer; 0 loads the whole file at once.
	BatchSize int
	// PermissiveNames accepts any character in column names instead of
	// letters and hyphens only.
	PermissiveNames bool
	// LegacyEndpointFallback reproduces the historical relationship matching
	// where an endpoint without an identifier space is matched on a property
	// named after the other endpoint.
	LegacyEndpointFallback bool
}

// DefaultConfig mirrors the defaults of the neo4j-admin import tool.
func DefaultConfig() Config {
	return Config{
		FieldSeparator: ',',
		ArraySeparator: ';',
		Quote:          '"',
		SkipHeaderRow:  true,
		StringIDs:      true,
		BatchSize:      1000,
	}
}

// Validate checks that the separators can be told apart.
func (c Config) Validate() error {
	if c.FieldSeparator == 0 {
		return fmt.Errorf("field separator is required")
	}
	if c.ArraySeparator == 0 {
		return fmt.Errorf("array separator is required")
	}
	if c.FieldSeparator == c.ArraySeparator {
		return fmt.Errorf("field separator and array separator must differ, both are %q", c.FieldSeparator)
	}
	if c.Quote != 0 && (c.Quote == c.FieldSeparator || c.Quote == c.ArraySeparator) {
		return fmt.Errorf("quote character %q collides with a separator", c.Quote)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("batch size cannot be negative, got %d", c.BatchSize)
	}
	return nil
}

// Grammar returns the header grammar selected by PermissiveNames.
func (c Config) Grammar() csvheader.Grammar {
	if c.PermissiveNames {
		return csvheader.Permissive
	}
	return csvheader.Strict
}

// HeaderRows is the number of leading rows that are not data.
func (c Config) HeaderRows() int {
	if c.SkipHeaderRow {
		return 1
	}
	return 0
}

var separatorAliases = map[string]rune{
	"TAB":       '\t',
	"COMMA":     ',',
	"SEMICOLON": ';',
	"PIPE":      '|',
	"SPACE":     ' ',
}

// ParseSeparator turns a configuration value into a separator rune. It
// accepts a single character, an escaped tab ("\t") or one of the names TAB,
// COMMA, SEMICOLON, PIPE and SPACE. An empty value yields 0.
func ParseSeparator(value string) (rune, error) {
	if value == "" {
		return 0, nil
	}
	if r, ok := separatorAliases[strings.ToUpper(value)]; ok {
		return r, nil
	}
	if value == `\t` {
		return '\t', nil
	}
	if utf8.RuneCountInString(value) != 1 {
		return 0, fmt.Errorf("separator must be a single character, got %q", value)
	}
	r, _ := utf8.DecodeRuneInString(value)
	return r, nil
}
