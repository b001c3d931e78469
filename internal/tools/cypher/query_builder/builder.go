package query_builder

import (
	"fmt"
	"strings"
)

// Statement is an ordered list of clauses forming one Cypher statement.
// Statements are values; the With* methods return modified copies.
type Statement struct {
	Clauses []Clause
}

// NewStatement creates a statement from the given clauses.
func NewStatement(clauses ...Clause) Statement {
	return Statement{Clauses: clauses}
}

// Render joins the non-empty clauses with newlines.
//
// Example:
//
//	LOAD CSV FROM 'file:///people.csv' AS line FIELDTERMINATOR ','
//	WITH
//	  line[0] AS `name`
//	CREATE (:`Person` {`name`: `name`})
func (s Statement) Render() string {
	parts := make([]string, 0, len(s.Clauses))
	for _, c := range s.Clauses {
		if text := c.Render(); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}

// WithSourceWindow returns a copy whose LOAD CSV clauses skip and limit rows.
// skip counts every leading row, header rows included.
func (s Statement) WithSourceWindow(skip, limit int) Statement {
	clauses := make([]Clause, len(s.Clauses))
	for i, c := range s.Clauses {
		if load, ok := c.(LoadCSVClause); ok {
			load.Source.Skip = skip
			load.Source.Limit = limit
			c = load
		}
		clauses[i] = c
	}
	return Statement{Clauses: clauses}
}

// Source returns the LOAD CSV source of the statement, if any.
func (s Statement) Source() (LoadCSVSource, bool) {
	for _, c := range s.Clauses {
		if load, ok := c.(LoadCSVClause); ok {
			return load.Source, true
		}
	}
	return LoadCSVSource{}, false
}

// StatementBuilder helps assemble a Statement clause by clause.
type StatementBuilder struct {
	clauses []Clause
}

// NewStatementBuilder creates a new builder instance.
func NewStatementBuilder() *StatementBuilder {
	return &StatementBuilder{
		clauses: make([]Clause, 0),
	}
}

// Add appends clauses in order.
func (b *StatementBuilder) Add(clauses ...Clause) *StatementBuilder {
	b.clauses = append(b.clauses, clauses...)
	return b
}

// GetClauseCount returns the number of clauses added.
func (b *StatementBuilder) GetClauseCount() int {
	return len(b.clauses)
}

// Build returns the assembled statement.
func (b *StatementBuilder) Build() Statement {
	clauses := make([]Clause, len(b.clauses))
	copy(clauses, b.clauses)
	return Statement{Clauses: clauses}
}

// LoadCSVClause renders the row source, including the optional row window.
//
// Example:
//
//	LOAD CSV FROM 'file:///people.csv' AS line FIELDTERMINATOR '|'
//	WITH line
//	SKIP 1
type LoadCSVClause struct {
	Source LoadCSVSource
}

func (c LoadCSVClause) Render() string {
	rowVar := c.Source.RowVariable
	if rowVar == "" {
		rowVar = "line"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "LOAD CSV FROM %s AS %s FIELDTERMINATOR %s",
		StringLiteral(c.Source.URL),
		rowVar,
		StringLiteral(string(c.Source.FieldTerminator)))

	if c.Source.Skip > 0 || c.Source.Limit > 0 {
		fmt.Fprintf(&sb, "\nWITH %s", rowVar)
		if c.Source.Skip > 0 {
			fmt.Fprintf(&sb, "\nSKIP %d", c.Source.Skip)
		}
		if c.Source.Limit > 0 {
			fmt.Fprintf(&sb, "\nLIMIT %d", c.Source.Limit)
		}
	}
	return sb.String()
}

// WithClause renders per-row projections. An empty projection list renders
// nothing.
//
// Example:
//
//	WITH
//	  line[0] AS `__csv_id`,
//	  toInteger(line[1]) AS `age`
type WithClause struct {
	Projections []Projection
}

func (c WithClause) Render() string {
	if len(c.Projections) == 0 {
		return ""
	}
	entries := make([]string, 0, len(c.Projections))
	for _, p := range c.Projections {
		entries = append(entries, fmt.Sprintf("  %s AS %s", p.Expression, QuoteIdentifier(p.Alias)))
	}
	return "WITH\n" + strings.Join(entries, ",\n")
}

// MatchClause renders a MATCH over one or more node patterns.
//
// Example:
//
//	MATCH
//	  (src:`IdSpacePerson` {`__csv_id`: `__csv_start_id`}),
//	  (trg:`IdSpacePerson` {`__csv_id`: `__csv_end_id`})
type MatchClause struct {
	Patterns []NodePattern
}

func (c MatchClause) Render() string {
	if len(c.Patterns) == 0 {
		return ""
	}
	entries := make([]string, 0, len(c.Patterns))
	for _, p := range c.Patterns {
		entries = append(entries, "  "+BuildNodePattern(p))
	}
	return "MATCH\n" + strings.Join(entries, ",\n")
}

// CreateNodeClause renders a CREATE of a single node with literal labels.
//
// Example: CREATE (:`Person` {`name`: `name`})
type CreateNodeClause struct {
	Node NodePattern
}

func (c CreateNodeClause) Render() string {
	return "CREATE " + BuildNodePattern(c.Node)
}

// CreateRelationshipClause renders a CREATE of a relationship with a literal
// type between two bound nodes.
//
// Example: CREATE (src)-[:`KNOWS` {`since`: `since`}]->(trg)
type CreateRelationshipClause struct {
	StartVariable string
	EndVariable   string
	Type          string
	Properties    []Property
}

func (c CreateRelationshipClause) Render() string {
	rel := ":" + QuoteIdentifier(c.Type)
	if props := BuildPropertyMap(c.Properties); props != "" {
		rel += " " + props
	}
	return fmt.Sprintf("CREATE (%s)-[%s]->(%s)", c.StartVariable, rel, c.EndVariable)
}

// CallClause renders a procedure call with a YIELD.
//
// Example: CALL apoc.create.node(['Person'], {`name`: `name`}) YIELD node
type CallClause struct {
	Procedure string
	Arguments []string
	Yield     string
}

func (c CallClause) Render() string {
	call := fmt.Sprintf("CALL %s(%s)", c.Procedure, strings.Join(c.Arguments, ", "))
	if c.Yield != "" {
		call += " YIELD " + c.Yield
	}
	return call
}

// ReturnClause renders a RETURN with the given items.
type ReturnClause struct {
	Items []string
}

func (c ReturnClause) Render() string {
	if len(c.Items) == 0 {
		return ""
	}
	return "RETURN " + strings.Join(c.Items, ", ")
}

// CreateIndexClause renders an idempotent range index creation.
//
// Example: CREATE INDEX IF NOT EXISTS FOR (n:`IdSpacePerson`) ON (n.`__csv_id`)
type CreateIndexClause struct {
	Label    string
	Property string
}

func (c CreateIndexClause) Render() string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS FOR (n:%s) ON (n.%s)",
		QuoteIdentifier(c.Label),
		QuoteIdentifier(c.Property))
}

// BuildNodePattern renders a node pattern.
//
// Example:
//
//	BuildNodePattern(NodePattern{Variable: "src", Labels: []string{"Person"}})
//	// Returns: (src:`Person`)
func BuildNodePattern(node NodePattern) string {
	inner := node.Variable + BuildLabels(node.Labels)
	if props := BuildPropertyMap(node.Properties); props != "" {
		if inner != "" {
			inner += " "
		}
		inner += props
	}
	return "(" + inner + ")"
}

// BuildLabels renders a label expression, e.g. :`Person`:`IdSpacePerson`.
func BuildLabels(labels []string) string {
	var sb strings.Builder
	for _, label := range labels {
		sb.WriteString(":")
		sb.WriteString(QuoteIdentifier(label))
	}
	return sb.String()
}

// BuildPropertyMap renders an inline property map, or "" when there are no
// properties.
//
// Example: {`name`: `name`, `age`: `age`}
func BuildPropertyMap(props []Property) string {
	if len(props) == 0 {
		return ""
	}
	entries := make([]string, 0, len(props))
	for _, p := range props {
		entries = append(entries, fmt.Sprintf("%s: %s", QuoteIdentifier(p.Key), QuoteIdentifier(p.Variable)))
	}
	return "{" + strings.Join(entries, ", ") + "}"
}

// BuildMapLiteral is BuildPropertyMap but renders "{}" for no properties,
// which procedure arguments require.
func BuildMapLiteral(props []Property) string {
	if len(props) == 0 {
		return "{}"
	}
	return BuildPropertyMap(props)
}

// BuildStringList renders a list of string literals, e.g. ['Person', 'Actor'].
func BuildStringList(values []string) string {
	entries := make([]string, 0, len(values))
	for _, v := range values {
		entries = append(entries, StringLiteral(v))
	}
	return "[" + strings.Join(entries, ", ") + "]"
}

// QuoteIdentifier quotes a name with backticks, doubling embedded backticks.
func QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

var stringLiteralEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\t", `\t`,
	"\n", `\n`,
	"\r", `\r`,
)

// StringLiteral renders s as a single-quoted Cypher string literal.
func StringLiteral(s string) string {
	return "'" + stringLiteralEscaper.Replace(s) + "'"
}
