package query_builder

// Clause is one rendered piece of a Cypher statement.
type Clause interface {
	// Render returns the clause text without a trailing newline. An empty
	// result means the clause is omitted from the statement.
	Render() string
}

// Projection binds an expression to a variable in a WITH clause.
type Projection struct {
	// Expression is the Cypher expression, e.g. "toInteger(line[2])"
	Expression string

	// Alias is the variable name, quoted with backticks when rendered
	Alias string
}

// Property maps a property key to a bound variable in a property map.
type Property struct {
	// Key is the property name stored on the node or relationship
	Key string

	// Variable is the bound variable holding the value
	Variable string
}

// NodePattern describes a node in a MATCH or CREATE clause.
type NodePattern struct {
	// Variable is optional; anonymous nodes render as "(:Label)"
	Variable string

	// Labels are rendered in order, each quoted with backticks
	Labels []string

	// Properties are rendered as an inline property map
	Properties []Property
}

// LoadCSVSource describes the row source of a LOAD CSV statement.
type LoadCSVSource struct {
	// URL is embedded verbatim as a string literal, e.g. "file:///people.csv"
	URL string

	// RowVariable is the variable each row is bound to (usually "line")
	RowVariable string

	// FieldTerminator is the column separator
	FieldTerminator rune

	// Skip is the number of leading rows to skip (header rows included). 0 means none.
	Skip int

	// Limit is the maximum number of rows to process after skipping. 0 means unlimited.
	Limit int
}
