package query_builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadCSVClause_NoWindow(t *testing.T) {
	clause := LoadCSVClause{Source: LoadCSVSource{
		URL:             "file:///people.csv",
		RowVariable:     "line",
		FieldTerminator: ',',
	}}

	assert.Equal(t, "LOAD CSV FROM 'file:///people.csv' AS line FIELDTERMINATOR ','", clause.Render())
}

func TestLoadCSVClause_SkipHeader(t *testing.T) {
	clause := LoadCSVClause{Source: LoadCSVSource{
		URL:             "file:///people.csv",
		FieldTerminator: '|',
		Skip:            1,
	}}

	assert.Equal(t, "LOAD CSV FROM 'file:///people.csv' AS line FIELDTERMINATOR '|'\nWITH line\nSKIP 1", clause.Render())
}

func TestLoadCSVClause_SkipAndLimit(t *testing.T) {
	clause := LoadCSVClause{Source: LoadCSVSource{
		URL:             "file:///people.csv",
		RowVariable:     "line",
		FieldTerminator: '\t',
		Skip:            101,
		Limit:           100,
	}}

	assert.Equal(t, "LOAD CSV FROM 'file:///people.csv' AS line FIELDTERMINATOR '\\t'\nWITH line\nSKIP 101\nLIMIT 100", clause.Render())
}

func TestWithClause(t *testing.T) {
	clause := WithClause{Projections: []Projection{
		{Expression: "line[0]", Alias: "__csv_id"},
		{Expression: "toInteger(line[1])", Alias: "age"},
	}}

	assert.Equal(t, "WITH\n  line[0] AS `__csv_id`,\n  toInteger(line[1]) AS `age`", clause.Render())
}

func TestWithClause_Empty(t *testing.T) {
	assert.Equal(t, "", WithClause{}.Render())
}

func TestMatchClause(t *testing.T) {
	clause := MatchClause{Patterns: []NodePattern{
		{Variable: "src", Labels: []string{"IdSpaceA"}, Properties: []Property{{Key: "__csv_id", Variable: "__csv_start_id"}}},
		{Variable: "trg", Properties: []Property{{Key: "__csv_id", Variable: "__csv_end_id"}}},
	}}

	expected := "MATCH\n" +
		"  (src:`IdSpaceA` {`__csv_id`: `__csv_start_id`}),\n" +
		"  (trg {`__csv_id`: `__csv_end_id`})"
	assert.Equal(t, expected, clause.Render())
}

func TestCreateNodeClause(t *testing.T) {
	tests := []struct {
		name     string
		node     NodePattern
		expected string
	}{
		{
			name:     "labels and properties",
			node:     NodePattern{Labels: []string{"Person"}, Properties: []Property{{Key: "name", Variable: "name"}}},
			expected: "CREATE (:`Person` {`name`: `name`})",
		},
		{
			name:     "labels only",
			node:     NodePattern{Labels: []string{"Person", "IdSpaceP"}},
			expected: "CREATE (:`Person`:`IdSpaceP`)",
		},
		{
			name:     "properties only",
			node:     NodePattern{Properties: []Property{{Key: "name", Variable: "name"}}},
			expected: "CREATE ({`name`: `name`})",
		},
		{
			name:     "empty",
			node:     NodePattern{},
			expected: "CREATE ()",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CreateNodeClause{Node: tt.node}.Render())
		})
	}
}

func TestCreateRelationshipClause(t *testing.T) {
	clause := CreateRelationshipClause{
		StartVariable: "src",
		EndVariable:   "trg",
		Type:          "KNOWS",
		Properties:    []Property{{Key: "since", Variable: "since"}},
	}
	assert.Equal(t, "CREATE (src)-[:`KNOWS` {`since`: `since`}]->(trg)", clause.Render())

	clause.Properties = nil
	assert.Equal(t, "CREATE (src)-[:`KNOWS`]->(trg)", clause.Render())
}

func TestCallAndReturnClause(t *testing.T) {
	call := CallClause{
		Procedure: "apoc.create.node",
		Arguments: []string{BuildStringList([]string{"Person"}), BuildMapLiteral(nil)},
		Yield:     "node",
	}
	assert.Equal(t, "CALL apoc.create.node(['Person'], {}) YIELD node", call.Render())
	assert.Equal(t, "RETURN count(node) AS created", ReturnClause{Items: []string{"count(node) AS created"}}.Render())
	assert.Equal(t, "", ReturnClause{}.Render())
}

func TestCreateIndexClause(t *testing.T) {
	clause := CreateIndexClause{Label: "IdSpacePerson", Property: "__csv_id"}
	assert.Equal(t, "CREATE INDEX IF NOT EXISTS FOR (n:`IdSpacePerson`) ON (n.`__csv_id`)", clause.Render())
}

func TestStatement_RenderSkipsEmptyClauses(t *testing.T) {
	stmt := NewStatement(
		LoadCSVClause{Source: LoadCSVSource{URL: "file:///x.csv", FieldTerminator: ','}},
		WithClause{},
		CreateNodeClause{Node: NodePattern{Labels: []string{"X"}}},
	)

	assert.Equal(t, "LOAD CSV FROM 'file:///x.csv' AS line FIELDTERMINATOR ','\nCREATE (:`X`)", stmt.Render())
}

func TestStatement_WithSourceWindow(t *testing.T) {
	stmt := NewStatementBuilder().
		Add(LoadCSVClause{Source: LoadCSVSource{URL: "file:///x.csv", FieldTerminator: ',', Skip: 1}}).
		Add(CreateNodeClause{Node: NodePattern{Labels: []string{"X"}}}).
		Build()

	windowed := stmt.WithSourceWindow(11, 10)

	src, ok := windowed.Source()
	assert.True(t, ok)
	assert.Equal(t, 11, src.Skip)
	assert.Equal(t, 10, src.Limit)

	// the original is untouched
	orig, _ := stmt.Source()
	assert.Equal(t, 1, orig.Skip)
	assert.Equal(t, 0, orig.Limit)

	assert.Contains(t, windowed.Render(), "SKIP 11\nLIMIT 10")
}

func TestStatementBuilder_GetClauseCount(t *testing.T) {
	builder := NewStatementBuilder()
	assert.Equal(t, 0, builder.GetClauseCount())

	builder.Add(WithClause{}, ReturnClause{})
	assert.Equal(t, 2, builder.GetClauseCount())
}

func TestStringLiteral(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"file:///a.csv", "'file:///a.csv'"},
		{"O'Brien.csv", `'O\'Brien.csv'`},
		{"\t", `'\t'`},
		{`a\b`, `'a\\b'`},
		{"", "''"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, StringLiteral(tt.input))
		})
	}
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, "`name`", QuoteIdentifier("name"))
	assert.Equal(t, "`my-numbers`", QuoteIdentifier("my-numbers"))
	assert.Equal(t, "`a``b`", QuoteIdentifier("a`b"))
}

func TestBuildStringList(t *testing.T) {
	assert.Equal(t, "[]", BuildStringList(nil))
	assert.Equal(t, "['Person', 'IdSpaceP']", BuildStringList([]string{"Person", "IdSpaceP"}))
}
