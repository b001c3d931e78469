package loadcsv

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/csvheader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipeConfig() Config {
	cfg := DefaultConfig()
	cfg.FieldSeparator = '|'
	return cfg
}

func TestConvertNodes_StaticLabelNoIdentifier(t *testing.T) {
	program, err := ConvertNodes("file:///person.csv", "name:STRING", []string{"Person"}, DefaultConfig())
	require.NoError(t, err)

	require.Len(t, program, 1, "no index statement without an :ID column")
	expected := "LOAD CSV FROM 'file:///person.csv' AS line FIELDTERMINATOR ','\n" +
		"WITH line\n" +
		"SKIP 1\n" +
		"WITH\n" +
		"  line[0] AS `name`\n" +
		"CREATE (:`Person` {`name`: `name`})"
	assert.Equal(t, expected, program[0])
}

func TestConvertNodes_IdentifierAndArray(t *testing.T) {
	program, err := ConvertNodes("file:///person.csv", ":ID|languages:STRING[]", []string{"Person"}, pipeConfig())
	require.NoError(t, err)

	require.Len(t, program, 2)
	assert.Equal(t, "CREATE INDEX IF NOT EXISTS FOR (n:`Person`) ON (n.`__csv_id`)", program[0])

	expected := "LOAD CSV FROM 'file:///person.csv' AS line FIELDTERMINATOR '|'\n" +
		"WITH line\n" +
		"SKIP 1\n" +
		"WITH\n" +
		"  line[0] AS `__csv_id`,\n" +
		"  [item IN split(line[1], ';') | item] AS `languages`\n" +
		"CREATE (:`Person` {`__csv_id`: `__csv_id`, `languages`: `languages`})"
	assert.Equal(t, expected, program[1])
}

func TestConvertNodes_IdentifierSpaceLabel(t *testing.T) {
	program, err := ConvertNodes("file:///person.csv", ":ID(Person)|name", []string{"Person"}, pipeConfig())
	require.NoError(t, err)

	require.Len(t, program, 2)
	assert.Equal(t, "CREATE INDEX IF NOT EXISTS FOR (n:`IdSpacePerson`) ON (n.`__csv_id`)", program[0])
	assert.Contains(t, program[1], "CREATE (:`Person`:`IdSpacePerson` {`__csv_id`: `__csv_id`, `name`: `name`})")
	// the namespace never leaks into the bound name
	assert.Contains(t, program[1], "line[0] AS `__csv_id`,")
	assert.NotContains(t, program[1], "__csv_id_Person")
}

func TestConvertNodes_IdentifierWithoutLabels(t *testing.T) {
	program, err := ConvertNodes("file:///x.csv", ":ID|name", nil, pipeConfig())
	require.NoError(t, err)

	require.Len(t, program, 1, "no label to index on")
	assert.Contains(t, program[0], "CREATE ({`__csv_id`: `__csv_id`, `name`: `name`})")
}

func TestConvertNodes_DynamicLabel(t *testing.T) {
	program, err := ConvertNodes("file:///person.csv", ":ID|:LABEL|name:STRING", []string{"Person"}, pipeConfig())
	require.NoError(t, err)

	require.Len(t, program, 1, "dynamic form never emits an index statement")
	expected := "LOAD CSV FROM 'file:///person.csv' AS line FIELDTERMINATOR '|'\n" +
		"WITH line\n" +
		"SKIP 1\n" +
		"WITH\n" +
		"  line[0] AS `__csv_id`,\n" +
		"  [item IN split(line[1], ';') | item] AS `__csv_label`,\n" +
		"  line[2] AS `name`\n" +
		"CALL apoc.create.node(['Person'] + coalesce(`__csv_label`, []), {`__csv_id`: `__csv_id`, `name`: `name`}) YIELD node\n" +
		"RETURN count(node) AS created"
	assert.Equal(t, expected, program[0])
}

func TestConvertNodes_DynamicLabelOnly(t *testing.T) {
	program, err := ConvertNodes("file:///x.csv", "kinds:LABEL", nil, DefaultConfig())
	require.NoError(t, err)

	require.Len(t, program, 1)
	assert.Contains(t, program[0], "[item IN split(line[0], ';') | item] AS `kinds`")
	assert.Contains(t, program[0], "CALL apoc.create.node(coalesce(`kinds`, []), {}) YIELD node")
}

func TestConvertNodes_DynamicLabelKeepsIdentifierSpaceLabel(t *testing.T) {
	program, err := ConvertNodes("file:///x.csv", ":ID(P)|:LABEL", []string{"Person"}, pipeConfig())
	require.NoError(t, err)

	assert.Contains(t, program[0], "CALL apoc.create.node(['Person', 'IdSpaceP'] + coalesce(`__csv_label`, []), {`__csv_id`: `__csv_id`}) YIELD node")
}

func TestConvertNodes_TypeConversions(t *testing.T) {
	header := "name|age:INT|score:FLOAT|active:BOOLEAN|tags:INT[]|flags:BOOLEAN[]"
	program, err := ConvertNodes("file:///x.csv", header, []string{"N"}, pipeConfig())
	require.NoError(t, err)

	load := program[0]
	assert.Contains(t, load, "  line[0] AS `name`,")
	assert.Contains(t, load, "  toInteger(line[1]) AS `age`,")
	assert.Contains(t, load, "  toFloat(line[2]) AS `score`,")
	assert.Contains(t, load, "  CASE toUpper(line[3]) WHEN 'TRUE' THEN true WHEN 'FALSE' THEN false END AS `active`,")
	assert.Contains(t, load, "  [item IN split(line[4], ';') | toInteger(item)] AS `tags`,")
	assert.Contains(t, load, "  [item IN split(line[5], ';') | CASE toUpper(item) WHEN 'TRUE' THEN true WHEN 'FALSE' THEN false END] AS `flags`")
}

func TestConvertNodes_NumericIdentifiers(t *testing.T) {
	cfg := pipeConfig()
	cfg.StringIDs = false

	program, err := ConvertNodes("file:///x.csv", ":ID|name", []string{"N"}, cfg)
	require.NoError(t, err)
	assert.Contains(t, program[1], "toInteger(line[0]) AS `__csv_id`")
}

func TestConvertNodes_IgnoredColumnKeepsRawIndex(t *testing.T) {
	program, err := ConvertNodes("file:///x.csv", "name|skip:IGNORE|age:INT", []string{"N"}, pipeConfig())
	require.NoError(t, err)

	assert.Contains(t, program[0], "toInteger(line[2]) AS `age`")
	assert.NotContains(t, program[0], "skip")
}

func TestConvertNodes_EmptyHeader(t *testing.T) {
	program, err := ConvertNodes("file:///x.csv", "", []string{"Person"}, DefaultConfig())
	require.NoError(t, err)

	require.Len(t, program, 1)
	assert.Equal(t, "LOAD CSV FROM 'file:///x.csv' AS line FIELDTERMINATOR ','\nWITH line\nSKIP 1\nCREATE (:`Person`)", program[0])
}

func TestConvertNodes_NoHeaderRow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SkipHeaderRow = false

	program, err := ConvertNodes("file:///x.csv", "name", []string{"Person"}, cfg)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(program[0], "LOAD CSV FROM 'file:///x.csv' AS line FIELDTERMINATOR ','\nWITH\n"))
}

func TestConvertNodes_SourceIsEmbeddedVerbatim(t *testing.T) {
	program, err := ConvertNodes("file:///O'Brien.csv", "name", []string{"Person"}, DefaultConfig())
	require.NoError(t, err)
	assert.Contains(t, program[0], `LOAD CSV FROM 'file:///O\'Brien.csv' AS line`)
}

func TestConvertNodes_AmbiguousIdentifier(t *testing.T) {
	_, err := ConvertNodes("file:///x.csv", ":ID|other:ID", []string{"N"}, pipeConfig())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAmbiguousIdentifier))
}

func TestConvertNodes_MalformedField(t *testing.T) {
	_, err := ConvertNodes("file:///x.csv", "name|bad name", []string{"N"}, pipeConfig())
	require.Error(t, err)
	assert.True(t, errors.Is(err, csvheader.ErrMalformedField))
}

func TestConvertNodes_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ArraySeparator = ','

	_, err := ConvertNodes("file:///x.csv", "name", nil, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid loader config")
}

func TestConvertNodes_PermissiveNames(t *testing.T) {
	cfg := pipeConfig()
	_, err := ConvertNodes("file:///x.csv", "first name|age_2:INT", []string{"N"}, cfg)
	require.Error(t, err)

	cfg.PermissiveNames = true
	program, err := ConvertNodes("file:///x.csv", "first name|age_2:INT", []string{"N"}, cfg)
	require.NoError(t, err)
	assert.Contains(t, program[0], "line[0] AS `first name`")
	assert.Contains(t, program[0], "toInteger(line[1]) AS `age_2`")
}

func TestSynthesizeNodeProgram_Idempotent(t *testing.T) {
	fields, err := csvheader.ParseHeader(":ID(P)|name|tags:STRING[]|:LABEL", '|', '"')
	require.NoError(t, err)

	first, err := SynthesizeNodeProgram("file:///x.csv", fields, []string{"A", "B"}, pipeConfig())
	require.NoError(t, err)
	second, err := SynthesizeNodeProgram("file:///x.csv", fields, []string{"A", "B"}, pipeConfig())
	require.NoError(t, err)

	assert.Equal(t, first.String(), second.String())
}

func TestSynthesizeNodeProgram_Concurrent(t *testing.T) {
	fields, err := csvheader.ParseHeader(":ID(P)|name|age:INT", '|', '"')
	require.NoError(t, err)
	expected, err := SynthesizeNodeProgram("file:///x.csv", fields, []string{"Person"}, pipeConfig())
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]Program, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = SynthesizeNodeProgram("file:///x.csv", fields, []string{"Person"}, pipeConfig())
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, expected, got)
	}
}

func TestConvertRelationships_IdentifierSpaces(t *testing.T) {
	query, err := ConvertRelationships("file:///knows.csv", ":START_ID(A)|:END_ID(B)|since:INT", "KNOWS", pipeConfig())
	require.NoError(t, err)

	expected := "LOAD CSV FROM 'file:///knows.csv' AS line FIELDTERMINATOR '|'\n" +
		"WITH line\n" +
		"SKIP 1\n" +
		"WITH\n" +
		"  line[0] AS `__csv_start_id`,\n" +
		"  line[1] AS `__csv_end_id`,\n" +
		"  toInteger(line[2]) AS `since`\n" +
		"MATCH\n" +
		"  (src:`IdSpaceA` {`__csv_id`: `__csv_start_id`}),\n" +
		"  (trg:`IdSpaceB` {`__csv_id`: `__csv_end_id`})\n" +
		"CREATE (src)-[:`KNOWS` {`since`: `since`}]->(trg)"
	assert.Equal(t, expected, query)
}

func TestConvertRelationships_IdentifierSpaceRoundTrip(t *testing.T) {
	nodes, err := ConvertNodes("file:///p.csv", ":ID(Person)|name", []string{"Person"}, pipeConfig())
	require.NoError(t, err)
	rels, err := ConvertRelationships("file:///k.csv", ":START_ID(Person)|:END_ID(Person)", "KNOWS", pipeConfig())
	require.NoError(t, err)

	label := "`" + IDSpaceLabel("Person") + "`"
	assert.Contains(t, nodes[0], label)
	assert.Contains(t, nodes[1], label)
	assert.Contains(t, rels, "(src:"+label)
	assert.Contains(t, rels, "(trg:"+label)
}

func TestConvertRelationships_NoIdentifierSpace(t *testing.T) {
	query, err := ConvertRelationships("file:///k.csv", ":START_ID|:END_ID", "KNOWS", pipeConfig())
	require.NoError(t, err)

	assert.Contains(t, query, "  (src {`__csv_id`: `__csv_start_id`}),\n  (trg {`__csv_id`: `__csv_end_id`})")
	assert.True(t, strings.HasSuffix(query, "CREATE (src)-[:`KNOWS`]->(trg)"))
}

func TestConvertRelationships_LegacyEndpointFallback(t *testing.T) {
	cfg := pipeConfig()
	cfg.LegacyEndpointFallback = true

	query, err := ConvertRelationships("file:///k.csv", ":START_ID|:END_ID(B)", "KNOWS", cfg)
	require.NoError(t, err)

	assert.Contains(t, query, "(src {`__csv_id___csv_end_id`: `__csv_start_id`})")
	assert.Contains(t, query, "(trg:`IdSpaceB` {`__csv_id`: `__csv_end_id`})")
}

func TestConvertRelationships_DynamicType(t *testing.T) {
	query, err := ConvertRelationships("file:///k.csv", ":START_ID|:END_ID|:TYPE|weight:FLOAT", "", pipeConfig())
	require.NoError(t, err)

	assert.Contains(t, query, "  line[2] AS `__csv_type`,")
	assert.True(t, strings.HasSuffix(query,
		"CALL apoc.create.relationship(src, `__csv_type`, {`weight`: `weight`}, trg) YIELD rel\nRETURN count(rel) AS created"))
}

func TestConvertRelationships_MissingEndpoint(t *testing.T) {
	for _, header := range []string{":START_ID|since", ":END_ID|since", "since"} {
		t.Run(header, func(t *testing.T) {
			_, err := ConvertRelationships("file:///k.csv", header, "KNOWS", pipeConfig())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMissingEndpoint))
		})
	}
}

func TestConvertRelationships_AmbiguousEndpoint(t *testing.T) {
	for _, header := range []string{
		":START_ID(A)|:END_ID(B)|:START_ID(C)",
		":START_ID|:END_ID|:END_ID",
	} {
		t.Run(header, func(t *testing.T) {
			query, err := ConvertRelationships("file:///r.csv", header, "KNOWS", pipeConfig())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrAmbiguousEndpoint)
			assert.Empty(t, query)
		})
	}
}

func TestConvert_DuplicateColumns(t *testing.T) {
	tests := []struct {
		name   string
		header string
		rel    bool
	}{
		{name: "repeated property", header: "name|name:INT"},
		{name: "two unnamed label columns", header: ":ID|:LABEL|:LABEL"},
		{name: "two unnamed type columns", header: ":START_ID|:END_ID|:TYPE|:TYPE", rel: true},
		{name: "repeated relationship property", header: ":START_ID|:END_ID|since|since", rel: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if tt.rel {
				_, err = ConvertRelationships("file:///r.csv", tt.header, "", pipeConfig())
			} else {
				_, err = ConvertNodes("file:///n.csv", tt.header, []string{"Person"}, pipeConfig())
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDuplicateColumn)
		})
	}
}

func TestConvertNodes_NamedLabelColumnsAreDistinct(t *testing.T) {
	program, err := ConvertNodes("file:///n.csv", ":ID|roles:LABEL|teams:LABEL", nil, pipeConfig())
	require.NoError(t, err)
	assert.Contains(t, program.String(), "coalesce(`roles`, []) + coalesce(`teams`, [])")
}

func TestConvertRelationships_MissingType(t *testing.T) {
	_, err := ConvertRelationships("file:///k.csv", ":START_ID|:END_ID", "", pipeConfig())
	assert.ErrorIs(t, err, ErrMissingRelationshipType)
}

func TestPlan_Window(t *testing.T) {
	fields, err := csvheader.ParseHeader(":ID(P)|name", '|', '"')
	require.NoError(t, err)

	plan, err := NewSynthesizer(pipeConfig()).NodePlan("file:///x.csv", fields, []string{"Person"})
	require.NoError(t, err)

	windowed := plan.Window(200, 100)
	src, ok := windowed.Load.Source()
	require.True(t, ok)
	assert.Equal(t, 201, src.Skip, "header row is skipped in addition to the offset")
	assert.Equal(t, 100, src.Limit)
	assert.Equal(t, plan.Maintenance, windowed.Maintenance)

	orig, _ := plan.Load.Source()
	assert.Equal(t, 1, orig.Skip)
}

func TestPlan_RequiresAPOC(t *testing.T) {
	s := NewSynthesizer(pipeConfig())

	static, err := s.ParseHeader(":ID|name")
	require.NoError(t, err)
	plan, err := s.NodePlan("file:///x.csv", static, []string{"N"})
	require.NoError(t, err)
	assert.False(t, plan.RequiresAPOC)

	dynamic, err := s.ParseHeader(":START_ID|:END_ID|:TYPE")
	require.NoError(t, err)
	plan, err = s.RelationshipPlan("file:///x.csv", dynamic, "")
	require.NoError(t, err)
	assert.True(t, plan.RequiresAPOC)
}

func TestProgram_String(t *testing.T) {
	assert.Equal(t, "a;\nb", Program{"a", "b"}.String())
	assert.Equal(t, "", Program{}.String())
}
