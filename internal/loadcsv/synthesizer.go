// Package loadcsv compiles parsed CSV headers into Cypher LOAD CSV programs
// that create nodes and relationships.
//
// A node header such as ":ID(Person)|name:STRING" with the label Person
// compiles to an index statement followed by the load statement:
//
//	CREATE INDEX IF NOT EXISTS FOR (n:`IdSpacePerson`) ON (n.`__csv_id`)
//
//	LOAD CSV FROM 'file:///person.csv' AS line FIELDTERMINATOR ','
//	WITH line
//	SKIP 1
//	WITH
//	  line[0] AS `__csv_id`,
//	  line[1] AS `name`
//	CREATE (:`Person`:`IdSpacePerson` {`__csv_id`: `__csv_id`, `name`: `name`})
//
// The package performs no I/O and keeps no state between calls.
package loadcsv

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/csvheader"
	qb "github.com/mkd-neo4j/neo4j-mcp-csv/internal/tools/cypher/query_builder"
)

const (
	// RowVariable is bound to each CSV row.
	RowVariable = "line"
	// IDSpaceLabelPrefix prefixes the label derived from an identifier space.
	IDSpaceLabelPrefix = "IdSpace"
	// IDProperty stores the imported identifier on every node with an :ID column.
	IDProperty = csvheader.IDVariable

	startVariable   = "src"
	endVariable     = "trg"
	elementVariable = "item"
)

// ErrMissingRelationshipType is returned when a relationship header has no
// :TYPE column and no static type was given.
var ErrMissingRelationshipType = errors.New("relationship type is required when the header has no :TYPE field")

// IDSpaceLabel returns the label that tags nodes of an identifier space.
func IDSpaceLabel(idSpace string) string {
	return IDSpaceLabelPrefix + idSpace
}

// Program is an ordered list of Cypher statements to execute in order.
type Program []string

func (p Program) String() string {
	return strings.Join(p, ";\n")
}

// Plan is a synthesized program before rendering.
type Plan struct {
	// Maintenance statements must run once, before the load statement.
	Maintenance []qb.Statement
	// Load is the LOAD CSV statement.
	Load qb.Statement
	// RequiresAPOC is set when the load statement calls APOC procedures.
	RequiresAPOC bool

	headerRows int
}

// Program renders the plan.
func (p *Plan) Program() Program {
	program := make(Program, 0, len(p.Maintenance)+1)
	for _, stmt := range p.Maintenance {
		program = append(program, stmt.Render())
	}
	return append(program, p.Load.Render())
}

// Window returns a copy of the plan whose load statement only processes
// limit data rows starting at data row offset. Header rows are skipped in
// addition to offset.
func (p *Plan) Window(offset, limit int) *Plan {
	windowed := *p
	windowed.Load = p.Load.WithSourceWindow(p.headerRows+offset, limit)
	return &windowed
}

// Synthesizer builds plans for one configuration. It holds no mutable state
// and is safe for concurrent use.
type Synthesizer struct {
	cfg Config
}

// NewSynthesizer creates a synthesizer. The configuration is not validated
// here; see Config.Validate.
func NewSynthesizer(cfg Config) *Synthesizer {
	return &Synthesizer{cfg: cfg}
}

// Config returns the configuration the synthesizer was built with.
func (s *Synthesizer) Config() Config {
	return s.cfg
}

// ParseHeader parses a header line with the separators, quote character and
// grammar of the synthesizer's configuration.
func (s *Synthesizer) ParseHeader(header string) ([]csvheader.Field, error) {
	return csvheader.NewParser(s.cfg.Quote, s.cfg.Grammar()).ParseHeader(header, s.cfg.FieldSeparator)
}

// NodePlan builds the plan creating one node per row of source.
func (s *Synthesizer) NodePlan(source string, fields []csvheader.Field, labels []string) (*Plan, error) {
	var id *csvheader.Field
	var dynamicLabels []csvheader.Field
	for i := range fields {
		switch fields[i].Kind {
		case csvheader.Identifier:
			if id != nil {
				return nil, fmt.Errorf("%w: columns %d and %d", ErrAmbiguousIdentifier, id.Index, fields[i].Index)
			}
			id = &fields[i]
		case csvheader.DynamicLabel:
			dynamicLabels = append(dynamicLabels, fields[i])
		}
	}

	if err := checkUniqueVariables(fields); err != nil {
		return nil, err
	}

	nodeLabels := make([]string, 0, len(labels)+1)
	nodeLabels = append(nodeLabels, labels...)
	if id != nil && id.HasIDSpace() {
		nodeLabels = append(nodeLabels, IDSpaceLabel(id.IDSpace))
	}

	props := properties(fields, func(f csvheader.Field) bool {
		return !f.Kind.IsStructural()
	})

	plan := &Plan{headerRows: s.cfg.HeaderRows()}
	builder := qb.NewStatementBuilder().Add(s.sourceClause(source), s.withClause(fields))

	if len(dynamicLabels) == 0 {
		if id != nil {
			if label := indexLabel(id, labels); label != "" {
				plan.Maintenance = append(plan.Maintenance, qb.NewStatement(qb.CreateIndexClause{
					Label:    label,
					Property: IDProperty,
				}))
			}
		}
		builder.Add(qb.CreateNodeClause{Node: qb.NodePattern{
			Labels:     nodeLabels,
			Properties: props,
		}})
	} else {
		plan.RequiresAPOC = true
		builder.Add(
			qb.CallClause{
				Procedure: "apoc.create.node",
				Arguments: []string{labelExpression(nodeLabels, dynamicLabels), qb.BuildMapLiteral(props)},
				Yield:     "node",
			},
			qb.ReturnClause{Items: []string{"count(node) AS created"}},
		)
	}

	plan.Load = builder.Build()
	return plan, nil
}

// RelationshipPlan builds the plan creating one relationship per row of
// source between the nodes matched by the :START_ID and :END_ID columns.
func (s *Synthesizer) RelationshipPlan(source string, fields []csvheader.Field, relType string) (*Plan, error) {
	var start, end, dynamicType *csvheader.Field
	for i := range fields {
		switch fields[i].Kind {
		case csvheader.RelationshipStart:
			if start != nil {
				return nil, fmt.Errorf("%w: :START_ID in columns %d and %d", ErrAmbiguousEndpoint, start.Index, fields[i].Index)
			}
			start = &fields[i]
		case csvheader.RelationshipEnd:
			if end != nil {
				return nil, fmt.Errorf("%w: :END_ID in columns %d and %d", ErrAmbiguousEndpoint, end.Index, fields[i].Index)
			}
			end = &fields[i]
		case csvheader.DynamicType:
			if dynamicType == nil {
				dynamicType = &fields[i]
			}
		}
	}
	if start == nil || end == nil {
		return nil, fmt.Errorf("%w (start present: %t, end present: %t)", ErrMissingEndpoint, start != nil, end != nil)
	}
	if err := checkUniqueVariables(fields); err != nil {
		return nil, err
	}
	if dynamicType == nil && relType == "" {
		return nil, ErrMissingRelationshipType
	}

	props := properties(fields, func(f csvheader.Field) bool {
		return !f.Kind.IsStructural() && f.Kind != csvheader.RelationshipStart && f.Kind != csvheader.RelationshipEnd
	})

	plan := &Plan{headerRows: s.cfg.HeaderRows()}
	builder := qb.NewStatementBuilder().Add(
		s.sourceClause(source),
		s.withClause(fields),
		qb.MatchClause{Patterns: []qb.NodePattern{
			s.endpointPattern(startVariable, *start, *end),
			s.endpointPattern(endVariable, *end, *start),
		}},
	)

	if dynamicType != nil {
		plan.RequiresAPOC = true
		builder.Add(
			qb.CallClause{
				Procedure: "apoc.create.relationship",
				Arguments: []string{startVariable, qb.QuoteIdentifier(dynamicType.Variable()), qb.BuildMapLiteral(props), endVariable},
				Yield:     "rel",
			},
			qb.ReturnClause{Items: []string{"count(rel) AS created"}},
		)
	} else {
		builder.Add(qb.CreateRelationshipClause{
			StartVariable: startVariable,
			EndVariable:   endVariable,
			Type:          relType,
			Properties:    props,
		})
	}

	plan.Load = builder.Build()
	return plan, nil
}

func (s *Synthesizer) sourceClause(source string) qb.LoadCSVClause {
	return qb.LoadCSVClause{Source: qb.LoadCSVSource{
		URL:             source,
		RowVariable:     RowVariable,
		FieldTerminator: s.cfg.FieldSeparator,
		Skip:            s.cfg.HeaderRows(),
	}}
}

// withClause projects every column through its type conversion, e.g.
// "toInteger(line[2]) AS `age`" or, for arrays,
// "[item IN split(line[3], ';') | toInteger(item)] AS `scores`".
func (s *Synthesizer) withClause(fields []csvheader.Field) qb.WithClause {
	projections := make([]qb.Projection, 0, len(fields))
	for _, f := range fields {
		typ := f.Type
		if f.Kind.IsIdentifier() && s.cfg.StringIDs {
			typ = csvheader.DefaultType
		}

		raw := fmt.Sprintf("%s[%d]", RowVariable, f.Index)
		var expr string
		if f.Repeated {
			expr = fmt.Sprintf("[%s IN split(%s, %s) | %s]",
				elementVariable,
				raw,
				qb.StringLiteral(string(s.cfg.ArraySeparator)),
				Convert(typ, elementVariable))
		} else {
			expr = Convert(typ, raw)
		}

		projections = append(projections, qb.Projection{Expression: expr, Alias: f.Variable()})
	}
	return qb.WithClause{Projections: projections}
}

// endpointPattern matches one side of a relationship on the imported
// identifier, restricted to the identifier space label when one is declared.
func (s *Synthesizer) endpointPattern(variable string, field, other csvheader.Field) qb.NodePattern {
	pattern := qb.NodePattern{Variable: variable}
	key := IDProperty
	if field.HasIDSpace() {
		pattern.Labels = []string{IDSpaceLabel(field.IDSpace)}
	} else if s.cfg.LegacyEndpointFallback {
		key = IDProperty + "_" + other.Variable()
	}
	pattern.Properties = []qb.Property{{Key: key, Variable: field.Variable()}}
	return pattern
}

// checkUniqueVariables rejects headers where two columns bind to the same
// name in the WITH clause, e.g. "name|name:INT" or ":LABEL|:LABEL".
func checkUniqueVariables(fields []csvheader.Field) error {
	seen := make(map[string]int, len(fields))
	for _, f := range fields {
		name := f.Variable()
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("%w: %q in columns %d and %d", ErrDuplicateColumn, name, prev, f.Index)
		}
		seen[name] = f.Index
	}
	return nil
}

func properties(fields []csvheader.Field, include func(csvheader.Field) bool) []qb.Property {
	props := make([]qb.Property, 0, len(fields))
	for _, f := range fields {
		if !include(f) {
			continue
		}
		props = append(props, qb.Property{Key: f.Variable(), Variable: f.Variable()})
	}
	return props
}

// indexLabel picks the label the identifier index is created on: the
// identifier space label when there is one, otherwise the first static label.
func indexLabel(id *csvheader.Field, labels []string) string {
	if id.HasIDSpace() {
		return IDSpaceLabel(id.IDSpace)
	}
	if len(labels) > 0 {
		return labels[0]
	}
	return ""
}

// labelExpression merges literal labels with the per-row label columns,
// e.g. "['Person'] + coalesce(`__csv_label`, [])".
func labelExpression(static []string, dynamic []csvheader.Field) string {
	parts := make([]string, 0, len(dynamic)+1)
	if len(static) > 0 {
		parts = append(parts, qb.BuildStringList(static))
	}
	for _, f := range dynamic {
		parts = append(parts, fmt.Sprintf("coalesce(%s, [])", qb.QuoteIdentifier(f.Variable())))
	}
	return strings.Join(parts, " + ")
}

// SynthesizeNodeProgram renders the node program for already parsed fields.
func SynthesizeNodeProgram(source string, fields []csvheader.Field, labels []string, cfg Config) (Program, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid loader config: %w", err)
	}
	plan, err := NewSynthesizer(cfg).NodePlan(source, fields, labels)
	if err != nil {
		return nil, err
	}
	return plan.Program(), nil
}

// SynthesizeRelationshipProgram renders the relationship program for
// already parsed fields. Relationship programs are always one statement.
func SynthesizeRelationshipProgram(source string, fields []csvheader.Field, relType string, cfg Config) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", fmt.Errorf("invalid loader config: %w", err)
	}
	plan, err := NewSynthesizer(cfg).RelationshipPlan(source, fields, relType)
	if err != nil {
		return "", err
	}
	return plan.Program().String(), nil
}

// ConvertNodes parses header and renders the node program.
func ConvertNodes(source, header string, labels []string, cfg Config) (Program, error) {
	fields, err := NewSynthesizer(cfg).ParseHeader(header)
	if err != nil {
		return nil, err
	}
	return SynthesizeNodeProgram(source, fields, labels, cfg)
}

// ConvertRelationships parses header and renders the relationship program.
func ConvertRelationships(source, header, relType string, cfg Config) (string, error) {
	fields, err := NewSynthesizer(cfg).ParseHeader(header)
	if err != nil {
		return "", err
	}
	return SynthesizeRelationshipProgram(source, fields, relType, cfg)
}
