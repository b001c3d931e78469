package csvheader

import (
	"fmt"
	"regexp"
	"strings"
)

// Grammar selects which characters are accepted in column names and
// identifier spaces.
type Grammar int

const (
	// Strict accepts letters and hyphens only.
	Strict Grammar = iota
	// Permissive accepts any character except the DSL punctuation ':', '(',
	// ')', '[' and ']'. Useful for free-form column headers.
	Permissive
)

func (g Grammar) String() string {
	if g == Permissive {
		return "permissive"
	}
	return "strict"
}

const (
	strictNameClass     = `[-a-zA-Z]`
	permissiveNameClass = `[^:()\[\]]`
	typeClass           = `[A-Za-z_]`
)

type patterns struct {
	identifier *regexp.Regexp
	field      *regexp.Regexp
}

func compilePatterns(nameClass string) patterns {
	return patterns{
		// e.g. :ID, personId:ID, :START_ID(Person)
		identifier: regexp.MustCompile(fmt.Sprintf(`^%s*:(ID|START_ID|END_ID)(\((%s+)\))?$`, nameClass, nameClass)),
		// e.g. name, name:STRING, languages:STRING[], :LABEL
		field: regexp.MustCompile(fmt.Sprintf(`^(%s*)(:(%s+)(\[\])?)?$`, nameClass, typeClass)),
	}
}

var grammars = map[Grammar]patterns{
	Strict:     compilePatterns(strictNameClass),
	Permissive: compilePatterns(permissiveNameClass),
}

// Parser turns header attributes into fields. A Parser holds no mutable
// state and is safe for concurrent use.
type Parser struct {
	quote    rune
	grammar  Grammar
	patterns patterns
}

// NewParser returns a parser that strips the quote character from every
// attribute before matching. A zero quote disables stripping.
func NewParser(quote rune, grammar Grammar) *Parser {
	p, ok := grammars[grammar]
	if !ok {
		grammar = Strict
		p = grammars[Strict]
	}
	return &Parser{
		quote:    quote,
		grammar:  grammar,
		patterns: p,
	}
}

// Grammar returns the grammar the parser was built with.
func (p *Parser) Grammar() Grammar {
	return p.grammar
}

// Quote returns the quote character stripped from attributes.
func (p *Parser) Quote() rune {
	return p.quote
}

// ParseField parses one attribute found at the given raw column index. The
// boolean result is false when the column is marked :IGNORE, in which case
// the field must be dropped.
func (p *Parser) ParseField(index int, raw string) (Field, bool, error) {
	cleaned := raw
	if p.quote != 0 {
		cleaned = strings.ReplaceAll(raw, string(p.quote), "")
	}

	if strings.HasSuffix(strings.ToUpper(cleaned), ":"+IgnoreMarker) {
		return Field{}, false, nil
	}

	if m := p.patterns.identifier.FindStringSubmatchIndex(cleaned); m != nil {
		marker := cleaned[m[2]:m[3]]
		var idSpace string
		if m[6] >= 0 {
			idSpace = cleaned[m[6]:m[7]]
		}
		kind := identifierKind(marker)
		return newField(index, identifierName(kind, idSpace), kind, marker, false, idSpace), true, nil
	}

	if m := p.patterns.field.FindStringSubmatchIndex(cleaned); m != nil {
		name := cleaned[m[2]:m[3]]
		typ := DefaultType
		if m[6] >= 0 {
			typ = cleaned[m[6]:m[7]]
		}
		repeated := m[8] >= 0

		kind := Plain
		switch typ {
		case LabelMarker:
			kind = DynamicLabel
		case TypeMarker:
			kind = DynamicType
		}

		// only the structural columns may omit the name, e.g. ":LABEL"
		if name == "" && kind == Plain {
			return Field{}, false, &MalformedFieldError{Index: index, Attribute: raw}
		}
		return newField(index, name, kind, typ, repeated, ""), true, nil
	}

	return Field{}, false, &MalformedFieldError{Index: index, Attribute: raw}
}

// ParseHeader splits header on the literal separator and parses every
// attribute in order. Ignored columns are omitted; the Index of every other
// field is its raw column position.
func (p *Parser) ParseHeader(header string, separator rune) ([]Field, error) {
	fields := make([]Field, 0)
	if header == "" {
		return fields, nil
	}

	attributes := strings.Split(header, string(separator))
	// trailing empty attributes are dropped, "a,b," has two columns
	for len(attributes) > 0 && attributes[len(attributes)-1] == "" {
		attributes = attributes[:len(attributes)-1]
	}

	for i, attribute := range attributes {
		field, ok, err := p.ParseField(i, attribute)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		fields = append(fields, field)
	}
	return fields, nil
}

// ParseField parses one attribute with the strict grammar.
func ParseField(index int, raw string, quote rune) (Field, bool, error) {
	return NewParser(quote, Strict).ParseField(index, raw)
}

// ParseHeader parses a header line with the strict grammar.
func ParseHeader(header string, separator, quote rune) ([]Field, error) {
	return NewParser(quote, Strict).ParseHeader(header, separator)
}
