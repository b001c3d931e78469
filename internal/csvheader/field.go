// Package csvheader parses neo4j-admin style CSV headers such as
//
//	:ID(Person)|name:STRING|languages:STRING[]|:LABEL
//
// into an ordered list of Field descriptors. The package performs no I/O.
package csvheader

import "fmt"

// FieldKind is the structural role of a column.
type FieldKind int

const (
	// Plain is an ordinary data column.
	Plain FieldKind = iota
	// Identifier is a node identifier column (:ID).
	Identifier
	// RelationshipStart is the start node identifier of a relationship (:START_ID).
	RelationshipStart
	// RelationshipEnd is the end node identifier of a relationship (:END_ID).
	RelationshipEnd
	// DynamicLabel holds node labels supplied per row (:LABEL).
	DynamicLabel
	// DynamicType holds the relationship type supplied per row (:TYPE).
	DynamicType
)

// DSL markers.
const (
	IDMarker      = "ID"
	StartIDMarker = "START_ID"
	EndIDMarker   = "END_ID"
	LabelMarker   = "LABEL"
	TypeMarker    = "TYPE"
	IgnoreMarker  = "IGNORE"

	// DefaultType is used when a column declares no type.
	DefaultType = "STRING"
)

// Internal names bound for structural columns.
const (
	IDVariable      = "__csv_id"
	StartIDVariable = "__csv_start_id"
	EndIDVariable   = "__csv_end_id"
	LabelVariable   = "__csv_label"
	TypeVariable    = "__csv_type"
)

func (k FieldKind) String() string {
	switch k {
	case Identifier:
		return IDMarker
	case RelationshipStart:
		return StartIDMarker
	case RelationshipEnd:
		return EndIDMarker
	case DynamicLabel:
		return LabelMarker
	case DynamicType:
		return TypeMarker
	default:
		return "PLAIN"
	}
}

// IsIdentifier reports whether the kind is one of the identifier kinds.
func (k FieldKind) IsIdentifier() bool {
	return k == Identifier || k == RelationshipStart || k == RelationshipEnd
}

// IsStructural reports whether the column drives graph structure rather than
// carrying a property value.
func (k FieldKind) IsStructural() bool {
	return k == DynamicLabel || k == DynamicType
}

// Field is one parsed column declaration. Values are never mutated after
// construction.
type Field struct {
	// Index is the raw column position in the header, ignored columns included.
	Index int
	// Name is the declared name. Identifier kinds get a name derived from the
	// kind and the identifier space.
	Name string
	Kind FieldKind
	// Type is the declared semantic type, e.g. INT or STRING. Identifier kinds
	// carry their marker (ID, START_ID, END_ID).
	Type string
	// Repeated marks array columns. Always true for DynamicLabel.
	Repeated bool
	// IDSpace is the identifier namespace. Empty when none was declared; the
	// grammar never captures an empty namespace.
	IDSpace string
}

func newField(index int, name string, kind FieldKind, typ string, repeated bool, idSpace string) Field {
	if kind == DynamicLabel {
		repeated = true
	}
	return Field{
		Index:    index,
		Name:     name,
		Kind:     kind,
		Type:     typ,
		Repeated: repeated,
		IDSpace:  idSpace,
	}
}

// HasIDSpace reports whether an identifier space was declared.
func (f Field) HasIDSpace() bool {
	return f.IDSpace != ""
}

// Variable returns the name the column is bound to in generated queries.
// Identifier columns always bind to their internal name, the namespace is not
// part of it.
func (f Field) Variable() string {
	switch f.Kind {
	case Identifier:
		return IDVariable
	case RelationshipStart:
		return StartIDVariable
	case RelationshipEnd:
		return EndIDVariable
	case DynamicLabel:
		if f.Name == "" {
			return LabelVariable
		}
	case DynamicType:
		if f.Name == "" {
			return TypeVariable
		}
	}
	return f.Name
}

func (f Field) String() string {
	return fmt.Sprintf("Field[index=%d, name=%s, kind=%s, type=%s, repeated=%t, idSpace=%s]",
		f.Index, f.Name, f.Kind, f.Type, f.Repeated, f.IDSpace)
}

func identifierName(kind FieldKind, idSpace string) string {
	var base string
	switch kind {
	case RelationshipStart:
		base = StartIDVariable
	case RelationshipEnd:
		base = EndIDVariable
	default:
		base = IDVariable
	}
	if idSpace == "" {
		return base
	}
	return base + "_" + idSpace
}

func identifierKind(marker string) FieldKind {
	switch marker {
	case StartIDMarker:
		return RelationshipStart
	case EndIDMarker:
		return RelationshipEnd
	default:
		return Identifier
	}
}
