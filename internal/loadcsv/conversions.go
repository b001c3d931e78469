package loadcsv

import (
	"fmt"
	"strings"
)

// conversions maps a semantic type to a Cypher expression template with a
// single %s insertion point for the raw value.
//
// Types follow the neo4j-admin import header format. Cypher only offers
// toInteger, toFloat and toString, so the narrower integer types collapse
// onto toInteger.
var conversions = map[string]string{
	"INT":      "toInteger(%s)",
	"LONG":     "toInteger(%s)",
	"BYTE":     "toInteger(%s)",
	"SHORT":    "toInteger(%s)",
	"ID":       "toInteger(%s)",
	"START_ID": "toInteger(%s)",
	"END_ID":   "toInteger(%s)",
	"FLOAT":    "toFloat(%s)",
	"DOUBLE":   "toFloat(%s)",
	"BOOLEAN":  "CASE toUpper(%s) WHEN 'TRUE' THEN true WHEN 'FALSE' THEN false END",
	"CHAR":     "%s",
	"STRING":   "%s",
}

// Conversion returns the template for a semantic type. Unknown types leave
// the value unchanged.
func Conversion(semanticType string) string {
	if tmpl, ok := conversions[strings.ToUpper(semanticType)]; ok {
		return tmpl
	}
	return "%s"
}

// Convert applies the conversion for semanticType to expr.
func Convert(semanticType, expr string) string {
	return fmt.Sprintf(Conversion(semanticType), expr)
}
