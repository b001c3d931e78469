package loadcsv

import "errors"

var (
	// ErrMissingEndpoint is returned when a relationship header lacks a
	// :START_ID or :END_ID column.
	ErrMissingEndpoint = errors.New("relationship header requires both a :START_ID and an :END_ID field")

	// ErrAmbiguousIdentifier is returned when a node header declares more
	// than one :ID column.
	ErrAmbiguousIdentifier = errors.New("node header declares more than one :ID field")

	// ErrAmbiguousEndpoint is returned when a relationship header declares
	// more than one :START_ID or more than one :END_ID column.
	ErrAmbiguousEndpoint = errors.New("relationship header declares more than one :START_ID or :END_ID field")

	// ErrDuplicateColumn is returned when two columns bind to the same name.
	ErrDuplicateColumn = errors.New("header declares two columns with the same name")
)
