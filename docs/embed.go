package docs

import (
	_ "embed"
)

// HeaderDSLPrompt embeds the guidance sent to clients as server instructions.
// It explains the CSV header notation and the order in which the tools are
// meant to be used.
//
//go:embed prompts/header_dsl.md
var HeaderDSLPrompt string
