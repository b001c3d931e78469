package tools

import (
	"embed"
)

// ConfigFiles embeds the import manifests of the config subdirectory
//
//go:embed all:config
var ConfigFiles embed.FS
