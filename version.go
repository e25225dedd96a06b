package scribe

import _ "embed"

// Version is the release version of Scribe.
//
//go:embed VERSION
var Version string
