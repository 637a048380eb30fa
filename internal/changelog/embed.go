package changelog

import (
	_ "embed"
)

//go:embed header.md
var embeddedHeader string

// Header returns the Keep a Changelog preamble used to seed a new
// CHANGELOG.md. It ends with the "## [Unreleased]" anchor.
func Header() string {
	return embeddedHeader
}
