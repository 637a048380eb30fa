// Package changelog reads, composes and merges Keep a Changelog markdown.
//
// This package implements:
//   - the category vocabulary and per-category title maps
//   - version section composition from release items or commit subjects
//   - idempotent merging of a section into CHANGELOG.md, including compare links
//   - a line diff for dry-run previews
//   - version and section queries for the show command
//
// Every operation works on plain strings. Malformed markdown never produces an
// error; the worst case is a document returned unchanged.
package changelog
