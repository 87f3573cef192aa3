// Package export writes saved conversations to files.
//
// NewExporter picks an Exporter by format name:
//
//   - json: the stored structure, pretty-printed
//   - yaml: the same structure as YAML
//   - md: a readable transcript with snippets as fenced code
//   - html: the markdown transcript rendered by goldmark into one page
//
// Exporters never touch the store; callers load the conversation first.
package export
