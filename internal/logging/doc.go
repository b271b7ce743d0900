// Package logging builds the slog loggers used across inkflow.
//
// Two output formats are supported: a compact console format for interactive
// use and line-delimited JSON for log collection. When the configuration does
// not pin a format, console output is chosen only when stderr is a terminal.
// Components attach themselves with the "component" attribute, which the
// console handler hoists into the message prefix.
package logging
