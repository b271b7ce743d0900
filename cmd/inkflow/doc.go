// Command inkflow is the CLI for the print-production workflow engine. It
// serves the HTTP API and offers direct file, queue, and workflow operations
// against the local database.
package main
