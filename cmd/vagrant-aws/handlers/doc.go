// Package handlers implements the CLI commands.
//
// Constructors for external dependencies are package-level function
// variables so tests can replace them.
package handlers
