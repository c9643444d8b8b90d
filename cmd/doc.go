// Package cmd implements the command-line interface for the memtrace
// memory snapshot recorder. It provides a hierarchical command structure
// with operations for running the server and interacting with it as a
// client.
//
// The package is organized into several subpackages:
//
//   - serve: Commands for starting and configuring the memtrace server
//   - client: Commands for capturing and fetching snapshots over HTTP
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See memtrace -help for a list of all commands.
package cmd
