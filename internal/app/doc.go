// Package app loads configuration and wires the key store, event sinks,
// crypto engine and services into a Wire for the CLI.
package app
