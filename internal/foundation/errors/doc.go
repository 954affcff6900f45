// Package errors provides classified, context-carrying errors used across
// pipewright, plus adapters that map them to CLI exit codes and HTTP
// responses. Callers construct errors through the fluent builder API and
// classify them by category so the outer layers can route them without
// string matching.
package errors
