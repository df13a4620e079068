// Package extensions provides the Lua-based extension system for Glyco.
// It includes the runtime for executing Lua scripts and defines the Go functions
// and types that are exposed to the Lua environment, allowing extensions to
// inspect and rewrite questions and answers as they move through the ask pipeline.
package extensions
