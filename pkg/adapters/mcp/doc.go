// Package mcp exposes wizard sessions as Model Context Protocol tools:
// start_session, output, input, back and collect.
package mcp
