package stepwise

// Version is the library release, reported by the CLI and the MCP server.
const Version = "0.4.0"
