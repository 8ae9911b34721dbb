// Package cmd implements the workspacemcp command line interface: the
// serve command running the MCP server over stdio or streamable-http,
// and the auth command for the stdio token flow.
package cmd
