// Package gmail_tools registers the Gmail MCP tools: message search,
// message retrieval, label listing, and (outside read-only mode)
// sending mail and label modification.
package gmail_tools
