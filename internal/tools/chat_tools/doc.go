// Package chat_tools registers the Google Chat MCP tools: listing
// spaces, reading space messages and (outside read-only mode) sending
// messages.
package chat_tools
