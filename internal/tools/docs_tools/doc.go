// Package docs_tools registers the Google Docs MCP tools: document
// text extraction, metadata, and (outside read-only mode) document
// creation and import-from-URL.
//
// docs_import_from_url buffers the remote content through the
// SSRF-safe fetcher with a size cap, detects the source format from
// the URL and content, and converts it to a native Google Doc via the
// Drive import path.
package docs_tools
