// Package drive_tools registers the Google Drive MCP tools: file
// listing, metadata, download, and (outside read-only mode) upload,
// upload-from-URL, folder creation and deletion.
//
// drive_upload_from_url routes through the SSRF-safe fetcher: the
// remote host is validated against private/internal address ranges on
// every redirect hop before any content is transferred to Drive.
package drive_tools
