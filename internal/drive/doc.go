// Package drive provides a thin client for the Google Drive API.
//
// The client exposes listing, metadata, upload, download and folder
// operations, plus UploadFromURL, which streams a remote file into Drive
// through the SSRF-validating fetcher.
package drive
