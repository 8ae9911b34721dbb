// Package docs provides a thin client for the Google Docs API.
//
// Besides document reading and creation it implements ImportFromURL,
// which downloads a remote file through the SSRF-validating fetcher and
// has Drive convert it to native Google Docs format. Source formats are
// detected from the file extension, with a content sniff fallback for
// Markdown.
package docs
