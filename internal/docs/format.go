package docs

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

// GoogleDocsMimeType is the target MIME type for imports; Drive converts
// the source content to a native Google Doc.
const GoogleDocsMimeType = "application/vnd.google-apps.document"

// importFormats maps file extensions to the source MIME types Drive can
// convert into Google Docs format.
var importFormats = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".txt":      "text/plain",
	".text":     "text/plain",
	".html":     "text/html",
	".htm":      "text/html",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".doc":      "application/msword",
	".rtf":      "application/rtf",
	".odt":      "application/vnd.oasis.opendocument.text",
}

// DetectSourceFormat returns the source MIME type for an import based on
// the file name's extension. When the extension is unknown, a leading
// sample of the content is sniffed for Markdown markers; anything else
// falls back to text/plain.
func DetectSourceFormat(fileName string, content []byte) string {
	ext := strings.ToLower(path.Ext(fileName))
	if mime, ok := importFormats[ext]; ok {
		return mime
	}

	if looksLikeMarkdown(content) {
		return "text/markdown"
	}

	return "text/plain"
}

func looksLikeMarkdown(content []byte) bool {
	if len(content) == 0 {
		return false
	}
	s := string(content)
	return strings.HasPrefix(s, "#") ||
		strings.Contains(s, "```") ||
		strings.Contains(s, "**")
}

// ResolveFormatHint maps an explicit format hint ("md", "docx", ".html",
// ...) to its source MIME type, or errors for unsupported formats.
func ResolveFormatHint(hint string) (string, error) {
	key := "." + strings.TrimPrefix(strings.ToLower(hint), ".")
	if mime, ok := importFormats[key]; ok {
		return mime, nil
	}
	return "", fmt.Errorf("unsupported source format %q, supported: %s", hint, supportedFormatList())
}

func supportedFormatList() string {
	exts := make([]string, 0, len(importFormats))
	for ext := range importFormats {
		exts = append(exts, strings.TrimPrefix(ext, "."))
	}
	sort.Strings(exts)
	return strings.Join(exts, ", ")
}

// docNameFromFileName strips the extension; the imported file becomes a
// Google Doc, where the extension is meaningless.
func docNameFromFileName(fileName string) string {
	ext := path.Ext(fileName)
	if ext == "" {
		return fileName
	}
	return strings.TrimSuffix(fileName, ext)
}
