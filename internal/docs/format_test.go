package docs

import "testing"

func TestDetectSourceFormat(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		content  string
		want     string
	}{
		{"markdown extension", "notes.md", "", "text/markdown"},
		{"long markdown extension", "notes.markdown", "", "text/markdown"},
		{"uppercase extension", "REPORT.DOCX", "", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{"html", "page.html", "", "text/html"},
		{"rtf", "doc.rtf", "", "application/rtf"},
		{"odt", "doc.odt", "", "application/vnd.oasis.opendocument.text"},
		{"plain text extension", "readme.txt", "", "text/plain"},
		{"unknown extension plain content", "data.xyz", "just some text", "text/plain"},
		{"no extension heading sniff", "notes", "# Title\n\nbody", "text/markdown"},
		{"no extension fence sniff", "notes", "see ```go\ncode\n```", "text/markdown"},
		{"no extension bold sniff", "notes", "this is **bold**", "text/markdown"},
		{"no extension no content", "notes", "", "text/plain"},
		{"url with markdown path", "https://example.com/doc.md", "", "text/markdown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectSourceFormat(tt.fileName, []byte(tt.content)); got != tt.want {
				t.Errorf("DetectSourceFormat(%q) = %q, want %q", tt.fileName, got, tt.want)
			}
		})
	}
}

func TestResolveFormatHint(t *testing.T) {
	for hint, want := range map[string]string{
		"md":    "text/markdown",
		".md":   "text/markdown",
		"MD":    "text/markdown",
		"docx":  "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"html":  "text/html",
		".odt":  "application/vnd.oasis.opendocument.text",
	} {
		got, err := ResolveFormatHint(hint)
		if err != nil {
			t.Errorf("ResolveFormatHint(%q) error = %v", hint, err)
			continue
		}
		if got != want {
			t.Errorf("ResolveFormatHint(%q) = %q, want %q", hint, got, want)
		}
	}

	if _, err := ResolveFormatHint("pdf"); err == nil {
		t.Error("ResolveFormatHint(\"pdf\") should fail; PDF cannot be converted to Docs")
	}
}

func TestDocNameFromFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My Doc.md", "My Doc"},
		{"report.docx", "report"},
		{"plain", "plain"},
		{"archive.tar.gz", "archive.tar"},
	}
	for _, tt := range tests {
		if got := docNameFromFileName(tt.in); got != tt.want {
			t.Errorf("docNameFromFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
