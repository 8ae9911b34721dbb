package docs

import (
	"strings"
	"testing"

	docs "google.golang.org/api/docs/v1"
)

func paragraph(content string) *docs.StructuralElement {
	return &docs.StructuralElement{
		Paragraph: &docs.Paragraph{
			Elements: []*docs.ParagraphElement{
				{TextRun: &docs.TextRun{Content: content}},
			},
		},
	}
}

func TestDocumentToPlainTextLegacyBody(t *testing.T) {
	doc := &docs.Document{
		Title: "Quarterly Report",
		Body: &docs.Body{
			Content: []*docs.StructuralElement{
				paragraph("First paragraph.\n"),
				paragraph("Second paragraph.\n"),
			},
		},
	}

	text, err := DocumentToPlainText(doc)
	if err != nil {
		t.Fatalf("DocumentToPlainText() error = %v", err)
	}
	if !strings.HasPrefix(text, "Quarterly Report\n\n") {
		t.Errorf("text should start with the title, got %q", text)
	}
	if !strings.Contains(text, "First paragraph.") || !strings.Contains(text, "Second paragraph.") {
		t.Errorf("text missing paragraphs: %q", text)
	}
}

func TestDocumentToPlainTextTabs(t *testing.T) {
	doc := &docs.Document{
		Title: "Tabbed",
		Tabs: []*docs.Tab{
			{
				TabProperties: &docs.TabProperties{Title: "Overview"},
				DocumentTab: &docs.DocumentTab{
					Body: &docs.Body{Content: []*docs.StructuralElement{paragraph("Tab one content.\n")}},
				},
				ChildTabs: []*docs.Tab{
					{
						TabProperties: &docs.TabProperties{Title: "Details"},
						DocumentTab: &docs.DocumentTab{
							Body: &docs.Body{Content: []*docs.StructuralElement{paragraph("Nested content.\n")}},
						},
					},
				},
			},
		},
	}

	text, err := DocumentToPlainText(doc)
	if err != nil {
		t.Fatalf("DocumentToPlainText() error = %v", err)
	}
	for _, want := range []string{"=== Overview ===", "Tab one content.", "=== Details ===", "Nested content."} {
		if !strings.Contains(text, want) {
			t.Errorf("text missing %q: %q", want, text)
		}
	}
}

func TestDocumentToPlainTextTable(t *testing.T) {
	doc := &docs.Document{
		Body: &docs.Body{
			Content: []*docs.StructuralElement{
				{
					Table: &docs.Table{
						TableRows: []*docs.TableRow{
							{
								TableCells: []*docs.TableCell{
									{Content: []*docs.StructuralElement{paragraph("A")}},
									{Content: []*docs.StructuralElement{paragraph("B")}},
								},
							},
						},
					},
				},
			},
		},
	}

	text, err := DocumentToPlainText(doc)
	if err != nil {
		t.Fatalf("DocumentToPlainText() error = %v", err)
	}
	if !strings.Contains(text, "A\tB\t\n") {
		t.Errorf("table cells not tab-separated: %q", text)
	}
}

func TestDocumentToPlainTextNil(t *testing.T) {
	if _, err := DocumentToPlainText(nil); err == nil {
		t.Error("nil document should error")
	}
}
