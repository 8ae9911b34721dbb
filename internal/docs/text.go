package docs

import (
	"fmt"
	"strings"

	docs "google.golang.org/api/docs/v1"
)

// DocumentToPlainText extracts plain text from a Google Doc. Both legacy
// documents (doc.Body) and tabbed documents (doc.Tabs, introduced Oct
// 2024) are supported.
func DocumentToPlainText(doc *docs.Document) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("document is nil")
	}

	var text strings.Builder

	if doc.Title != "" {
		text.WriteString(doc.Title)
		text.WriteString("\n\n")
	}

	if len(doc.Tabs) > 0 {
		for tabIndex, tab := range doc.Tabs {
			writeTabText(&text, tab, tabIndex, 0)
		}
	} else if doc.Body != nil {
		for _, element := range doc.Body.Content {
			writeElementText(&text, element)
		}
	}

	return text.String(), nil
}

func writeTabText(text *strings.Builder, tab *docs.Tab, index, level int) {
	indent := strings.Repeat("  ", level)
	switch {
	case tab.TabProperties != nil && tab.TabProperties.Title != "":
		fmt.Fprintf(text, "%s=== %s ===\n\n", indent, tab.TabProperties.Title)
	case index > 0 || level > 0:
		fmt.Fprintf(text, "%s=== Tab %d ===\n\n", indent, index+1)
	}

	if tab.DocumentTab != nil && tab.DocumentTab.Body != nil {
		for _, element := range tab.DocumentTab.Body.Content {
			writeElementText(text, element)
		}
	}

	for childIndex, child := range tab.ChildTabs {
		writeTabText(text, child, childIndex, level+1)
	}

	text.WriteString("\n")
}

func writeElementText(text *strings.Builder, element *docs.StructuralElement) {
	switch {
	case element.Paragraph != nil:
		writeParagraphText(text, element.Paragraph)
	case element.Table != nil:
		writeTableText(text, element.Table)
	}
}

func writeParagraphText(text *strings.Builder, para *docs.Paragraph) {
	if para == nil {
		return
	}
	for _, elem := range para.Elements {
		if elem.TextRun != nil && elem.TextRun.Content != "" {
			text.WriteString(elem.TextRun.Content)
		}
	}
}

func writeTableText(text *strings.Builder, table *docs.Table) {
	if table == nil {
		return
	}
	for _, row := range table.TableRows {
		for _, cell := range row.TableCells {
			for _, element := range cell.Content {
				if element.Paragraph != nil {
					writeParagraphText(text, element.Paragraph)
				}
			}
			text.WriteString("\t")
		}
		text.WriteString("\n")
	}
}
