package doccontext

import (
	"strings"
	"unicode/utf8"
)

// Per-document character budgets. Sectioned text gets the larger budget.
const (
	SectionBudget  = 30000
	FallbackBudget = 15000
)

const (
	OmittedMarker   = "(additional sections omitted due to length)\n"
	TruncatedMarker = "...(truncated)"
)

// BuildContext assembles the document context for one chat request. The
// boolean is false when docs is empty: callers must then leave the context
// out of the request entirely rather than send an empty string.
func BuildContext(docs []Document) (string, bool) {
	if len(docs) == 0 {
		return "", false
	}
	blocks := make([]string, len(docs))
	for i, doc := range docs {
		blocks[i] = documentBlock(doc)
	}
	return strings.Join(blocks, "\n\n"), true
}

func documentBlock(doc Document) string {
	sections := ScanSections(doc.Content)
	if len(sections) == 0 {
		return "Document: " + doc.Name + "\nContent: " + truncateRunes(doc.Content, FallbackBudget)
	}

	var sb strings.Builder
	sb.WriteString("Document: ")
	sb.WriteString(doc.Name)
	sb.WriteString("\n\n")

	total := 0
	for _, s := range sections {
		n := utf8.RuneCountInString(s.Raw)
		if total+n > SectionBudget {
			sb.WriteString(OmittedMarker)
			break
		}
		sb.WriteString(s.Raw)
		sb.WriteString("\n\n")
		total += n
	}
	return sb.String()
}

// truncateRunes keeps the first limit characters of s, adding TruncatedMarker
// when anything was cut.
func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i] + TruncatedMarker
		}
		n++
	}
	return s
}
