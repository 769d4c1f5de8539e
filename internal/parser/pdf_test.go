package parser

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF writes a minimal PDF with one page per entry. Each line is drawn
// in its own text object so it extracts on its own line.
func buildPDF(pages ...[]string) []byte {
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	for i, lines := range pages {
		var content strings.Builder
		for j, l := range lines {
			fmt.Fprintf(&content, "BT /F1 12 Tf 72 %d Td (%s) Tj ET\n", 720-14*j, l)
		}
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", content.Len(), content.String()),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func TestPDFParser_ShortTextIsFullDocument(t *testing.T) {
	data := buildPDF([]string{"Hello there"}, []string{"Second page"})

	tree, err := (&PDFParser{}).Parse(bytes.NewReader(data), "memo.pdf")
	require.NoError(t, err)

	assert.Equal(t, "memo", tree.Title)
	assert.Equal(t, 2, tree.PageCount)
	require.Len(t, tree.Children, 1)
	assert.Equal(t, "Full Document", tree.Children[0].Title)
	assert.Contains(t, tree.Children[0].Text, "Hello there")
	assert.Contains(t, tree.Children[0].Text, "Second page")
}

func TestPDFParser_DetectsHeadingsAcrossPages(t *testing.T) {
	data := buildPDF(
		[]string{
			"INTRODUCTION",
			"This report covers the quarterly numbers for the northern region in detail.",
			"2 Results",
			"Revenue grew by twelve percent while costs stayed flat across all stores.",
		},
		[]string{
			"CONCLUSION",
			"The region is on track to meet its annual targets next year as planned.",
		},
	)

	tree, err := (&PDFParser{}).Parse(bytes.NewReader(data), "report.pdf")
	require.NoError(t, err)

	assert.Equal(t, 2, tree.PageCount)
	assert.Equal(t, []string{"INTRODUCTION", "2: Results", "CONCLUSION"}, sectionTitles(tree.Children))
	assert.Equal(t, 1, tree.Children[1].Page)
	assert.Equal(t, 2, tree.Children[2].Page)
	assert.Contains(t, tree.Children[2].Text, "annual targets")
}

func TestPDFParser_NotAPDF(t *testing.T) {
	_, err := (&PDFParser{}).Parse(strings.NewReader("plain text, no header"), "x.pdf")
	assert.Error(t, err)
}
