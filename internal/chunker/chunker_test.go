package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docchat/internal/doccontext"
)

func section(title, body string) string {
	return "\n\n--- SECTION: " + title + " ---\n\n" + body + "\n\n"
}

func TestSplit_PlainTextPacksParagraphs(t *testing.T) {
	chunks := Split("alpha\n\nbeta", DefaultConfig())

	require.Len(t, chunks, 1)
	assert.Equal(t, doccontext.Chunk{Title: "Text Document", Content: "alpha\n\nbeta\n\n"}, chunks[0])
}

func TestSplit_EmptyText(t *testing.T) {
	chunks := Split("  \n", DefaultConfig())

	require.Len(t, chunks, 1)
	assert.Equal(t, "Full Document", chunks[0].Title)
}

func TestSplit_MergesSectionsThatFit(t *testing.T) {
	text := section("Intro", strings.Repeat("i", 150)) + section("Body", strings.Repeat("b", 150))

	chunks := Split(text, DefaultConfig())

	require.Len(t, chunks, 1)
	assert.Equal(t, "Intro", chunks[0].Title)
	assert.Contains(t, chunks[0].Content, "## Intro\n\n"+strings.Repeat("i", 150))
	assert.Contains(t, chunks[0].Content, "## Body\n\n"+strings.Repeat("b", 150))
}

func TestSplit_LeadingTextOpensDocumentStart(t *testing.T) {
	text := strings.Repeat("p", 250) + section("Next", "tail text")

	chunks := Split(text, DefaultConfig())

	require.Len(t, chunks, 1)
	assert.Equal(t, "Document Start", chunks[0].Title)
	assert.True(t, strings.HasPrefix(chunks[0].Content, strings.Repeat("p", 250)))
	assert.Contains(t, chunks[0].Content, "## Next\n\ntail text")
}

func TestSplit_OverlapCarriesIntoNextChunk(t *testing.T) {
	text := section("A", strings.Repeat("a", 200)) + section("B", strings.Repeat("b", 200))

	chunks := Split(text, Config{MaxChunkSize: 300, Overlap: 20})

	require.Len(t, chunks, 2)
	assert.Equal(t, "A", chunks[0].Title)
	assert.Equal(t, "B", chunks[1].Title)
	// The last 20 characters of "A" are 18 letters and the closing blank line.
	assert.True(t, strings.HasPrefix(chunks[1].Content, strings.Repeat("a", 18)+"\n\n\n\n## B"),
		"got %q", chunks[1].Content[:30])
}

func TestSplit_NoOverlap(t *testing.T) {
	text := section("A", strings.Repeat("a", 200)) + section("B", strings.Repeat("b", 200))

	chunks := Split(text, Config{MaxChunkSize: 300, Overlap: 0})

	require.Len(t, chunks, 2)
	assert.True(t, strings.HasPrefix(chunks[1].Content, "\n\n## B\n\n"))
}

func TestSplit_OversizedSectionContinues(t *testing.T) {
	p1, p2, p3 := strings.Repeat("x", 150), strings.Repeat("y", 150), strings.Repeat("z", 150)
	text := section("Big", p1+"\n\n"+p2+"\n\n"+p3)

	chunks := Split(text, Config{MaxChunkSize: 200, Overlap: 10})

	require.Len(t, chunks, 3)
	assert.Equal(t, "Big", chunks[0].Title)
	assert.Equal(t, "## Big\n\n"+p1+"\n\n", chunks[0].Content)
	assert.Equal(t, "Big (continued)", chunks[1].Title)
	assert.Equal(t, strings.Repeat("x", 8)+"\n\n"+p2+"\n\n", chunks[1].Content)
	assert.Equal(t, "Big (continued)", chunks[2].Title)
	assert.Equal(t, strings.Repeat("y", 8)+"\n\n"+p3+"\n\n", chunks[2].Content)
}

func TestSplit_LongParagraphBreaksAtSentences(t *testing.T) {
	text := strings.Repeat("Sentence number here. ", 20)

	chunks := Split(text, Config{MaxChunkSize: 100, Overlap: 0})

	require.Len(t, chunks, 5)
	total := 0
	for i, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Content), 100, "chunk %d", i)
		total += strings.Count(c.Content, "Sentence number here.")
	}
	assert.Equal(t, 20, total)
	assert.Equal(t, "Text Document", chunks[0].Title)
	assert.Equal(t, "Text Document (continued)", chunks[4].Title)
}

func TestSplit_TinySectionsFallBackToFullDocument(t *testing.T) {
	text := section("One", "short") + section("Two", "also short")

	chunks := Split(text, DefaultConfig())

	require.Len(t, chunks, 1)
	assert.Equal(t, doccontext.Chunk{Title: "Full Document", Content: text}, chunks[0])
}

func TestSplit_SkipsEmptySections(t *testing.T) {
	text := section("Empty", "") + section("Full", strings.Repeat("f", 250))

	chunks := Split(text, DefaultConfig())

	require.Len(t, chunks, 1)
	assert.Equal(t, "Full", chunks[0].Title)
	assert.NotContains(t, chunks[0].Content, "## Empty")
}

func TestConfigNormalize(t *testing.T) {
	assert.Equal(t, Config{MaxChunkSize: 5000}, Config{}.normalize())
	assert.Equal(t, Config{MaxChunkSize: 100, Overlap: 50}, Config{MaxChunkSize: 100, Overlap: 400}.normalize())
	assert.Equal(t, Config{MaxChunkSize: 100, Overlap: 0}, Config{MaxChunkSize: 100, Overlap: -1}.normalize())
}

func TestTail(t *testing.T) {
	assert.Equal(t, "", tail("abc", 0))
	assert.Equal(t, "abc", tail("abc", 5))
	assert.Equal(t, "çé", tail("aççé", 2))
}
