package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docchat/internal/doccontext"
)

// Config controls sized chunking. Sizes are in characters.
type Config struct {
	MaxChunkSize int // Upper bound for a chunk's content.
	Overlap      int // Trailing characters of a chunk repeated at the start of the next.
}

// DefaultConfig returns the sizes used when a request names none.
func DefaultConfig() Config {
	return Config{
		MaxChunkSize: 5000,
		Overlap:      200,
	}
}

const (
	fullDocumentTitle  = "Full Document"
	startTitle         = "Document Start"
	textDocumentTitle  = "Text Document"
	continuedSuffix    = " (continued)"
	minMeaningfulChunk = 200
	paragraphSep       = "\n\n"
)

// Split groups a marked-up document into chunks of roughly MaxChunkSize
// characters. Consecutive sections are merged while they fit; a new chunk
// starts with the last Overlap characters of the previous one. A chunk that
// still exceeds the limit is split on paragraphs into "<title> (continued)"
// chunks. Text without section markers is packed by paragraph under
// "Text Document".
func Split(text string, cfg Config) []doccontext.Chunk {
	cfg = cfg.normalize()

	sections := doccontext.ScanSections(text)
	if len(sections) == 0 {
		if strings.TrimSpace(text) == "" {
			return []doccontext.Chunk{{Title: fullDocumentTitle, Content: text}}
		}
		return splitParagraphs(textDocumentTitle, text, cfg)
	}

	chunks := mergeSections(text, sections, cfg)
	if allSmall(chunks) {
		return []doccontext.Chunk{{Title: fullDocumentTitle, Content: text}}
	}

	var result []doccontext.Chunk
	for _, c := range chunks {
		if runeLen(c.Content) > cfg.MaxChunkSize {
			result = append(result, splitParagraphs(c.Title, c.Content, cfg)...)
			continue
		}
		result = append(result, c)
	}
	return result
}

func (c Config) normalize() Config {
	d := DefaultConfig()
	if c.MaxChunkSize <= 0 {
		c.MaxChunkSize = d.MaxChunkSize
	}
	if c.Overlap < 0 {
		c.Overlap = 0
	}
	if c.Overlap >= c.MaxChunkSize {
		c.Overlap = c.MaxChunkSize / 2
	}
	return c
}

// mergeSections folds sections into chunks in source order. Text before the
// first marker opens a "Document Start" chunk; otherwise a chunk is titled
// after its first section. Sections with no body are skipped.
func mergeSections(text string, sections []doccontext.Section, cfg Config) []doccontext.Chunk {
	current := doccontext.Chunk{Title: startTitle}
	if lead := text[:strings.Index(text, sections[0].Raw)]; strings.TrimSpace(lead) != "" {
		current.Content = lead
	}

	var chunks []doccontext.Chunk
	for _, s := range sections {
		body := strings.TrimSpace(s.Body)
		if body == "" {
			continue
		}
		formatted := paragraphSep + "## " + s.Title + paragraphSep + body + paragraphSep
		if current.Content == "" {
			current.Title = s.Title
		}

		if current.Content != "" && runeLen(current.Content)+runeLen(formatted) > cfg.MaxChunkSize {
			chunks = append(chunks, current)
			current = doccontext.Chunk{
				Title:   s.Title,
				Content: tail(current.Content, cfg.Overlap) + formatted,
			}
			continue
		}
		current.Content += formatted
	}
	if current.Content != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// splitParagraphs packs paragraphs greedily. Every chunk after the first is
// titled "<title> (continued)" and starts with the overlap. A paragraph
// longer than the limit on its own is broken at sentence ends.
func splitParagraphs(title, text string, cfg Config) []doccontext.Chunk {
	var result []doccontext.Chunk
	var current strings.Builder
	chunkTitle := title
	// added is false while current holds only carried-over overlap.
	added := false

	emit := func() {
		result = append(result, doccontext.Chunk{Title: chunkTitle, Content: current.String()})
		overlap := tail(current.String(), cfg.Overlap)
		current.Reset()
		current.WriteString(overlap)
		chunkTitle = title + continuedSuffix
		added = false
	}

	sep := len(paragraphSep)
	for _, para := range paragraphs(text) {
		for _, part := range fitParagraph(para, cfg.MaxChunkSize-sep) {
			if added && runeLen(current.String())+runeLen(part)+sep > cfg.MaxChunkSize {
				emit()
			}
			current.WriteString(part)
			current.WriteString(paragraphSep)
			added = true
		}
	}
	if added {
		result = append(result, doccontext.Chunk{Title: chunkTitle, Content: current.String()})
	}
	return result
}

// paragraphs splits on blank lines, dropping empty paragraphs.
func paragraphs(text string) []string {
	var out []string
	var lines []string
	flush := func() {
		if p := strings.TrimSpace(strings.Join(lines, "\n")); p != "" {
			out = append(out, p)
		}
		lines = lines[:0]
	}
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		lines = append(lines, line)
	}
	flush()
	return out
}

// fitParagraph returns para unchanged when it fits, otherwise its sentences
// regrouped into pieces of at most limit characters. A single sentence
// longer than limit stays whole.
func fitParagraph(para string, limit int) []string {
	if runeLen(para) <= limit {
		return []string{para}
	}
	var parts []string
	var current strings.Builder
	for _, sent := range splitSentences(para) {
		if current.Len() > 0 && runeLen(current.String())+1+runeLen(sent) > limit {
			parts = append(parts, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sent)
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

// splitSentences breaks after '.', '!' or '?' when followed by a space.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func allSmall(chunks []doccontext.Chunk) bool {
	for _, c := range chunks {
		if runeLen(c.Content) >= minMeaningfulChunk {
			return false
		}
	}
	return true
}

// tail returns the last n characters of s.
func tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
