package doccontext

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxChunkChars is the soft size limit for paragraph-based chunks.
const MaxChunkChars = 2000

const (
	NoChunksTitle   = "No chunks found"
	NoChunksContent = "The document content couldn't be split into meaningful chunks. " +
		"This might indicate that the extraction process only captured headings or limited content."
)

const paragraphSep = "\n\n"

// ExtractChunks splits content into titled chunks. Section markers win when
// present; otherwise paragraphs are packed into chunks of at most
// MaxChunkChars characters. A paragraph longer than the limit is kept whole.
// Content with no text at all yields a single "No chunks found" chunk.
func ExtractChunks(content string) []Chunk {
	if sections := ScanSections(content); len(sections) > 0 {
		chunks := make([]Chunk, len(sections))
		for i, s := range sections {
			chunks[i] = Chunk{Title: s.Title, Content: strings.TrimSpace(s.Body)}
		}
		return chunks
	}

	chunks := packParagraphs(splitParagraphs(content), MaxChunkChars)
	if len(chunks) == 0 {
		return []Chunk{{Title: NoChunksTitle, Content: NoChunksContent}}
	}
	return chunks
}

// IsNoChunks reports whether chunks is the "No chunks found" result.
func IsNoChunks(chunks []Chunk) bool {
	return len(chunks) == 1 && chunks[0].Title == NoChunksTitle
}

// splitParagraphs splits on blank lines (empty or whitespace-only) and drops
// empty paragraphs.
func splitParagraphs(text string) []string {
	var paragraphs []string
	var lines []string
	flush := func() {
		if p := strings.TrimSpace(strings.Join(lines, "\n")); p != "" {
			paragraphs = append(paragraphs, p)
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
	return paragraphs
}

// packParagraphs folds paragraphs into chunks. The open chunk is a value that
// is replaced, never appended to in place, and is emitted when the next
// paragraph would push it over limit.
func packParagraphs(paragraphs []string, limit int) []Chunk {
	type state struct {
		done    []Chunk
		open    string
		openLen int
	}

	st := state{}
	for _, p := range paragraphs {
		pLen := utf8.RuneCountInString(p)
		switch {
		case st.open == "":
			st = state{done: st.done, open: p, openLen: pLen}
		case st.openLen+len(paragraphSep)+pLen > limit:
			st = state{
				done:    append(st.done, numberedChunk(len(st.done)+1, st.open)),
				open:    p,
				openLen: pLen,
			}
		default:
			st = state{
				done:    st.done,
				open:    st.open + paragraphSep + p,
				openLen: st.openLen + len(paragraphSep) + pLen,
			}
		}
	}
	if st.open != "" {
		st.done = append(st.done, numberedChunk(len(st.done)+1, st.open))
	}
	return st.done
}

func numberedChunk(n int, content string) Chunk {
	return Chunk{Title: fmt.Sprintf("Chunk %d", n), Content: content}
}
