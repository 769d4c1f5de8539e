// Package doccontext turns uploaded document text into inspectable chunks and
// into the bounded context string attached to chat requests.
package doccontext

// Document is an uploaded document's extracted text. It is never mutated
// after creation.
type Document struct {
	ID        string `json:"file_id"`
	Name      string `json:"filename"`
	Content   string `json:"text_content"`
	ByteSize  int64  `json:"bytes"`
	PageCount *int   `json:"page_count,omitempty"`
}

// Chunk is a labelled slice of a document, derived on demand.
type Chunk struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Section is one recognized "--- SECTION: <name> ---" marker and the text
// that follows it.
type Section struct {
	Title string // Trimmed marker label.
	Body  string // Text after the marker, untrimmed.
	Raw   string // Marker plus body, exactly as it appears in the source.
}
