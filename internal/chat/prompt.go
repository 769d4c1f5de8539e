package chat

import "strings"

const assistantInstruction = "You are a helpful assistant that answers questions about documents. " +
	"When answering questions about documents, ALWAYS reference the specific sections from the document to support your answer."

const contextPreamble = "\n\nHere are the document(s) to reference when answering questions. " +
	"Each section is marked with '--- SECTION: [Section Name] ---'. " +
	"Use these section names in your answers when referring to specific parts of the document:\n\n"

// BuildInstruction returns the system message. The document preamble and
// context are appended only when a context is present.
func BuildInstruction(docContext string, ok bool) string {
	if !ok {
		return assistantInstruction
	}
	var b strings.Builder
	b.Grow(len(assistantInstruction) + len(contextPreamble) + len(docContext))
	b.WriteString(assistantInstruction)
	b.WriteString(contextPreamble)
	b.WriteString(docContext)
	return b.String()
}
