package parser

import (
	"io"
	"strings"

	"github.com/dgallion1/docchat/internal/doctree"
)

// TextParser handles plain text files. Text files are never split into
// titled sections; each paragraph becomes an untitled node.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	// Read whole: a single line may be as long as the upload limit.
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	tree := &doctree.DocTree{
		Title:     strings.TrimSuffix(filename, ".txt"),
		PageCount: 1,
	}

	var current []string
	flush := func() {
		if len(current) == 0 {
			return
		}
		tree.Children = append(tree.Children, &doctree.DocNode{
			Text: strings.Join(current, "\n"),
			Page: 1,
		})
		current = current[:0]
	}

	for line := range strings.Lines(string(src)) {
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()

	return tree, nil
}
