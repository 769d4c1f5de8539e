package doctree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWalk_Breadcrumbs(t *testing.T) {
	tree := &DocTree{
		Children: []*DocNode{
			{
				Title: "Chapter 1",
				Children: []*DocNode{
					{Title: "Section 1.1", Text: "a"},
					{Text: "untitled"},
				},
			},
			{Title: "Chapter 2", Text: "b"},
		},
	}

	var got []string
	tree.Walk(func(n *DocNode, bc []string) {
		got = append(got, strings.Join(bc, " > "))
	})

	assert.Equal(t, []string{"Chapter 1", "Chapter 1 > Section 1.1", "Chapter 1", "Chapter 2"}, got)
}

func TestHasHeadings(t *testing.T) {
	plain := &DocTree{Children: []*DocNode{{Text: "one"}, {Text: "two"}}}
	assert.False(t, plain.HasHeadings())

	titled := &DocTree{Children: []*DocNode{{Children: []*DocNode{{Title: "Deep"}}}}}
	assert.True(t, titled.HasHeadings(), "nested heading")
}
