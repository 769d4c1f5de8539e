package parser

import (
	"strings"

	"github.com/dgallion1/docchat/internal/doctree"
)

// outline builds a heading tree from a flat stream of headings and text
// blocks. Headings nest under the nearest preceding heading of a lower
// level; text attaches to the most recent heading.
type outline struct {
	stack   []outlineEntry
	root    *doctree.DocNode
	pending []string
}

type outlineEntry struct {
	node  *doctree.DocNode
	level int
}

func newOutline(title string) *outline {
	root := &doctree.DocNode{Title: title}
	return &outline{
		root:  root,
		stack: []outlineEntry{{node: root, level: 0}},
	}
}

func (o *outline) heading(level int, title string) {
	o.flush()
	node := &doctree.DocNode{Title: title}
	for len(o.stack) > 1 && o.stack[len(o.stack)-1].level >= level {
		o.stack = o.stack[:len(o.stack)-1]
	}
	parent := o.stack[len(o.stack)-1].node
	parent.Children = append(parent.Children, node)
	o.stack = append(o.stack, outlineEntry{node: node, level: level})
}

func (o *outline) text(t string) {
	if t = strings.TrimSpace(t); t != "" {
		o.pending = append(o.pending, t)
	}
}

func (o *outline) flush() {
	if len(o.pending) == 0 {
		return
	}
	t := strings.Join(o.pending, "\n\n")
	top := o.stack[len(o.stack)-1].node
	if top.Text != "" {
		top.Text += "\n\n" + t
	} else {
		top.Text = t
	}
	o.pending = o.pending[:0]
}

// children returns the top-level nodes. Text that appeared before any
// heading becomes an untitled leading node; a document without headings
// becomes a single untitled node.
func (o *outline) children() []*doctree.DocNode {
	o.flush()
	if o.root.Text == "" {
		return o.root.Children
	}
	lead := &doctree.DocNode{Text: o.root.Text}
	return append([]*doctree.DocNode{lead}, o.root.Children...)
}
