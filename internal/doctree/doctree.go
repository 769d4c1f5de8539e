package doctree

// DocTree is the root of a parsed document.
type DocTree struct {
	Title     string     // Document title (from metadata or filename)
	PageCount int        // Number of source pages, 0 if the format has none
	Children  []*DocNode // Top-level sections
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading (empty for leaf text)
	Text     string     // Text content of this node (may be empty for container nodes)
	Page     int        // Source page/line (0 if N/A)
	Children []*DocNode // Subsections
}

// Walk visits every node depth-first, passing the node's heading ancestry
// (including its own title when set).
func (t *DocTree) Walk(fn func(node *DocNode, breadcrumb []string)) {
	var walk func(nodes []*DocNode, parent []string)
	walk = func(nodes []*DocNode, parent []string) {
		for _, n := range nodes {
			bc := parent
			if n.Title != "" {
				bc = append(append([]string(nil), parent...), n.Title)
			}
			fn(n, bc)
			walk(n.Children, bc)
		}
	}
	walk(t.Children, nil)
}

// HasHeadings reports whether any node carries a title.
func (t *DocTree) HasHeadings() bool {
	found := false
	t.Walk(func(n *DocNode, _ []string) {
		if n.Title != "" {
			found = true
		}
	})
	return found
}
