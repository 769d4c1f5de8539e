package parser

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/dgallion1/docchat/internal/doctree"
)

const (
	startSectionTitle = "Document Start"
	fullSectionTitle  = "Full Document"

	// Below this many characters of section text the heading split is
	// considered unreliable and the whole text becomes one section.
	minSectionText = 100
	maxTitleLine   = 50
)

var (
	chapterHeadingRe  = regexp.MustCompile(`(?i)^(?:chapter|section)\s+(\d+(?:\.\d+)?)(?:\s*:\s*|\s+)(.+)$`)
	numberedHeadingRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s+(.+)$`)
	capsHeadingRe     = regexp.MustCompile(`^[A-Z][A-Z\s]{4,}$`)
	keywordHeadingRe  = regexp.MustCompile(`(?i)^(introduction|background|methodology|methods|results|discussion|conclusion|references|appendix)$`)
)

type pageLine struct {
	text string
	page int
}

// detectSections splits page text into titled sections by spotting heading
// lines. Text before the first heading goes to "Document Start"; sections
// that share a title are merged in order of first appearance.
func detectSections(pages []string) []*doctree.DocNode {
	var lines []pageLine
	var full strings.Builder
	for i, page := range pages {
		if i > 0 {
			full.WriteString("\n\n")
		}
		full.WriteString(page)
		for _, l := range strings.Split(page, "\n") {
			lines = append(lines, pageLine{text: l, page: i + 1})
		}
	}
	fullText := strings.TrimSpace(full.String())
	if fullText == "" {
		return nil
	}
	if len(fullText) < minSectionText {
		return []*doctree.DocNode{{Title: fullSectionTitle, Text: fullText, Page: 1}}
	}

	start := &doctree.DocNode{Title: startSectionTitle, Page: 1}
	nodes := []*doctree.DocNode{start}
	byTitle := map[string]*doctree.DocNode{startSectionTitle: start}
	current := start
	texts := map[*doctree.DocNode]*strings.Builder{start: {}}

	for idx, l := range lines {
		line := strings.TrimSpace(l.text)
		if line == "" {
			continue
		}
		hasNext := idx < len(lines)-1
		if title, ok := headingTitle(line, idx > 0, hasNext); ok {
			node, seen := byTitle[title]
			if !seen {
				node = &doctree.DocNode{Title: title, Page: l.page}
				nodes = append(nodes, node)
				byTitle[title] = node
				texts[node] = &strings.Builder{}
			}
			current = node
			continue
		}
		sb := texts[current]
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	total := 0
	for _, n := range nodes {
		n.Text = strings.TrimSpace(texts[n].String())
		total += len(n.Text)
	}
	if total < minSectionText || len(nodes) <= 1 {
		return []*doctree.DocNode{{Title: fullSectionTitle, Text: fullText, Page: 1}}
	}
	if start.Text == "" {
		nodes = nodes[1:]
	}
	return nodes
}

// headingTitle decides whether a trimmed, non-empty line is a heading and
// returns the section title to use for it.
func headingTitle(line string, hasPrev, hasNext bool) (string, bool) {
	if m := chapterHeadingRe.FindStringSubmatch(line); m != nil {
		return fmt.Sprintf("%s: %s", m[1], strings.TrimSpace(m[2])), true
	}
	if m := numberedHeadingRe.FindStringSubmatch(line); m != nil {
		return fmt.Sprintf("%s: %s", m[1], strings.TrimSpace(m[2])), true
	}
	if capsHeadingRe.MatchString(line) {
		return strings.TrimSpace(line), true
	}
	if m := keywordHeadingRe.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	if hasPrev && hasNext && len(line) < maxTitleLine && isTitleCase(line) {
		return line, true
	}
	return "", false
}

// isTitleCase reports whether every word starts with an upper-case letter
// followed only by lower-case letters, ignoring non-letters.
func isTitleCase(s string) bool {
	sawLetter := false
	prevLetter := false
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			if prevLetter {
				return false
			}
			sawLetter, prevLetter = true, true
		case unicode.IsLower(r):
			if !prevLetter {
				return false
			}
			sawLetter, prevLetter = true, true
		default:
			prevLetter = false
		}
	}
	return sawLetter
}
