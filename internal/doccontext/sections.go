package doccontext

import "strings"

const (
	SectionPrefix = "--- SECTION: "
	SectionSuffix = " ---"
)

// ScanSections finds every well-formed section marker in content and returns
// the sections in source order. A section runs from its marker up to the
// next well-formed marker or the end of content; text before the first
// marker belongs to no section.
//
// A label is well-formed when it is at least one character long and contains
// neither '-' nor a line break, so the closing " ---" always starts right
// before the first dash after the prefix. The scan is a single forward pass.
func ScanSections(content string) []Section {
	type marker struct {
		start     int
		bodyStart int
		title     string
	}

	var markers []marker
	pos := 0
	for pos < len(content) {
		i := strings.Index(content[pos:], SectionPrefix)
		if i < 0 {
			break
		}
		start := pos + i
		labelStart := start + len(SectionPrefix)
		pos = labelStart

		k := strings.IndexAny(content[labelStart:], "-\n")
		if k < 1 || content[labelStart+k] != '-' {
			continue
		}
		labelEnd := labelStart + k - 1
		if labelEnd <= labelStart || !strings.HasPrefix(content[labelEnd:], SectionSuffix) {
			continue
		}
		bodyStart := labelEnd + len(SectionSuffix)
		markers = append(markers, marker{
			start:     start,
			bodyStart: bodyStart,
			title:     strings.TrimSpace(content[labelStart:labelEnd]),
		})
		pos = bodyStart
	}

	if len(markers) == 0 {
		return nil
	}

	sections := make([]Section, len(markers))
	for i, m := range markers {
		end := len(content)
		if i+1 < len(markers) {
			end = markers[i+1].start
		}
		sections[i] = Section{
			Title: m.title,
			Body:  content[m.bodyStart:end],
			Raw:   content[m.start:end],
		}
	}
	return sections
}

// HasSections reports whether content carries at least one section marker.
func HasSections(content string) bool {
	return len(ScanSections(content)) > 0
}
