package doccontext

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanSections_SourceOrder(t *testing.T) {
	input := "preamble\n\n--- SECTION: Intro ---\n\nHello.\n\n--- SECTION: Methods ---\n\nWe measured.\n"

	sections := ScanSections(input)
	require.Len(t, sections, 2)

	assert.Equal(t, "Intro", sections[0].Title)
	assert.Equal(t, "Methods", sections[1].Title)
	assert.Equal(t, "--- SECTION: Intro ---\n\nHello.\n\n", sections[0].Raw)
	assert.Equal(t, "\n\nWe measured.\n", sections[1].Body)
}

func TestScanSections_PreambleIgnored(t *testing.T) {
	sections := ScanSections("before\n--- SECTION: A ---\nbody")

	require.Len(t, sections, 1)
	assert.NotContains(t, sections[0].Raw, "before")
}

func TestScanSections_NoMarkers(t *testing.T) {
	assert.Nil(t, ScanSections("just text\n\nmore text"))
	assert.False(t, HasSections(""))
}

func TestScanSections_CaseSensitive(t *testing.T) {
	assert.False(t, HasSections("--- section: Intro ---\nbody"))
}

func TestScanSections_MalformedLabels(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"dash in label", "--- SECTION: Q1-Q2 ---\nbody"},
		{"empty label", "--- SECTION:  ---\nbody"},
		{"line break in label", "--- SECTION: Intro\nmore ---\nbody"},
		{"no closing marker", "--- SECTION: Intro\nbody"},
		{"missing space before close", "--- SECTION: Intro---\nbody"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, ScanSections(tt.input))
		})
	}
}

func TestScanSections_MalformedMarkerStaysInPreviousBody(t *testing.T) {
	input := "--- SECTION: A ---\nalpha\n--- SECTION: Q1-Q2 ---\nbeta\n--- SECTION: B ---\ngamma"

	sections := ScanSections(input)
	require.Len(t, sections, 2)

	assert.Contains(t, sections[0].Body, "beta")
	assert.Equal(t, "B", sections[1].Title)
}

func TestScanSections_WhitespaceLabelTrimmed(t *testing.T) {
	sections := ScanSections("--- SECTION:   Results   ---\nx")

	require.Len(t, sections, 1)
	assert.Equal(t, "Results", sections[0].Title)
}

func TestScanSections_MarkerAtEnd(t *testing.T) {
	sections := ScanSections("--- SECTION: A ---\nbody\n--- SECTION: B ---")

	require.Len(t, sections, 2)
	assert.Empty(t, sections[1].Body)
}

func TestScanSections_LargeUnclosedInputTerminates(t *testing.T) {
	input := strings.Repeat("--- SECTION: x", 20000)

	assert.Empty(t, ScanSections(input))
}
