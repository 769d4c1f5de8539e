package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docchat/internal/doctree"
)

const defaultCSVBatchRows = 20

// CSVParser handles CSV files. Rows are grouped into titled sections of
// BatchRows rows each, every section repeating the header row.
type CSVParser struct {
	BatchRows int
}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	tree := &doctree.DocTree{
		Title: strings.TrimSuffix(filename, ".csv"),
	}

	if len(records) == 0 {
		return tree, nil
	}

	tree.Children = rowBatches("", records[0], records[1:], p.BatchRows)
	return tree, nil
}

// rowBatches groups data rows into titled nodes of batchSize rows, each
// repeating the header row. Titles count rows from 1 with the header as
// row 1, optionally prefixed by a sheet name.
func rowBatches(prefix string, headers []string, dataRows [][]string, batchSize int) []*doctree.DocNode {
	if batchSize <= 0 {
		batchSize = defaultCSVBatchRows
	}
	var nodes []*doctree.DocNode
	for i := 0; i < len(dataRows); i += batchSize {
		end := min(i+batchSize, len(dataRows))
		batch := dataRows[i:end]

		var text strings.Builder
		text.WriteString("Headers: " + strings.Join(headers, ", ") + "\n\n")
		for _, row := range batch {
			for j, cell := range row {
				if j < len(headers) {
					text.WriteString(headers[j] + ": " + cell)
				} else {
					text.WriteString(cell)
				}
				if j < len(row)-1 {
					text.WriteString(", ")
				}
			}
			text.WriteString("\n")
		}

		title := fmt.Sprintf("Rows %d to %d", i+2, end+1)
		if prefix != "" {
			title = prefix + ": " + title
		}
		nodes = append(nodes, &doctree.DocNode{Title: title, Text: text.String()})
	}
	return nodes
}
