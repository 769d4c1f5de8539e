package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docchat/internal/doctree"
	"github.com/xuri/excelize/v2"
)

// XLSXParser handles Excel workbooks. Each sheet is treated like a CSV
// file whose first row holds the headers; sections are titled
// "<sheet>: Rows a to b".
type XLSXParser struct {
	BatchRows int
}

func (p *XLSXParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	tree := &doctree.DocTree{
		Title:     strings.TrimSuffix(filename, ".xlsx"),
		PageCount: len(sheets),
	}

	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		rows = dropEmptyRows(rows)
		if len(rows) == 0 {
			continue
		}
		tree.Children = append(tree.Children, rowBatches(sheet, rows[0], rows[1:], p.BatchRows)...)
	}
	return tree, nil
}

func dropEmptyRows(rows [][]string) [][]string {
	out := rows[:0]
	for _, row := range rows {
		if strings.TrimSpace(strings.Join(row, "")) != "" {
			out = append(out, row)
		}
	}
	return out
}
