package fetcher

import (
	"bytes"
	"context"
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// odsNode is a generic OpenDocument table element. Tables, row groups, rows
// and cells all decode into it; Children keeps document order.
type odsNode struct {
	XMLName   xml.Name
	Name      string         `xml:"name,attr"`
	RowRepeat int            `xml:"number-rows-repeated,attr"`
	ColRepeat int            `xml:"number-columns-repeated,attr"`
	ValueType string         `xml:"value-type,attr"`
	Value     string         `xml:"value,attr"`
	Text      []odsParagraph `xml:"p"`
	Children  []odsNode      `xml:",any"`
}

// odsParagraph is the text of one <text:p>, flattened in document order.
type odsParagraph struct {
	Text string
}

// UnmarshalXML keeps text inside spans and links where it appears and
// expands the <text:s>, <text:tab> and <text:line-break> whitespace markers.
func (p *odsParagraph) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var b strings.Builder
	depth := 0
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "s":
				b.WriteString(strings.Repeat(" ", spaceCount(t)))
			case "tab":
				b.WriteByte('\t')
			case "line-break":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			if depth == 0 {
				p.Text = b.String()
				return nil
			}
			depth--
		}
	}
}

// spaceCount reads the text:c attribute of a <text:s> run.
func spaceCount(se xml.StartElement) int {
	for _, a := range se.Attr {
		if a.Name.Local == "c" {
			if n, err := strconv.Atoi(a.Value); err == nil && n > 0 {
				return n
			}
		}
	}
	return 1
}

// ReadODS parses OpenDocument spreadsheet contents and returns the selected
// sheet's rows as string slices. Numeric cells yield their stored value
// rather than the formatted display text.
func ReadODS(ctx context.Context, data []byte, opts SheetOptions) ([][]string, error) {
	content, err := ReadZIPEntry(data, "content.xml")
	if err != nil {
		return nil, eris.Wrap(err, "ods: open document")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tableCh, errCh := streamTables(ctx, bytes.NewReader(content))

	var found *odsNode
	count := 0
	for t := range tableCh {
		if found == nil && sheetMatches(t, count, opts) {
			table := t
			found = &table
			cancel()
		}
		count++
	}
	streamErr := <-errCh

	if found == nil {
		if streamErr != nil {
			return nil, eris.Wrap(streamErr, "ods: parse content")
		}
		if opts.SheetName != "" {
			return nil, eris.Errorf("ods: sheet %q not found", opts.SheetName)
		}
		return nil, eris.Errorf("ods: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, count)
	}

	rows := tableRows(*found)
	if opts.SkipRows >= len(rows) {
		return nil, nil
	}
	return rows[opts.SkipRows:], nil
}

func sheetMatches(t odsNode, index int, opts SheetOptions) bool {
	if opts.SheetName != "" {
		return t.Name == opts.SheetName
	}
	return index == opts.SheetIndex
}

// tableRows expands repeated rows and cells. Blank rows are only kept when
// a non-blank row follows them, and trailing blank cells are dropped, so the
// padding that spreadsheet tools write to the sheet edge never materialises.
func tableRows(table odsNode) [][]string {
	var rows [][]string
	pendingBlank := 0

	var walk func(n odsNode)
	walk = func(n odsNode) {
		for _, child := range n.Children {
			switch child.XMLName.Local {
			case "table-row":
				cells := rowCells(child)
				repeat := max(child.RowRepeat, 1)
				if len(cells) == 0 {
					pendingBlank += repeat
					continue
				}
				for ; pendingBlank > 0; pendingBlank-- {
					rows = append(rows, []string{})
				}
				for range repeat {
					rows = append(rows, append([]string(nil), cells...))
				}
			case "table-header-rows", "table-row-group", "table-rows":
				walk(child)
			}
		}
	}
	walk(table)

	return rows
}

func rowCells(row odsNode) []string {
	var cells []string
	pendingBlank := 0
	for _, c := range row.Children {
		if c.XMLName.Local != "table-cell" && c.XMLName.Local != "covered-table-cell" {
			continue
		}
		repeat := max(c.ColRepeat, 1)
		value := cellValue(c)
		if value == "" {
			pendingBlank += repeat
			continue
		}
		for ; pendingBlank > 0; pendingBlank-- {
			cells = append(cells, "")
		}
		for range repeat {
			cells = append(cells, value)
		}
	}
	return cells
}

func cellValue(c odsNode) string {
	switch c.ValueType {
	case "float", "percentage", "currency":
		if c.Value != "" {
			return c.Value
		}
	}

	parts := make([]string, 0, len(c.Text))
	for _, p := range c.Text {
		parts = append(parts, p.Text)
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}
