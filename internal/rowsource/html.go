package rowsource

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"callsift/pkg/records"
)

// ReadHTMLTable parses the first table matched by selector into rows.
//
// The header row is the table's <th> cells when present, otherwise the
// first <tr>'s <td> cells. Body rows with a cell count different from
// the header are skipped, mirroring the CSV reader's best-effort
// behavior.
func ReadHTMLTable(r io.Reader, selector string) ([]*records.Row, error) {
	if strings.TrimSpace(selector) == "" {
		selector = "table"
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	table := doc.Find(selector).First()
	if table.Length() == 0 {
		return nil, nil
	}

	var headers []string
	headerFromTH := true
	table.Find("th").Each(func(_ int, cell *goquery.Selection) {
		headers = append(headers, strings.TrimSpace(cell.Text()))
	})
	if len(headers) == 0 {
		headerFromTH = false
		table.Find("tr").First().Find("td").Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, strings.TrimSpace(cell.Text()))
		})
	}
	if len(headers) == 0 {
		return nil, nil
	}

	var rows []*records.Row
	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		if !headerFromTH && i == 0 {
			return
		}

		var cells []string
		tr.Find("td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		if len(cells) != len(headers) {
			return
		}

		row := records.NewRow(len(headers))
		for j, h := range headers {
			row.Set(h, cells[j])
		}
		rows = append(rows, row)
	})
	return rows, nil
}
