package export

import (
	"bytes"
	"encoding/csv"
	"strings"

	"github.com/stockmgmt/dashboard/internal/domain/report"
)

// DefaultTitle heads every document that has no title of its own
const DefaultTitle = "Inventory Report"

// BuildCSV writes a banner followed by one titled section per table.
// Sections are separated by a blank line.
func BuildCSV(ds *Dataset) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	blank := func() error {
		w.Flush()
		if err := w.Error(); err != nil {
			return err
		}
		buf.WriteByte('\n')
		return nil
	}

	if err := w.Write([]string{documentTitle(ds)}); err != nil {
		return nil, err
	}
	if err := w.Write([]string{"Generated: " + report.FormatDateTime(ds.GeneratedAt.In(ds.location()))}); err != nil {
		return nil, err
	}

	for _, section := range ds.Sections() {
		if err := blank(); err != nil {
			return nil, err
		}
		if err := w.Write([]string{section.Title}); err != nil {
			return nil, err
		}
		if err := w.Write(section.Columns); err != nil {
			return nil, err
		}
		for _, row := range section.Rows {
			record := make([]string, len(row))
			for i, cell := range row {
				record[i] = cell.String()
			}
			if err := w.Write(record); err != nil {
				return nil, err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func documentTitle(ds *Dataset) string {
	if t := strings.TrimSpace(ds.Title); t != "" {
		return t
	}
	return DefaultTitle
}
