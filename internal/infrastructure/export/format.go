package export

import (
	"fmt"
	"strings"
	"time"
)

// DefaultPrefix is used when the caller gives no filename prefix
const DefaultPrefix = "inventory_report"

// Format is an export output format
type Format string

const (
	FormatExcel Format = "xlsx"
	FormatCSV   Format = "csv"
	FormatPDF   Format = "pdf"
)

// ParseFormat accepts a format name or extension, case-insensitive
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "xlsx", "excel":
		return FormatExcel, nil
	case "csv":
		return FormatCSV, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Extension returns the file extension without the dot
func (f Format) Extension() string {
	return string(f)
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	switch f {
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// Filename builds {prefix}_{YYYY-MM-DD}.{ext} when timestamp is set, else
// {prefix}.{ext}. An empty prefix becomes DefaultPrefix.
func Filename(prefix string, format Format, timestamp bool, at time.Time) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if timestamp {
		return prefix + "_" + at.Format("2006-01-02") + "." + format.Extension()
	}
	return prefix + "." + format.Extension()
}
