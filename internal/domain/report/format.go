package report

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Display layouts shared by the views and the export engine
const (
	DisplayDateLayout     = "2006-01-02"
	DisplayDateTimeLayout = "2006-01-02 15:04:05"
)

var (
	numberPrinter = message.NewPrinter(language.English)
	titleCaser    = cases.Title(language.English)
)

// FormatCurrency renders a monetary amount: 1234.5 -> "$1,234.50", -12 -> "-$12.00"
func FormatCurrency(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + FormatDecimal(d.Abs(), 2)
	}
	return "$" + FormatDecimal(d, 2)
}

// FormatDecimal renders d with places decimals and thousands separators
func FormatDecimal(d decimal.Decimal, places int32) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	fixed := d.StringFixed(places)
	intPart, fracPart, hasFrac := strings.Cut(fixed, ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(fracPart)
	}
	return b.String()
}

// FormatNumber renders an integer with thousands separators
func FormatNumber(n int64) string {
	return numberPrinter.Sprintf("%d", n)
}

// FormatPercent renders an already-scaled percentage: 12.5 -> "12.5%"
func FormatPercent(d decimal.Decimal) string {
	return d.Round(2).String() + "%"
}

// FormatDate renders the calendar date, or "" for the zero time
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DisplayDateLayout)
}

// FormatDateTime renders date and time, or "" for the zero time
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DisplayDateTimeLayout)
}

// Titleize turns an enum value into a label: "out_of_stock" -> "Out Of Stock"
func Titleize(s string) string {
	return titleCaser.String(strings.ReplaceAll(s, "_", " "))
}
