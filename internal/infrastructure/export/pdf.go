package export

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"unicode/utf8"

	"github.com/stockmgmt/dashboard/internal/domain/report"
)

// Layout describes the page geometry used to plan page breaks, in millimetres
type Layout struct {
	PageWidth       float64
	PageHeight      float64
	Margin          float64
	TitleHeight     float64
	HeaderHeight    float64
	LineHeight      float64
	CellPadding     float64
	SectionGap      float64
	CharWidth       float64 // average glyph width at the table font size
	MinSectionSpace float64 // below this, a section starts on a new page
}

// A4Portrait is the default layout
func A4Portrait() Layout {
	return Layout{
		PageWidth:       210,
		PageHeight:      297,
		Margin:          15,
		TitleHeight:     10,
		HeaderHeight:    8,
		LineHeight:      4.2,
		CellPadding:     2.4,
		SectionGap:      6,
		CharWidth:       1.6,
		MinSectionSpace: 40,
	}
}

// Landscape swaps the page dimensions
func (l Layout) Landscape() Layout {
	l.PageWidth, l.PageHeight = l.PageHeight, l.PageWidth
	return l
}

func (l Layout) usableHeight() float64 { return l.PageHeight - 2*l.Margin }
func (l Layout) usableWidth() float64  { return l.PageWidth - 2*l.Margin }

// PlannedSection is a section with its page-break decision
type PlannedSection struct {
	Section
	BreakBefore bool
	Tint        string
}

// Planner estimates row heights and decides where sections start
type Planner struct {
	layout Layout
}

// NewPlanner creates a planner for layout
func NewPlanner(layout Layout) *Planner {
	return &Planner{layout: layout}
}

// Layout returns the planner's page layout
func (p *Planner) Layout() Layout {
	return p.layout
}

// RowHeight estimates the rendered height of a row: the tallest cell after
// wrapping its text into an equal share of the usable width.
func (p *Planner) RowHeight(row []Cell, columns int) float64 {
	if columns <= 0 {
		columns = 1
	}
	perLine := int(math.Max(1, math.Floor(p.layout.usableWidth()/float64(columns)/p.layout.CharWidth)))
	lines := 1
	for _, cell := range row {
		n := utf8.RuneCountInString(cell.String())
		if l := (n + perLine - 1) / perLine; l > lines {
			lines = l
		}
	}
	return float64(lines)*p.layout.LineHeight + p.layout.CellPadding
}

// Plan walks the sections in order, tracking the vertical space left on the
// current page. A section is moved to a new page when the space left cannot
// hold its title, header and first row, or is below MinSectionSpace.
func (p *Planner) Plan(sections []Section) []PlannedSection {
	usable := p.layout.usableHeight()
	remaining := usable
	planned := make([]PlannedSection, 0, len(sections))

	for i, s := range sections {
		need := p.layout.TitleHeight + p.layout.HeaderHeight
		if len(s.Rows) > 0 {
			need += p.RowHeight(s.Rows[0], len(s.Columns))
		}

		ps := PlannedSection{Section: s, Tint: "#" + tint(s.Entity)}
		if i > 0 && (remaining < need || remaining < p.layout.MinSectionSpace) {
			ps.BreakBefore = true
			remaining = usable
		}

		remaining -= p.layout.TitleHeight + p.layout.HeaderHeight
		for _, row := range s.Rows {
			h := p.RowHeight(row, len(s.Columns))
			if h > remaining {
				// the table flows onto a new page and repeats its header
				remaining = usable - p.layout.HeaderHeight
			}
			remaining -= h
		}
		remaining -= p.layout.SectionGap

		planned = append(planned, ps)
	}
	return planned
}

var documentTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"odd":     func(i int) bool { return i%2 == 1 },
	"numeric": func(c Cell) bool { return c.IsNumeric() },
	"mm":      func(v float64) string { return fmt.Sprintf("%.1fmm", v) },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
  @page { size: {{mm .Layout.PageWidth}} {{mm .Layout.PageHeight}}; margin: {{mm .Layout.Margin}}; }
  body { font-family: "Helvetica Neue", Arial, sans-serif; font-size: 8pt; color: #111827; margin: 0; }
  h1 { font-size: 14pt; margin: 0 0 2mm 0; }
  .generated { color: #6b7280; margin-bottom: 5mm; }
  h2 { font-size: 11pt; margin: 0 0 2mm 0; }
  section { margin-bottom: {{mm .Layout.SectionGap}}; }
  section.break { page-break-before: always; break-before: page; }
  table { width: 100%; border-collapse: collapse; table-layout: fixed; }
  thead { display: table-header-group; }
  th, td { border: 0.2mm solid #d1d5db; padding: 1mm; text-align: left; vertical-align: top; word-wrap: break-word; }
  tr { page-break-inside: avoid; }
  tr.alt td { background: #f9fafb; }
  td.num { text-align: right; }
  .empty { color: #6b7280; font-style: italic; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div class="generated">Generated: {{.Generated}}</div>
{{range .Sections}}
<section class="{{if .BreakBefore}}break{{end}}" data-entity="{{.Entity}}">
  <h2>{{.Title}}</h2>
  <table>
    <thead>
      <tr>{{$tint := .Tint}}{{range .Columns}}<th style="background: {{$tint}}">{{.}}</th>{{end}}</tr>
    </thead>
    <tbody>
    {{- range $i, $row := .Rows}}
      <tr{{if odd $i}} class="alt"{{end}}>{{range $row}}<td{{if numeric .}} class="num"{{end}}>{{.String}}</td>{{end}}</tr>
    {{- else}}
      <tr><td class="empty" colspan="{{len .Columns}}">No records</td></tr>
    {{- end}}
    </tbody>
  </table>
</section>
{{end}}
</body>
</html>
`))

type documentView struct {
	Title     string
	Generated string
	Layout    Layout
	Sections  []PlannedSection
}

// BuildHTML lays the dataset out as a printable HTML document
func BuildHTML(ds *Dataset, planner *Planner) ([]byte, error) {
	view := documentView{
		Title:     documentTitle(ds),
		Generated: report.FormatDateTime(ds.GeneratedAt.In(ds.location())),
		Layout:    planner.Layout(),
		Sections:  planner.Plan(ds.Sections()),
	}
	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}
	return buf.Bytes(), nil
}
