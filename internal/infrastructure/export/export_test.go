package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockmgmt/dashboard/internal/domain/report"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var generatedAt = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func product(name string, qty int64) stock.Product {
	return stock.Product{
		ID:            uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		Name:          name,
		SKU:           "SKU-1",
		Category:      "Tools",
		UnitPrice:     decimal.RequireFromString("12.5"),
		MinStockLevel: 10,
		CurrentStock:  qty,
		Supplier:      &stock.SupplierRef{Name: "Acme"},
		Status:        stock.ProductStatusActive,
		CreatedAt:     generatedAt.Add(-48 * time.Hour),
		UpdatedAt:     generatedAt.Add(-time.Hour),
	}
}

func products(n int) []stock.Product {
	out := make([]stock.Product, n)
	for i := range out {
		out[i] = product("Widget", 5)
	}
	return out
}

func transaction() stock.Transaction {
	return stock.Transaction{
		ID:              uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		ProductName:     "Widget",
		ProductSKU:      "SKU-1",
		TransactionType: stock.TransactionTypeStockOut,
		Quantity:        3,
		UnitPrice:       decimal.RequireFromString("12.5"),
		TotalAmount:     decimal.RequireFromString("999"),
		TransactionDate: generatedAt,
		CreatedAt:       generatedAt,
	}
}

func supplier() stock.Supplier {
	return stock.Supplier{
		ID:           uuid.MustParse("33333333-3333-3333-3333-333333333333"),
		Name:         "Acme",
		Status:       stock.SupplierStatusActive,
		ProductCount: 2,
		TotalValue:   decimal.RequireFromString("1000"),
		CreatedAt:    generatedAt,
	}
}

func fullDataset() *Dataset {
	stats := report.Statistics(products(2), []stock.Transaction{transaction()})
	return &Dataset{
		GeneratedAt:  generatedAt,
		Products:     []stock.Product{product(`Widget, "Deluxe"`, 5)},
		Transactions: []stock.Transaction{transaction()},
		Suppliers:    []stock.Supplier{supplier()},
		Statistics:   &stats,
	}
}

func TestDataset_Sections(t *testing.T) {
	t.Run("order and statistics", func(t *testing.T) {
		sections := fullDataset().Sections()
		require.Len(t, sections, 4)
		assert.Equal(t, []Entity{EntityProducts, EntityTransactions, EntitySuppliers, EntityStatistics},
			[]Entity{sections[0].Entity, sections[1].Entity, sections[2].Entity, sections[3].Entity})
	})

	t.Run("empty collections are skipped", func(t *testing.T) {
		sections := (&Dataset{Suppliers: []stock.Supplier{supplier()}}).Sections()
		require.Len(t, sections, 1)
		assert.Equal(t, EntitySuppliers, sections[0].Entity)
	})

	t.Run("empty dataset keeps the product header", func(t *testing.T) {
		ds := &Dataset{}
		assert.True(t, ds.IsEmpty())
		sections := ds.Sections()
		require.Len(t, sections, 1)
		assert.Equal(t, ProductColumns, sections[0].Columns)
		assert.Empty(t, sections[0].Rows)
	})
}

func TestProductSection_Cells(t *testing.T) {
	row := ProductSection([]stock.Product{product("Widget", 5)}, time.UTC).Rows[0]
	require.Len(t, row, len(ProductColumns))

	assert.Equal(t, int64(5), row[5].Value, "quantity stays numeric")
	assert.Equal(t, 12.5, row[7].Value, "unit price stays numeric")
	assert.Equal(t, "62.50", row[8].Value, "total value is a fixed-2 string")
	assert.Equal(t, "Active", row[9].Value)
	assert.Equal(t, "Acme", row[10].Value)
	assert.Equal(t, "2024-05-30 12:00:00", row[11].Value)
}

func TestTransactionSection_RecomputesTotal(t *testing.T) {
	row := TransactionSection([]stock.Transaction{transaction()}, time.UTC).Rows[0]
	assert.Equal(t, "Stock Out", row[3].Value)
	assert.Equal(t, 37.5, row[6].Value)
}

func TestCell_String(t *testing.T) {
	assert.Equal(t, "", Cell{}.String())
	assert.Equal(t, "42", Cell{Value: int64(42)}.String())
	assert.Equal(t, "3.50", Cell{Value: 3.5}.String())
	assert.Equal(t, "x", Cell{Value: "x"}.String())
}

func TestBuildExcel(t *testing.T) {
	data, err := BuildExcel(fullDataset())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Products", "Transactions", "Suppliers", "Statistics"}, f.GetSheetList())

	rows, err := f.GetRows("Products")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, ProductColumns, rows[0])
	assert.Equal(t, `Widget, "Deluxe"`, rows[1][1])
	assert.Equal(t, "5", rows[1][5])
	assert.Equal(t, "62.50", rows[1][8])

	stats, err := f.GetRows("Statistics")
	require.NoError(t, err)
	assert.Equal(t, []string{"Metric", "Value"}, stats[0])
	assert.Equal(t, []string{"Total Products", "2"}, stats[1])
}

func TestBuildExcel_EmptyDataset(t *testing.T) {
	data, err := BuildExcel(&Dataset{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Products"}, f.GetSheetList())
	rows, err := f.GetRows("Products")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, ProductColumns, rows[0])
}

func TestBuildCSV(t *testing.T) {
	ds := fullDataset()
	ds.Title = "Quarterly Stock"
	data, err := BuildCSV(ds)
	require.NoError(t, err)

	out := string(data)
	lines := strings.Split(out, "\n")
	assert.Equal(t, "Quarterly Stock", lines[0])
	assert.Equal(t, "Generated: 2024-06-01 12:00:00", lines[1])
	assert.Equal(t, "", lines[2])
	assert.Equal(t, "Products", lines[3])
	assert.Equal(t, strings.Join(ProductColumns, ","), lines[4])
	assert.Contains(t, lines[5], `"Widget, ""Deluxe"""`)
	assert.Equal(t, "", lines[6], "sections are separated by a blank line")
	assert.Equal(t, "Transactions", lines[7])

	// every section body parses back as standard CSV
	r := csv.NewReader(strings.NewReader(strings.Join(lines[4:6], "\n")))
	records, err := r.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, `Widget, "Deluxe"`, records[1][1])
}

func TestBuildCSV_EmptyDataset(t *testing.T) {
	data, err := BuildCSV(&Dataset{GeneratedAt: generatedAt})
	require.NoError(t, err)
	assert.Equal(t,
		"Inventory Report\nGenerated: 2024-06-01 12:00:00\n\nProducts\n"+strings.Join(ProductColumns, ",")+"\n",
		string(data))
}

// simpleSection has n single-line rows
func simpleSection(entity Entity, n int) Section {
	rows := make([][]Cell, n)
	for i := range rows {
		rows[i] = []Cell{{Value: "x"}, {Value: int64(i)}}
	}
	return Section{Entity: entity, Title: entity.Title(), Columns: []string{"A", "B"}, Rows: rows}
}

func TestPlanner_Plan(t *testing.T) {
	planner := NewPlanner(A4Portrait())
	next := simpleSection(EntityTransactions, 1)

	// usable height 267mm; title+header 18mm; single-line rows 6.6mm; gap 6mm
	t.Run("room left keeps the section on the page", func(t *testing.T) {
		plan := planner.Plan([]Section{simpleSection(EntityProducts, 30), next})
		require.Len(t, plan, 2)
		assert.False(t, plan[0].BreakBefore)
		assert.False(t, plan[1].BreakBefore)
	})

	t.Run("too little room forces a break", func(t *testing.T) {
		plan := planner.Plan([]Section{simpleSection(EntityProducts, 33), next})
		assert.False(t, plan[0].BreakBefore, "the first section never breaks")
		assert.True(t, plan[1].BreakBefore)
	})

	t.Run("overflowing table restarts the page count", func(t *testing.T) {
		// 40 rows spill onto a second page, leaving plenty of room there
		plan := planner.Plan([]Section{simpleSection(EntityProducts, 40), next})
		assert.False(t, plan[1].BreakBefore)
	})

	t.Run("tints differ per entity", func(t *testing.T) {
		plan := planner.Plan(fullDataset().Sections())
		seen := map[string]bool{}
		for _, s := range plan {
			seen[s.Tint] = true
		}
		assert.Len(t, seen, 4)
	})
}

func TestPlanner_RowHeight_Wraps(t *testing.T) {
	planner := NewPlanner(A4Portrait())
	short := planner.RowHeight([]Cell{{Value: "a"}}, 2)
	long := planner.RowHeight([]Cell{{Value: strings.Repeat("x", 200)}}, 2)
	assert.Greater(t, long, short)
}

func TestBuildHTML(t *testing.T) {
	ds := fullDataset()
	ds.Products = products(10) // tall rows: the id column wraps
	html, err := BuildHTML(ds, NewPlanner(A4Portrait()))
	require.NoError(t, err)

	out := string(html)
	assert.Contains(t, out, "<h2>Products</h2>")
	assert.Contains(t, out, "#DBEAFE")
	assert.Contains(t, out, "#DCFCE7")
	assert.Contains(t, out, `class="alt"`)
	assert.Contains(t, out, `class="break"`)
}

type mockRenderer struct {
	mock.Mock
}

func (m *mockRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*RenderResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRenderer) Close() error { return nil }

func TestEngine_Generate(t *testing.T) {
	engine := NewEngine(WithClock(func() time.Time { return generatedAt }))

	artifact, err := engine.Generate(context.Background(), Request{
		Format:    FormatCSV,
		Dataset:   &Dataset{Products: products(1)},
		Timestamp: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "inventory_report_2024-06-01.csv", artifact.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", artifact.ContentType)
	assert.Contains(t, string(artifact.Data), "Generated: 2024-06-01 12:00:00")
}

func TestEngine_PDF(t *testing.T) {
	renderer := &mockRenderer{}
	renderer.On("Render", mock.Anything, mock.MatchedBy(func(req *RenderRequest) bool {
		return strings.Contains(req.HTML, "<h2>Products</h2>") && req.Layout.PageWidth == 210
	})).Return(&RenderResult{PDFData: []byte("%PDF-1.4"), PageCount: 1}, nil)

	engine := NewEngine(WithRenderer(renderer))
	artifact, err := engine.Generate(context.Background(), Request{Format: FormatPDF, Dataset: fullDataset(), Prefix: "stock"})
	require.NoError(t, err)
	assert.Equal(t, "stock.pdf", artifact.Filename)
	assert.Equal(t, []byte("%PDF-1.4"), artifact.Data)
	renderer.AssertExpectations(t)
}

func TestEngine_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("no renderer", func(t *testing.T) {
		_, err := NewEngine().Generate(ctx, Request{Format: FormatPDF})
		var ee *ExportError
		require.ErrorAs(t, err, &ee)
		assert.Equal(t, FormatPDF, ee.Format)
		assert.ErrorIs(t, err, ErrRendererUnavailable)
	})

	t.Run("unsupported format", func(t *testing.T) {
		_, err := NewEngine().Generate(ctx, Request{Format: "docx"})
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("render failure leaves no file", func(t *testing.T) {
		dir := t.TempDir()
		renderer := &mockRenderer{}
		renderer.On("Render", mock.Anything, mock.Anything).
			Return(nil, NewRenderError(ErrCodeRenderFailed, "boom", errors.New("chrome crashed")))

		_, err := NewEngine(WithRenderer(renderer)).Export(ctx, Request{Format: FormatPDF, Directory: dir})
		var ee *ExportError
		require.ErrorAs(t, err, &ee)
		var re *RenderError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, ErrCodeRenderFailed, re.Code)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := NewEngine().Generate(cctx, Request{Format: FormatCSV})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := NewEngine().Export(ctx, Request{Format: FormatCSV})
		assert.ErrorIs(t, err, ErrNoDirectory)
	})
}

func TestEngine_Export_WritesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	engine := NewEngine(WithClock(func() time.Time { return generatedAt }))

	artifact, err := engine.Export(context.Background(), Request{Format: FormatExcel, Dataset: fullDataset(), Directory: dir})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "inventory_report.xlsx"), artifact.Path)

	onDisk, err := os.ReadFile(artifact.Path)
	require.NoError(t, err)
	assert.Equal(t, artifact.Data, onDisk)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFilename(t *testing.T) {
	tests := []struct {
		prefix    string
		format    Format
		timestamp bool
		want      string
	}{
		{"", FormatExcel, false, "inventory_report.xlsx"},
		{"", FormatCSV, true, "inventory_report_2024-06-01.csv"},
		{"  stock ", FormatPDF, true, "stock_2024-06-01.pdf"},
		{"stock", FormatPDF, false, "stock.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Filename(tt.prefix, tt.format, tt.timestamp, generatedAt))
		})
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"xlsx": FormatExcel, "Excel": FormatExcel, ".csv": FormatCSV, "PDF": FormatPDF} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("docx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestWriteFileAtomic_Replaces(t *testing.T) {
	dir := t.TempDir()
	_, err := WriteFileAtomic(dir, "a.csv", []byte("one"), 0o644)
	require.NoError(t, err)
	path, err := WriteFileAtomic(dir, "a.csv", []byte("two"), 0o644)
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))
}

func TestCountPages(t *testing.T) {
	pdf := []byte("<< /Type /Pages /Count 2 >> << /Type /Page >> << /Type /Page >>")
	assert.Equal(t, 2, countPages(pdf))
	assert.Equal(t, 1, countPages([]byte("%PDF")))
}
