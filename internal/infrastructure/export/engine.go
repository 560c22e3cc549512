package export

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Request describes one export
type Request struct {
	Format    Format
	Dataset   *Dataset
	Prefix    string
	Timestamp bool
	// Directory is where Export writes the artifact
	Directory string
}

// Artifact is a fully built export
type Artifact struct {
	Filename    string
	ContentType string
	Format      Format
	Data        []byte
	// Path is set once the artifact has been written to disk
	Path string
}

// Engine builds export artifacts from already-fetched data. It performs no
// network I/O except through the PDF renderer.
type Engine struct {
	renderer PDFRenderer
	planner  *Planner
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithRenderer sets the PDF renderer; without one PDF exports fail
func WithRenderer(r PDFRenderer) Option {
	return func(e *Engine) { e.renderer = r }
}

// WithLayout sets the PDF page layout
func WithLayout(l Layout) Option {
	return func(e *Engine) { e.planner = NewPlanner(l) }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock overrides the generation time source
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an export engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		planner: NewPlanner(A4Portrait()),
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Generate builds the artifact in memory
func (e *Engine) Generate(ctx context.Context, req Request) (*Artifact, error) {
	if req.Dataset == nil {
		req.Dataset = &Dataset{}
	}
	ds := *req.Dataset
	if ds.GeneratedAt.IsZero() {
		ds.GeneratedAt = e.now()
	}

	data, err := e.build(ctx, req.Format, &ds)
	if err != nil {
		e.logger.Error("Export failed", zap.String("format", string(req.Format)), zap.Error(err))
		return nil, err
	}

	artifact := &Artifact{
		Filename:    Filename(req.Prefix, req.Format, req.Timestamp, ds.GeneratedAt.In(ds.location())),
		ContentType: req.Format.ContentType(),
		Format:      req.Format,
		Data:        data,
	}
	e.logger.Info("Export generated",
		zap.String("format", string(req.Format)),
		zap.String("filename", artifact.Filename),
		zap.Int("bytes", len(data)),
		zap.Int("products", len(ds.Products)),
		zap.Int("transactions", len(ds.Transactions)),
		zap.Int("suppliers", len(ds.Suppliers)))
	return artifact, nil
}

// Export builds the artifact and writes it atomically into req.Directory
func (e *Engine) Export(ctx context.Context, req Request) (*Artifact, error) {
	if req.Directory == "" {
		return nil, exportError(req.Format, "write", ErrNoDirectory)
	}
	artifact, err := e.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	path, err := WriteFileAtomic(req.Directory, artifact.Filename, artifact.Data, 0o644)
	if err != nil {
		e.logger.Error("Export write failed", zap.String("directory", req.Directory), zap.Error(err))
		return nil, exportError(req.Format, "write", err)
	}
	artifact.Path = path
	return artifact, nil
}

func (e *Engine) build(ctx context.Context, format Format, ds *Dataset) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, exportError(format, "build", err)
	}

	switch format {
	case FormatExcel:
		data, err := BuildExcel(ds)
		if err != nil {
			return nil, exportError(format, "build workbook", err)
		}
		return data, nil

	case FormatCSV:
		data, err := BuildCSV(ds)
		if err != nil {
			return nil, exportError(format, "build csv", err)
		}
		return data, nil

	case FormatPDF:
		if e.renderer == nil {
			return nil, exportError(format, "render", ErrRendererUnavailable)
		}
		html, err := BuildHTML(ds, e.planner)
		if err != nil {
			return nil, exportError(format, "build document", err)
		}
		result, err := e.renderer.Render(ctx, &RenderRequest{
			HTML:   string(html),
			Title:  documentTitle(ds),
			Layout: e.planner.Layout(),
		})
		if err != nil {
			return nil, exportError(format, "render", err)
		}
		return result.PDFData, nil
	}
	return nil, exportError(format, "build", ErrUnsupportedFormat)
}
