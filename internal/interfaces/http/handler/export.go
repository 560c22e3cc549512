package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/stockmgmt/dashboard/internal/application/appstate"
	"github.com/stockmgmt/dashboard/internal/application/inventory"
	"github.com/stockmgmt/dashboard/internal/infrastructure/export"
	"github.com/stockmgmt/dashboard/internal/infrastructure/storage"
	"github.com/stockmgmt/dashboard/internal/interfaces/http/dto"
)

// ArtifactReader opens stored export artifacts for download
type ArtifactReader interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// ExportResponse describes an export kept in the artifact store
type ExportResponse struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Key         string `json:"key"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
}

// ExportHandler builds CSV, Excel and PDF exports
type ExportHandler struct {
	BaseHandler
	svc       ExportService
	artifacts ArtifactReader
	notify    Notifier
}

// NewExportHandler creates an ExportHandler. artifacts and notify may be nil;
// without artifacts Download answers 404.
func NewExportHandler(svc ExportService, artifacts ArtifactReader, notify Notifier) *ExportHandler {
	return &ExportHandler{svc: svc, artifacts: artifacts, notify: notify}
}

// Export builds the requested export. The file is sent as an attachment
// unless store=true, in which case the stored artifact is described.
func (h *ExportHandler) Export(c *gin.Context) {
	var q dto.ExportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	var window dto.ListQuery
	if err := c.ShouldBindQuery(&window); err != nil {
		h.BindError(c, err)
		return
	}

	format, err := export.ParseFormat(q.Format)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	entities, err := inventory.ParseEntities(q.EntityNames())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	filter := window.Filter()
	filter.Page, filter.PerPage = 0, 0
	req := inventory.ExportRequest{
		Format:            format,
		Entities:          entities,
		Prefix:            q.Prefix,
		Timestamp:         q.Timestamp == nil || *q.Timestamp,
		TransactionFilter: filter,
		Store:             q.Store,
	}
	res, err := h.svc.Export(c.Request.Context(), req)
	if err != nil {
		if h.notify != nil {
			h.notify.Push(appstate.LevelError, "Export failed: "+err.Error(), 0)
		}
		h.HandleError(c, err)
		return
	}
	if h.notify != nil {
		h.notify.Push(appstate.LevelSuccess, "Exported "+res.Artifact.Filename, 0)
	}

	if res.Stored != nil {
		h.Created(c, ExportResponse{
			Filename:    res.Artifact.Filename,
			ContentType: res.Artifact.ContentType,
			Key:         res.Stored.Key,
			URL:         res.Stored.URL,
			Size:        res.Stored.Size,
		})
		return
	}
	c.Header("Content-Disposition", contentDisposition(res.Artifact.Filename))
	c.Data(http.StatusOK, res.Artifact.ContentType, res.Artifact.Data)
}

// Download streams a stored artifact
func (h *ExportHandler) Download(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if h.artifacts == nil {
		h.NotFound(c, "Export storage is not enabled")
		return
	}
	rc, err := h.artifacts.Open(c.Request.Context(), key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		h.NotFound(c, "Export not found")
		return
	case errors.Is(err, storage.ErrInvalidKey):
		h.BadRequest(c, "Invalid export key")
		return
	case err != nil:
		h.HandleError(c, err)
		return
	}
	defer rc.Close()

	contentType := "application/octet-stream"
	if f, err := export.ParseFormat(path.Ext(key)); err == nil {
		contentType = f.ContentType()
	}
	c.DataFromReader(http.StatusOK, -1, contentType, rc, map[string]string{
		"Content-Disposition": contentDisposition(path.Base(key)),
	})
}

// contentDisposition names an attachment. Non-ASCII names get an ASCII
// fallback plus an RFC 5987 filename* parameter.
func contentDisposition(filename string) string {
	var fallback strings.Builder
	ascii := true
	for _, r := range filename {
		switch {
		case r == '"' || r == '\\':
		case r < 0x20 || r == 0x7f:
			fallback.WriteByte('_')
		case r > unicode.MaxASCII:
			ascii = false
			fallback.WriteByte('_')
		default:
			fallback.WriteRune(r)
		}
	}
	header := `attachment; filename="` + fallback.String() + `"`
	if !ascii {
		header += "; filename*=UTF-8''" + encodeExtValue(filename)
	}
	return header
}

// encodeExtValue percent-encodes every byte outside the RFC 5987 attr-char set
func encodeExtValue(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAttrChar(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isAttrChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("!#$&+-.^_`|~", c) >= 0
}
