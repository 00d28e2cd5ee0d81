package http

import (
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"

	"github.com/cmlabs-hris/cafe-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/export"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/storage"
	"github.com/go-chi/chi/v5"
)

// FileHandler serves generated files such as payroll exports from storage.
type FileHandler interface {
	Serve(w http.ResponseWriter, r *http.Request)
}

type fileHandlerImpl struct {
	files storage.FileStorage
}

func NewFileHandler(files storage.FileStorage) FileHandler {
	return &fileHandlerImpl{files: files}
}

func (h *fileHandlerImpl) Serve(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")

	rc, err := h.files.Download(r.Context(), key)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if path.Ext(key) == ".xlsx" {
		contentType = export.XLSXMimeType
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+path.Base(key)+`"`)

	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("file download interrupted", "path", key, "error", err)
	}
}
