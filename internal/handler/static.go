package handler

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
)

// IndexFile is the SPA entry document served for every unmatched path.
const IndexFile = "index.html"

// StaticHandler serves the frontend bundle with single-page-app fallback.
type StaticHandler struct {
	fsys     fs.FS
	files    http.Handler
	logger   *slog.Logger
	notFound http.HandlerFunc
}

// NewStaticHandler serves files from fsys. notFound is used when the bundle
// has no index.html.
func NewStaticHandler(fsys fs.FS, logger *slog.Logger, notFound http.HandlerFunc) *StaticHandler {
	return &StaticHandler{
		fsys:     fsys,
		files:    http.FileServerFS(fsys),
		logger:   logger,
		notFound: notFound,
	}
}

// ServeHTTP serves a regular file when the path names one, and the entry
// document otherwise.
// GET /*
func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name != "" && name != IndexFile && h.isFile(name) {
		h.files.ServeHTTP(w, r)
		return
	}
	h.serveIndex(w, r)
}

func (h *StaticHandler) isFile(name string) bool {
	info, err := fs.Stat(h.fsys, name)
	return err == nil && info.Mode().IsRegular()
}

// serveIndex writes index.html without the redirect http.ServeFile applies
// to paths ending in /index.html, so every fallback path gets the same body.
func (h *StaticHandler) serveIndex(w http.ResponseWriter, r *http.Request) {
	f, err := h.fsys.Open(IndexFile)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			h.logger.Error("failed to open entry document", slog.String("error", err.Error()))
		}
		h.notFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		h.logger.Error("failed to stat entry document", slog.String("error", err.Error()))
		h.notFound(w, r)
		return
	}

	content, ok := f.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(f)
		if err != nil {
			h.logger.Error("failed to read entry document", slog.String("error", err.Error()))
			h.notFound(w, r)
			return
		}
		content = bytes.NewReader(data)
	}

	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, IndexFile, info.ModTime(), content)
}
