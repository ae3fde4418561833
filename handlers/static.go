package handlers

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"cubecubic/metrics"
)

var mimeTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".m4a":  "audio/mp4",
	".json": "application/json",
	".html": "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "application/javascript; charset=utf-8",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".svg":  "image/svg+xml",
}

const (
	noStore        = "no-cache, no-store, must-revalidate"
	staticMaxAge   = "public, max-age=86400"
	defaultMIME    = "application/octet-stream"
	notFoundText   = "Not found"
	rangeUnitBytes = "bytes="
)

var errUnsatisfiable = errors.New("range not satisfiable")

func mimeType(name string) string {
	if t, ok := mimeTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return t
	}
	return defaultMIME
}

// byteRange is an inclusive range within a file.
type byteRange struct {
	start, end int64
}

func (r byteRange) length() int64 {
	return r.end - r.start + 1
}

// parseRange reads a single "bytes=start-end", "bytes=start-" or
// "bytes=-suffix" range. An end past the file is rejected rather than
// clamped, and multiple ranges are not supported.
func parseRange(header string, size int64) (byteRange, error) {
	if !strings.HasPrefix(header, rangeUnitBytes) {
		return byteRange{}, errUnsatisfiable
	}
	bounds := strings.TrimSpace(strings.TrimPrefix(header, rangeUnitBytes))
	if strings.Contains(bounds, ",") {
		return byteRange{}, errUnsatisfiable
	}
	startText, endText, ok := strings.Cut(bounds, "-")
	if !ok {
		return byteRange{}, errUnsatisfiable
	}
	startText = strings.TrimSpace(startText)
	endText = strings.TrimSpace(endText)

	if startText == "" {
		suffix, err := strconv.ParseInt(endText, 10, 64)
		if err != nil || suffix <= 0 || size == 0 {
			return byteRange{}, errUnsatisfiable
		}
		if suffix > size {
			suffix = size
		}
		return byteRange{start: size - suffix, end: size - 1}, nil
	}

	start, err := strconv.ParseInt(startText, 10, 64)
	if err != nil || start < 0 {
		return byteRange{}, errUnsatisfiable
	}
	end := size - 1
	if endText != "" {
		end, err = strconv.ParseInt(endText, 10, 64)
		if err != nil {
			return byteRange{}, errUnsatisfiable
		}
	}
	if start > end || end >= size {
		return byteRange{}, errUnsatisfiable
	}
	return byteRange{start: start, end: end}, nil
}

// resolve maps a URL path onto a file under the public directory. It refuses
// dot files and private paths.
func (m *Manager) resolve(urlPath string) (string, bool) {
	clean := path.Clean("/" + urlPath)
	for _, segment := range strings.Split(clean, "/") {
		if strings.HasPrefix(segment, ".") {
			return "", false
		}
	}
	full := filepath.Join(m.options.PublicDir, filepath.FromSlash(clean))
	abs, err := filepath.Abs(full)
	if err != nil {
		return "", false
	}
	for _, p := range m.private {
		if abs == p || strings.HasPrefix(abs, p+string(filepath.Separator)) {
			return "", false
		}
	}
	return full, true
}

func openRegular(name string) (*os.File, fs.FileInfo, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, fs.ErrNotExist
	}
	return f, info, nil
}

// handleMedia streams audio with byte-range support so players can seek.
func (m *Manager) handleMedia(c *gin.Context) {
	name, ok := m.resolve(m.options.MediaPrefix + path.Clean("/"+c.Param("filepath")))
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	f, info, err := openRegular(name)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	defer f.Close()

	size := info.Size()
	h := c.Writer.Header()
	h.Set("Content-Type", mimeType(name))
	h.Set("Accept-Ranges", "bytes")

	header := c.GetHeader("Range")
	if header == "" {
		metrics.IncRangeRequest("full")
		h.Set("Content-Length", strconv.FormatInt(size, 10))
		c.Status(http.StatusOK)
		m.copyBody(c, f, size)
		return
	}

	r, err := parseRange(header, size)
	if err != nil {
		metrics.IncRangeRequest("unsatisfiable")
		h.Del("Content-Type")
		h.Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		c.Status(http.StatusRequestedRangeNotSatisfiable)
		return
	}
	if _, err := f.Seek(r.start, io.SeekStart); err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	metrics.IncRangeRequest("partial")
	h.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", r.start, r.end, size))
	h.Set("Content-Length", strconv.FormatInt(r.length(), 10))
	c.Status(http.StatusPartialContent)
	m.copyBody(c, f, r.length())
}

func (m *Manager) copyBody(c *gin.Context, r io.Reader, n int64) {
	if c.Request.Method == http.MethodHead {
		c.Writer.WriteHeaderNow()
		return
	}
	written, err := io.CopyN(c.Writer, r, n)
	metrics.AddMediaBytes(written)
	if err != nil {
		m.logger.WithError(err).WithField("path", c.Request.URL.Path).Debug("Media copy ended early")
	}
}

// handleStatic serves files from the public directory and falls back to the
// index document for anything else.
func (m *Manager) handleStatic(c *gin.Context) {
	method := c.Request.Method
	if method != http.MethodGet && method != http.MethodHead {
		respondWithError(c, http.StatusNotFound, notFoundText, "NOT_FOUND")
		return
	}

	if name, ok := m.resolve(c.Request.URL.Path); ok {
		if f, info, err := openRegular(name); err == nil {
			defer f.Close()
			m.serveFile(c, f, info, name)
			return
		}
	}

	index, ok := m.resolve(m.options.IndexFile)
	if ok {
		if f, info, err := openRegular(index); err == nil {
			defer f.Close()
			c.Writer.Header().Set("Cache-Control", "no-cache")
			m.serveFile(c, f, info, index)
			return
		}
	}
	c.String(http.StatusNotFound, notFoundText)
}

func (m *Manager) serveFile(c *gin.Context, f io.Reader, info fs.FileInfo, name string) {
	h := c.Writer.Header()
	h.Set("Content-Type", mimeType(name))
	if h.Get("Content-Encoding") == "" {
		h.Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	}
	if h.Get("Cache-Control") == "" {
		switch strings.ToLower(filepath.Ext(name)) {
		case ".json":
			h.Set("Cache-Control", noStore)
		case ".html":
			h.Set("Cache-Control", "no-cache")
		default:
			h.Set("Cache-Control", staticMaxAge)
		}
	}
	c.Status(http.StatusOK)
	if c.Request.Method == http.MethodHead {
		c.Writer.WriteHeaderNow()
		return
	}
	if _, err := io.Copy(c.Writer, f); err != nil {
		m.logger.WithError(err).WithField("path", c.Request.URL.Path).Debug("Static copy ended early")
	}
}

// handleCatalogFile serves the saved catalog document from disk, never
// cached. Unsaved edits are not visible here.
func (m *Manager) handleCatalogFile(c *gin.Context) {
	data, err := os.ReadFile(m.Store.Path())
	if err != nil {
		c.String(http.StatusNotFound, notFoundText)
		return
	}
	c.Header("Cache-Control", noStore)
	if c.Request.Method == http.MethodHead {
		c.Header("Content-Type", "application/json")
		c.Header("Content-Length", strconv.Itoa(len(data)))
		c.Status(http.StatusOK)
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

// handleCatalogPost replaces the catalog with the posted document.
func (m *Manager) handleCatalogPost(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		respondWithBadRequest(c, "Failed to read body")
		return
	}
	if err := m.Admin.ReplaceDocument(c.Request.Context(), body); err != nil {
		respondWithDomainError(c, err)
		return
	}
	m.afterCatalogChange()
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
