// Package asset stores uploaded invitation images on disk and serves them
// back with immutable caching. Every upload gets a downscaled thumbnail so
// slide strips and share previews stay light.
package asset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/invitio/invitio/backend-go/internal/typeid"
)

const (
	// maxUploadSize is inclusive: a file of exactly 10MB is accepted.
	maxUploadSize = 10 << 20

	// multipart framing rides on top of the file bytes.
	maxRequestSize = maxUploadSize + (1 << 20)

	thumbMaxEdge = 320
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// UploadResponse is returned from the upload endpoint.
type UploadResponse struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Type         string `json:"type"`
	Name         string `json:"name"`
}

// Handler serves asset upload and retrieval endpoints.
type Handler struct {
	dir string
}

// NewHandler creates an asset handler that stores files in dir.
func NewHandler(dir string) *Handler {
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("create asset dir", "error", err, "dir", dir)
	}
	return &Handler{dir: dir}
}

// Upload handles POST /images/upload (multipart form with "image" field).
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)

	if err := r.ParseMultipartForm(maxRequestSize); err != nil {
		http.Error(w, "file too large (max 10MB)", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "missing image field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		http.Error(w, "file too large (max 10MB)", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read file", http.StatusBadRequest)
		return
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowedTypes[contentType]
	if !ok {
		http.Error(w, "only JPEG, PNG, GIF, and WebP images are supported", http.StatusBadRequest)
		return
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		http.Error(w, "invalid image: "+err.Error(), http.StatusBadRequest)
		return
	}

	assetID := typeid.NewAssetID()
	filename := assetID + ext
	if err := os.WriteFile(filepath.Join(h.dir, filename), data, 0644); err != nil {
		slog.Error("write asset file", "error", err)
		http.Error(w, "failed to save file", http.StatusInternalServerError)
		return
	}

	thumbName, err := h.writeThumbnail(assetID, data)
	if err != nil {
		// The original survives; the client falls back to it.
		slog.Warn("thumbnail failed", "error", err, "asset", assetID)
	}

	resp := UploadResponse{
		ID:     assetID,
		URL:    fmt.Sprintf("/assets/%s", filename),
		Width:  cfg.Width,
		Height: cfg.Height,
		Type:   contentType,
		Name:   header.Filename,
	}
	if thumbName != "" {
		resp.ThumbnailURL = fmt.Sprintf("/assets/%s", thumbName)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// writeThumbnail downscales the image so its longest edge is thumbMaxEdge
// and stores it as JPEG. Animated GIFs keep only their first frame.
func (h *Handler) writeThumbnail(assetID string, data []byte) (string, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}

	b := src.Bounds()
	w, ht := b.Dx(), b.Dy()
	if w <= thumbMaxEdge && ht <= thumbMaxEdge {
		return "", nil // already small enough, no thumb needed
	}

	scale := float64(thumbMaxEdge) / float64(w)
	if ht > w {
		scale = float64(thumbMaxEdge) / float64(ht)
	}
	tw := int(float64(w) * scale)
	th := int(float64(ht) * scale)
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)

	thumbName := assetID + "_thumb.jpg"
	out, err := os.Create(filepath.Join(h.dir, thumbName))
	if err != nil {
		return "", fmt.Errorf("create: %w", err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, dst, &jpeg.Options{Quality: 82}); err != nil {
		os.Remove(filepath.Join(h.dir, thumbName))
		return "", fmt.Errorf("encode: %w", err)
	}
	return thumbName, nil
}

// Serve returns an http.Handler that serves stored asset files with caching
// headers. Asset IDs are unique, so files are immutable.
func (h *Handler) Serve() http.Handler {
	fs := http.FileServer(http.Dir(h.dir))
	return http.StripPrefix("/assets/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	}))
}

// Delete removes an asset and its thumbnail from disk.
func (h *Handler) Delete(assetID string) error {
	removed := false
	for _, ext := range []string{".jpg", ".png", ".gif", ".webp", "_thumb.jpg"} {
		if err := os.Remove(filepath.Join(h.dir, assetID+ext)); err == nil {
			removed = true
		}
	}
	if !removed {
		return fmt.Errorf("asset not found: %s", assetID)
	}
	return nil
}
