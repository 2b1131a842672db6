package share

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/invitio/invitio/backend-go/internal/shortlink"
)

// Handler serves the share surface: shortening, resolution, and QR codes.
type Handler struct {
	links  *shortlink.Store
	origin string
}

func NewHandler(links *shortlink.Store, viewerOrigin string) *Handler {
	return &Handler{links: links, origin: strings.TrimRight(viewerOrigin, "/")}
}

type shortenRequest struct {
	Payload string `json:"payload"`
}

type shortenResponse struct {
	Token    string `json:"token"`
	ShortURL string `json:"shortUrl"`
}

// Shorten stores a share payload behind a /s/<token> URL. The payload is
// validated by decoding before it is stored.
func (h *Handler) Shorten(w http.ResponseWriter, r *http.Request) {
	var req shortenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.Payload) > HardPayloadLimit {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "payload too large"})
		return
	}
	if _, err := DecodeState(req.Payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "payload is not a valid share state"})
		return
	}

	token, err := h.links.Create(r.Context(), req.Payload)
	if err != nil {
		slog.Error("shorten failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusCreated, shortenResponse{
		Token:    token,
		ShortURL: h.origin + "/s/" + token,
	})
}

// Resolve redirects /s/<token> to the full fragment viewer URL.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	payload, err := h.links.Resolve(r.Context(), token)
	if err != nil {
		if errors.Is(err, shortlink.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.Error("resolve failed", "error", err, "token", token)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, h.origin+"/?view=1#d="+payload, http.StatusFound)
}

// QR renders a PNG QR code for a viewer URL passed as ?url=.
func (h *Handler) QR(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		http.Error(w, "url parameter is required", http.StatusBadRequest)
		return
	}
	// Only viewer links from our own origin get encoded.
	if !strings.HasPrefix(target, h.origin+"/") {
		http.Error(w, "url must point at the viewer", http.StatusBadRequest)
		return
	}

	size := DefaultQRSize
	if s := r.URL.Query().Get("size"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 64 && n <= 1024 {
			size = n
		}
	}

	png, err := QRPNG(target, size)
	if err != nil {
		slog.Error("qr encode failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(png)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
