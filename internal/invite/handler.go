package invite

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/invitio/invitio/backend-go/internal/auth"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create issues a guest token. Owner-only, behind auth middleware.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	projectID := mux.Vars(r)["projectId"]

	inv, err := h.service.Create(r.Context(), projectID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, inv)
}

// GetDocument serves the invitation document behind a guest token. Public.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	doc, err := h.service.Document(r.Context(), token)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

type saveRequest struct {
	Document json.RawMessage `json:"document"`
}

// SaveDocument overwrites the document behind a guest token. Public.
func (h *Handler) SaveDocument(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.Document) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document is required"})
		return
	}

	if err := h.service.Save(r.Context(), token, req.Document); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

type rsvpRequest struct {
	GuestName string `json:"guestName"`
	Choice    string `json:"choice"`
}

// SubmitRSVP records a guest answer. Public.
func (h *Handler) SubmitRSVP(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	var req rsvpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	rsvp, err := h.service.SubmitRSVP(r.Context(), token, req.GuestName, req.Choice)
	if err != nil {
		if errors.Is(err, ErrInvalidChoice) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "choice must be yes, no, or maybe"})
			return
		}
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, rsvp)
}

// ListRSVPs returns answers for the owner. Behind auth middleware.
func (h *Handler) ListRSVPs(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	projectID := mux.Vars(r)["projectId"]

	rsvps, err := h.service.ListRSVPs(r.Context(), projectID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rsvps)
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	default:
		slog.Error("invite service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
