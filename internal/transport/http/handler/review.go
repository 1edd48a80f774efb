package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redditnobility/backend/internal/application/review"
	"github.com/redditnobility/backend/internal/transport/http/middleware"
)

// ReviewHandler handles the moderator review workflow.
type ReviewHandler struct {
	svc review.Service
}

func NewReviewHandler(svc review.Service) *ReviewHandler { return &ReviewHandler{svc: svc} }

// Candidate returns the named user, or the oldest unleased Found user when
// the path parameter is "next", together with their live Reddit profile.
func (h *ReviewHandler) Candidate(w http.ResponseWriter, r *http.Request) {
	candidate, err := h.svc.Candidate(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, candidate)
}

// Decide records the caller's verdict on a candidate. An optional title for
// the member rides along as a query parameter.
func (h *ReviewHandler) Decide(w http.ResponseWriter, r *http.Request) {
	reviewer, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	req := review.DecideRequest{
		Username: chi.URLParam(r, "username"),
		Decision: chi.URLParam(r, "decision"),
		Reviewer: reviewer.Username,
	}
	if title := r.URL.Query().Get("title"); title != "" {
		req.Title = &title
	}
	if err := h.svc.Decide(r.Context(), req); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "decision recorded"})
}

// Stats returns system-wide discovery/review counters.
func (h *ReviewHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
