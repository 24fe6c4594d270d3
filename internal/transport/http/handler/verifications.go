package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-verify-bot/internal/domain"
)

// evidenceURLTTL is how long a presigned evidence link stays valid.
const evidenceURLTTL = 15 * time.Minute

// PendingService is the part of the verification engine the review endpoints use.
type PendingService interface {
	GetPending(ctx context.Context, userID string) (*domain.PendingVerification, error)
	ListPending(ctx context.Context) []domain.PendingVerification
}

// EvidencePresigner issues temporary links to archived evidence.
type EvidencePresigner interface {
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// EvidenceLink is the response of the evidence endpoint.
type EvidenceLink struct {
	URL       string    `json:"url"`
	Archived  bool      `json:"archived"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// VerificationHandler exposes pending submissions to operators.
type VerificationHandler struct {
	svc       PendingService
	presigner EvidencePresigner
	now       func() time.Time
}

// NewVerificationHandler builds the handler. presigner may be nil when no archive is configured.
func NewVerificationHandler(svc PendingService, presigner EvidencePresigner) *VerificationHandler {
	return &VerificationHandler{svc: svc, presigner: presigner, now: time.Now}
}

func (h *VerificationHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	pending := h.svc.ListPending(r.Context())
	if pending == nil {
		pending = []domain.PendingVerification{}
	}
	writeJSON(w, http.StatusOK, DataEnvelope{Count: len(pending), Data: pending})
}

func (h *VerificationHandler) GetPending(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetPending(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Evidence returns a presigned archive link, or the platform URL when the image was not archived.
func (h *VerificationHandler) Evidence(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetPending(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		httpError(w, err)
		return
	}
	if p.EvidenceKey == "" || h.presigner == nil {
		writeJSON(w, http.StatusOK, EvidenceLink{URL: p.EvidenceURL})
		return
	}
	url, err := h.presigner.PresignedURL(r.Context(), p.EvidenceKey, evidenceURLTTL)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, EvidenceLink{URL: url, Archived: true, ExpiresAt: h.now().Add(evidenceURLTTL).UTC()})
}
