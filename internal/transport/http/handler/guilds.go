package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-verify-bot/internal/application/verification"
	"github.com/go-verify-bot/internal/domain"
)

// GuildConfigService is the part of the verification engine the guild endpoints use.
type GuildConfigService interface {
	GetGuildConfig(ctx context.Context, guildID string) (*domain.GuildVerificationConfig, error)
	SetGuildConfig(ctx context.Context, cfg domain.GuildVerificationConfig) error
	Stats(ctx context.Context, guildID string) verification.Stats
}

// GuildConfigInput is the PUT body; the guild id comes from the path.
type GuildConfigInput struct {
	VerificationChannelID string `json:"verification_channel_id"`
	VerifiedRoleID        string `json:"verified_role_id"`
	AdminRoleID           string `json:"admin_role_id"`
	Enabled               *bool  `json:"enabled"`
}

// GuildHandler handles per-guild verification configuration.
type GuildHandler struct {
	svc GuildConfigService
}

func NewGuildHandler(svc GuildConfigService) *GuildHandler { return &GuildHandler{svc: svc} }

func (h *GuildHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.svc.GetGuildConfig(r.Context(), chi.URLParam(r, "guildID"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// PutConfig replaces the guild's config. Enabled defaults to true like the setup command.
func (h *GuildHandler) PutConfig(w http.ResponseWriter, r *http.Request) {
	var input GuildConfigInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cfg := domain.GuildVerificationConfig{
		GuildID:               chi.URLParam(r, "guildID"),
		VerificationChannelID: input.VerificationChannelID,
		VerifiedRoleID:        input.VerifiedRoleID,
		AdminRoleID:           input.AdminRoleID,
		Enabled:               input.Enabled == nil || *input.Enabled,
	}
	if err := h.svc.SetGuildConfig(r.Context(), cfg); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *GuildHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Stats(r.Context(), chi.URLParam(r, "guildID")))
}
