package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-verify-bot/internal/application/verification"
	"github.com/go-verify-bot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockVerificationSvc struct{ mock.Mock }

func (m *mockVerificationSvc) GetGuildConfig(ctx context.Context, guildID string) (*domain.GuildVerificationConfig, error) {
	args := m.Called(ctx, guildID)
	if c, _ := args.Get(0).(*domain.GuildVerificationConfig); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVerificationSvc) SetGuildConfig(ctx context.Context, cfg domain.GuildVerificationConfig) error {
	return m.Called(ctx, cfg).Error(0)
}

func (m *mockVerificationSvc) Stats(ctx context.Context, guildID string) verification.Stats {
	return m.Called(ctx, guildID).Get(0).(verification.Stats)
}

func (m *mockVerificationSvc) GetPending(ctx context.Context, userID string) (*domain.PendingVerification, error) {
	args := m.Called(ctx, userID)
	if p, _ := args.Get(0).(*domain.PendingVerification); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVerificationSvc) ListPending(ctx context.Context) []domain.PendingVerification {
	out, _ := m.Called(ctx).Get(0).([]domain.PendingVerification)
	return out
}

type mockPresigner struct{ mock.Mock }

func (m *mockPresigner) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

// --- helpers ---

// withParam injects a chi URL param into the request context.
func withParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v))
}

// --- health ---

func TestHealth_Ping(t *testing.T) {
	h := NewHealthHandler(nil)
	rr := httptest.NewRecorder()
	h.Ping(rr, withParam(httptest.NewRequest(http.MethodGet, "/v1/health-check/ping", nil), "action", "ping"))

	assert.Equal(t, http.StatusOK, rr.Code)
	var env MessageEnvelope
	decode(t, rr, &env)
	assert.Equal(t, "pong", env.Message)
}

func TestHealth_ReadyAndUnknown(t *testing.T) {
	h := NewHealthHandler(func() bool { return false })

	rr := httptest.NewRecorder()
	h.Ping(rr, withParam(httptest.NewRequest(http.MethodGet, "/", nil), "action", "ready"))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = httptest.NewRecorder()
	h.Ping(rr, withParam(httptest.NewRequest(http.MethodGet, "/", nil), "action", "dance"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// --- guilds ---

func TestGuild_GetConfig(t *testing.T) {
	svc := &mockVerificationSvc{}
	cfg := &domain.GuildVerificationConfig{GuildID: "g1", VerificationChannelID: "c1", VerifiedRoleID: "r1", AdminRoleID: "r2", Enabled: true}
	svc.On("GetGuildConfig", mock.Anything, "g1").Return(cfg, nil)
	rr := httptest.NewRecorder()

	NewGuildHandler(svc).GetConfig(rr, withParam(httptest.NewRequest(http.MethodGet, "/", nil), "guildID", "g1"))

	assert.Equal(t, http.StatusOK, rr.Code)
	var got domain.GuildVerificationConfig
	decode(t, rr, &got)
	assert.Equal(t, *cfg, got)
}

func TestGuild_GetConfig_NotFound(t *testing.T) {
	svc := &mockVerificationSvc{}
	svc.On("GetGuildConfig", mock.Anything, "g9").Return(nil, fmt.Errorf("guild config g9: %w", domain.ErrNotFound))
	rr := httptest.NewRecorder()

	NewGuildHandler(svc).GetConfig(rr, withParam(httptest.NewRequest(http.MethodGet, "/", nil), "guildID", "g9"))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGuild_PutConfig(t *testing.T) {
	svc := &mockVerificationSvc{}
	want := domain.GuildVerificationConfig{GuildID: "g1", VerificationChannelID: "c1", VerifiedRoleID: "r1", AdminRoleID: "r2", Enabled: true}
	svc.On("SetGuildConfig", mock.Anything, want).Return(nil)
	body := []byte(`{"verification_channel_id":"c1","verified_role_id":"r1","admin_role_id":"r2"}`)
	rr := httptest.NewRecorder()

	NewGuildHandler(svc).PutConfig(rr, withParam(httptest.NewRequest(http.MethodPut, "/", bytes.NewReader(body)), "guildID", "g1"))

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestGuild_PutConfig_Disabled(t *testing.T) {
	svc := &mockVerificationSvc{}
	svc.On("SetGuildConfig", mock.Anything, mock.MatchedBy(func(c domain.GuildVerificationConfig) bool { return !c.Enabled })).Return(nil)
	body := []byte(`{"verification_channel_id":"c1","verified_role_id":"r1","admin_role_id":"r2","enabled":false}`)
	rr := httptest.NewRecorder()

	NewGuildHandler(svc).PutConfig(rr, withParam(httptest.NewRequest(http.MethodPut, "/", bytes.NewReader(body)), "guildID", "g1"))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestGuild_PutConfig_Invalid(t *testing.T) {
	svc := &mockVerificationSvc{}
	svc.On("SetGuildConfig", mock.Anything, mock.Anything).Return(fmt.Errorf("%w: AdminRoleID required", domain.ErrBadRequest))
	h := NewGuildHandler(svc)

	rr := httptest.NewRecorder()
	h.PutConfig(rr, withParam(httptest.NewRequest(http.MethodPut, "/", bytes.NewBufferString("not-json")), "guildID", "g1"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	h.PutConfig(rr, withParam(httptest.NewRequest(http.MethodPut, "/", bytes.NewBufferString(`{}`)), "guildID", "g1"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGuild_GetStats(t *testing.T) {
	svc := &mockVerificationSvc{}
	svc.On("Stats", mock.Anything, "g1").Return(verification.Stats{Configured: true, Enabled: true, Pending: 4})
	rr := httptest.NewRecorder()

	NewGuildHandler(svc).GetStats(rr, withParam(httptest.NewRequest(http.MethodGet, "/", nil), "guildID", "g1"))

	var got verification.Stats
	decode(t, rr, &got)
	assert.Equal(t, 4, got.Pending)
}

// --- verifications ---

func TestVerifications_ListPending(t *testing.T) {
	svc := &mockVerificationSvc{}
	svc.On("ListPending", mock.Anything).Return([]domain.PendingVerification{{UserID: "1"}, {UserID: "2"}})
	rr := httptest.NewRecorder()

	NewVerificationHandler(svc, nil).ListPending(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	var env struct {
		Count int                          `json:"count"`
		Data  []domain.PendingVerification `json:"data"`
	}
	decode(t, rr, &env)
	assert.Equal(t, 2, env.Count)
	assert.Equal(t, "2", env.Data[1].UserID)
}

func TestVerifications_ListPending_EmptyIsArray(t *testing.T) {
	svc := &mockVerificationSvc{}
	svc.On("ListPending", mock.Anything).Return(nil)
	rr := httptest.NewRecorder()

	NewVerificationHandler(svc, nil).ListPending(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.JSONEq(t, `{"count":0,"data":[]}`, rr.Body.String())
}

func TestVerifications_GetPending(t *testing.T) {
	svc := &mockVerificationSvc{}
	svc.On("GetPending", mock.Anything, "42").Return(&domain.PendingVerification{UserID: "42", DisplayName: "alice"}, nil)
	svc.On("GetPending", mock.Anything, "7").Return(nil, domain.ErrNotFound)
	h := NewVerificationHandler(svc, nil)

	rr := httptest.NewRecorder()
	h.GetPending(rr, withParam(httptest.NewRequest(http.MethodGet, "/", nil), "userID", "42"))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.GetPending(rr, withParam(httptest.NewRequest(http.MethodGet, "/", nil), "userID", "7"))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestVerifications_Evidence_Presigned(t *testing.T) {
	svc := &mockVerificationSvc{}
	svc.On("GetPending", mock.Anything, "42").Return(&domain.PendingVerification{UserID: "42", EvidenceURL: "https://cdn/x.png", EvidenceKey: "evidence/42/s1.png"}, nil)
	presigner := &mockPresigner{}
	presigner.On("PresignedURL", mock.Anything, "evidence/42/s1.png", evidenceURLTTL).Return("https://bucket/signed", nil)
	h := NewVerificationHandler(svc, presigner)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }
	rr := httptest.NewRecorder()

	h.Evidence(rr, withParam(httptest.NewRequest(http.MethodGet, "/", nil), "userID", "42"))

	var link EvidenceLink
	decode(t, rr, &link)
	assert.Equal(t, "https://bucket/signed", link.URL)
	assert.True(t, link.Archived)
	assert.True(t, now.Add(evidenceURLTTL).Equal(link.ExpiresAt))
}

func TestVerifications_Evidence_NotArchived(t *testing.T) {
	svc := &mockVerificationSvc{}
	svc.On("GetPending", mock.Anything, "42").Return(&domain.PendingVerification{UserID: "42", EvidenceURL: "https://cdn/x.png"}, nil)
	presigner := &mockPresigner{}
	rr := httptest.NewRecorder()

	NewVerificationHandler(svc, presigner).Evidence(rr, withParam(httptest.NewRequest(http.MethodGet, "/", nil), "userID", "42"))

	var link EvidenceLink
	decode(t, rr, &link)
	assert.Equal(t, "https://cdn/x.png", link.URL)
	assert.False(t, link.Archived)
	presigner.AssertNotCalled(t, "PresignedURL", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifications_Evidence_PresignFailure(t *testing.T) {
	svc := &mockVerificationSvc{}
	svc.On("GetPending", mock.Anything, "42").Return(&domain.PendingVerification{UserID: "42", EvidenceKey: "k"}, nil)
	presigner := &mockPresigner{}
	presigner.On("PresignedURL", mock.Anything, "k", evidenceURLTTL).Return("", errors.New("no credentials"))
	rr := httptest.NewRecorder()

	NewVerificationHandler(svc, presigner).Evidence(rr, withParam(httptest.NewRequest(http.MethodGet, "/", nil), "userID", "42"))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
