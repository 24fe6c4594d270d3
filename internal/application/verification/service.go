package verification

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/go-verify-bot/internal/domain"
	"github.com/go-verify-bot/internal/metrics"
	"github.com/go-verify-bot/internal/pkg/id"
	"github.com/go-verify-bot/internal/pkg/validate"
	"github.com/go-verify-bot/internal/platform"
	"go.uber.org/zap"
)

// MaxAttachmentSize is the largest evidence image accepted, in bytes.
const MaxAttachmentSize = 8 * 1024 * 1024

// Attachment validation reasons shown to the submitter.
const (
	ReasonMissingAttachment = "No attachment found!"
	ReasonNotImage          = "Image must be an image (PNG, JPG, JPEG)"
	ReasonTooLarge          = "Image must be smaller than 8MB"
)

// ValidationResult is the outcome of ValidateAttachment.
type ValidationResult struct {
	Valid  bool
	Reason string
}

// AttachmentError reports why evidence was refused. It matches domain.ErrInvalidAttachment.
type AttachmentError struct {
	Reason string
}

func (e *AttachmentError) Error() string { return "invalid attachment: " + e.Reason }

func (e *AttachmentError) Unwrap() error { return domain.ErrInvalidAttachment }

// Stats summarizes a guild's verification state.
type Stats struct {
	Configured bool `json:"configured"`
	Enabled    bool `json:"enabled"`
	Pending    int  `json:"pending"`
}

type Service interface {
	SetGuildConfig(ctx context.Context, cfg domain.GuildVerificationConfig) error
	GetGuildConfig(ctx context.Context, guildID string) (*domain.GuildVerificationConfig, error)
	SetEnabled(ctx context.Context, guildID string, enabled bool) error
	ApplicableGuilds(ctx context.Context, userID string) []string
	SubmitEvidence(ctx context.Context, userID, displayName string, att *domain.Attachment, applicableGuilds []string) (*domain.PendingVerification, error)
	Approve(ctx context.Context, guildID, userID string, approver platform.User) (*domain.PendingVerification, error)
	Reject(ctx context.Context, guildID, userID string, rejecter platform.User, reason string) (*domain.PendingVerification, error)
	GetPending(ctx context.Context, userID string) (*domain.PendingVerification, error)
	ListPending(ctx context.Context) []domain.PendingVerification
	Stats(ctx context.Context, guildID string) Stats
	ClearGuild(ctx context.Context, guildID string) int
}

// Archive copies evidence somewhere durable and returns the stored key.
type Archive interface {
	Archive(ctx context.Context, key, sourceURL, contentType string) (string, error)
}

// Auditor publishes workflow transitions.
type Auditor interface {
	Publish(ctx context.Context, ev domain.AuditEvent) error
}

// platformClient is the subset of platform.Client the engine drives.
type platformClient interface {
	GuildIDs() []string
	SendMessage(ctx context.Context, channelID string, msg platform.MessageSend) (string, error)
	EditMessage(ctx context.Context, channelID, messageID string, msg platform.MessageSend) error
	SendDirectMessage(ctx context.Context, userID string, msg platform.MessageSend) error
	FetchMember(ctx context.Context, guildID, userID string) (*platform.Member, error)
	GrantRole(ctx context.Context, guildID, userID, roleID string) error
}

type service struct {
	store   *Store
	client  platformClient
	archive Archive
	auditor Auditor
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// Option configures optional collaborators of the engine.
type Option func(*service)

func WithArchive(a Archive) Option { return func(s *service) { s.archive = a } }

func WithAuditor(a Auditor) Option { return func(s *service) { s.auditor = a } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *service) { s.metrics = m } }

func WithLogger(l *zap.Logger) Option { return func(s *service) { s.logger = l } }

func WithClock(now func() time.Time) Option { return func(s *service) { s.now = now } }

func NewService(store *Store, client platformClient, opts ...Option) Service {
	s := &service{
		store:  store,
		client: client,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ValidateAttachment checks that a is an image no larger than MaxAttachmentSize.
func ValidateAttachment(a *domain.Attachment) ValidationResult {
	if a == nil {
		return ValidationResult{Reason: ReasonMissingAttachment}
	}
	if !strings.HasPrefix(a.ContentType, "image/") {
		return ValidationResult{Reason: ReasonNotImage}
	}
	if a.Size > MaxAttachmentSize {
		return ValidationResult{Reason: ReasonTooLarge}
	}
	return ValidationResult{Valid: true}
}

func (s *service) SetGuildConfig(ctx context.Context, cfg domain.GuildVerificationConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrBadRequest, err.Error())
	}
	s.store.putConfig(ctx, cfg)
	s.logger.Info("guild verification configured",
		zap.String("guild_id", cfg.GuildID),
		zap.String("channel_id", cfg.VerificationChannelID),
		zap.Bool("enabled", cfg.Enabled),
	)
	return nil
}

func (s *service) GetGuildConfig(_ context.Context, guildID string) (*domain.GuildVerificationConfig, error) {
	cfg, ok := s.store.config(guildID)
	if !ok {
		return nil, fmt.Errorf("guild config %s: %w", guildID, domain.ErrNotFound)
	}
	return &cfg, nil
}

func (s *service) SetEnabled(ctx context.Context, guildID string, enabled bool) error {
	if !s.store.setEnabled(ctx, guildID, enabled) {
		return fmt.Errorf("guild config %s: %w", guildID, domain.ErrNotConfigured)
	}
	return nil
}

// enabledConfig returns the guild's config when verification is switched on.
func (s *service) enabledConfig(guildID string) (domain.GuildVerificationConfig, error) {
	cfg, ok := s.store.config(guildID)
	if !ok || !cfg.Enabled {
		return cfg, fmt.Errorf("guild %s: %w", guildID, domain.ErrNotConfigured)
	}
	return cfg, nil
}

// ApplicableGuilds lists the bot's guilds with verification enabled where userID
// is a member who does not hold the verified role yet.
func (s *service) ApplicableGuilds(ctx context.Context, userID string) []string {
	var out []string
	for _, guildID := range s.client.GuildIDs() {
		cfg, err := s.enabledConfig(guildID)
		if err != nil {
			continue
		}
		member, err := s.client.FetchMember(ctx, guildID, userID)
		if err != nil {
			continue
		}
		if !member.HasRole(cfg.VerifiedRoleID) {
			out = append(out, guildID)
		}
	}
	return out
}

func (s *service) SubmitEvidence(ctx context.Context, userID, displayName string, att *domain.Attachment, applicableGuilds []string) (*domain.PendingVerification, error) {
	if res := ValidateAttachment(att); !res.Valid {
		return nil, &AttachmentError{Reason: res.Reason}
	}

	unlock := s.store.lockUser(userID)
	defer unlock()

	if _, ok := s.store.pendingFor(userID); ok {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrAlreadyPending)
	}

	var targets []domain.GuildVerificationConfig
	for _, guildID := range applicableGuilds {
		if cfg, err := s.enabledConfig(guildID); err == nil {
			targets = append(targets, cfg)
		}
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no applicable guild for user %s: %w", userID, domain.ErrNotConfigured)
	}

	p := domain.PendingVerification{
		UserID:       userID,
		SubmissionID: id.NewAt(s.now()),
		DisplayName:  displayName,
		EvidenceURL:  att.URL,
		SubmittedAt:  s.now().UTC(),
		GuildID:      targets[0].GuildID,
	}
	if s.archive != nil {
		key := evidenceKey(userID, p.SubmissionID, att.Filename)
		if stored, err := s.archive.Archive(ctx, key, att.URL, att.ContentType); err != nil {
			s.logger.Warn("evidence archive failed", zap.Error(err), zap.String("user_id", userID), zap.String("key", key))
		} else {
			p.EvidenceKey = stored
		}
	}

	review := ReviewMessage(p)
	var lastErr error
	for _, cfg := range targets {
		msgID, err := s.client.SendMessage(ctx, cfg.VerificationChannelID, review)
		if err != nil {
			lastErr = err
			s.logger.Error("review post failed",
				zap.Error(err),
				zap.String("user_id", userID),
				zap.String("guild_id", cfg.GuildID),
				zap.String("channel_id", cfg.VerificationChannelID),
			)
			continue
		}
		p.ReviewPosts = append(p.ReviewPosts, domain.ReviewPost{
			GuildID:   cfg.GuildID,
			ChannelID: cfg.VerificationChannelID,
			MessageID: msgID,
		})
	}
	if len(p.ReviewPosts) == 0 {
		return nil, fmt.Errorf("post review for user %s: %w", userID, lastErr)
	}
	p.GuildID = p.ReviewPosts[0].GuildID
	p.ReviewMessageID = p.ReviewPosts[0].MessageID

	s.store.putPending(ctx, p)
	s.metrics.IncTransition(domain.AuditSubmitted)
	s.audit(ctx, domain.AuditEvent{
		Type:         domain.AuditSubmitted,
		UserID:       userID,
		GuildID:      p.GuildID,
		ActorID:      userID,
		SubmissionID: p.SubmissionID,
	})
	s.logger.Info("verification submitted",
		zap.String("user_id", userID),
		zap.String("submission_id", p.SubmissionID),
		zap.Int("review_posts", len(p.ReviewPosts)),
	)
	return &p, nil
}

func (s *service) Approve(ctx context.Context, guildID, userID string, approver platform.User) (*domain.PendingVerification, error) {
	cfg, err := s.enabledConfig(guildID)
	if err != nil {
		return nil, err
	}

	unlock := s.store.lockUser(userID)
	p, ok := s.store.pendingFor(userID)
	if !ok {
		unlock()
		return nil, fmt.Errorf("pending verification %s: %w", userID, domain.ErrNotFound)
	}
	if err := s.client.GrantRole(ctx, guildID, userID, cfg.VerifiedRoleID); err != nil {
		unlock()
		return nil, fmt.Errorf("grant verified role: %w", err)
	}
	s.store.removePending(ctx, userID)
	unlock()

	at := s.now().UTC()
	s.resolveOtherPosts(ctx, p, guildID, ApprovedReview(p, approver.Tag(), at))
	s.notify(ctx, userID, approvedNotice(approver.Tag(), at), "approval")
	s.metrics.IncTransition(domain.AuditApproved)
	s.audit(ctx, domain.AuditEvent{
		Type:         domain.AuditApproved,
		UserID:       userID,
		GuildID:      guildID,
		ActorID:      approver.ID,
		SubmissionID: p.SubmissionID,
	})
	s.logger.Info("verification approved",
		zap.String("user_id", userID),
		zap.String("guild_id", guildID),
		zap.String("approver_id", approver.ID),
	)
	return &p, nil
}

func (s *service) Reject(ctx context.Context, guildID, userID string, rejecter platform.User, reason string) (*domain.PendingVerification, error) {
	if _, err := s.enabledConfig(guildID); err != nil {
		return nil, err
	}

	unlock := s.store.lockUser(userID)
	p, ok := s.store.pendingFor(userID)
	if !ok {
		unlock()
		return nil, fmt.Errorf("pending verification %s: %w", userID, domain.ErrNotFound)
	}
	s.store.removePending(ctx, userID)
	unlock()

	at := s.now().UTC()
	s.resolveOtherPosts(ctx, p, guildID, RejectedReview(p, rejecter.Tag(), at))
	s.notify(ctx, userID, rejectedNotice(reason, rejecter.Tag(), at), "rejection")
	s.metrics.IncTransition(domain.AuditRejected)
	s.audit(ctx, domain.AuditEvent{
		Type:         domain.AuditRejected,
		UserID:       userID,
		GuildID:      guildID,
		ActorID:      rejecter.ID,
		SubmissionID: p.SubmissionID,
		Reason:       reason,
	})
	s.logger.Info("verification rejected",
		zap.String("user_id", userID),
		zap.String("guild_id", guildID),
		zap.String("rejecter_id", rejecter.ID),
	)
	return &p, nil
}

func (s *service) GetPending(_ context.Context, userID string) (*domain.PendingVerification, error) {
	p, ok := s.store.pendingFor(userID)
	if !ok {
		return nil, fmt.Errorf("pending verification %s: %w", userID, domain.ErrNotFound)
	}
	return &p, nil
}

func (s *service) ListPending(_ context.Context) []domain.PendingVerification {
	return s.store.listPending()
}

func (s *service) Stats(_ context.Context, guildID string) Stats {
	var st Stats
	if cfg, ok := s.store.config(guildID); ok {
		st.Configured = true
		st.Enabled = cfg.Enabled
	}
	for _, p := range s.store.listPending() {
		if p.PostedTo(guildID) {
			st.Pending++
		}
	}
	return st
}

// ClearGuild drops every pending submission that was posted to guildID.
func (s *service) ClearGuild(ctx context.Context, guildID string) int {
	n := 0
	for _, p := range s.store.listPending() {
		if !p.PostedTo(guildID) || !s.clearListed(ctx, p, guildID) {
			continue
		}
		n++
		s.metrics.IncTransition(domain.AuditCleared)
		s.audit(ctx, domain.AuditEvent{
			Type:         domain.AuditCleared,
			UserID:       p.UserID,
			GuildID:      guildID,
			SubmissionID: p.SubmissionID,
		})
	}
	if n > 0 {
		s.logger.Info("pending verifications cleared", zap.String("guild_id", guildID), zap.Int("count", n))
	}
	return n
}

// clearListed removes the user's submission only if it is still the listed one.
// Between listing and locking it may have been resolved and replaced by a newer
// submission posted elsewhere.
func (s *service) clearListed(ctx context.Context, listed domain.PendingVerification, guildID string) bool {
	unlock := s.store.lockUser(listed.UserID)
	defer unlock()
	cur, ok := s.store.pendingFor(listed.UserID)
	if !ok || cur.SubmissionID != listed.SubmissionID || !cur.PostedTo(guildID) {
		return false
	}
	return s.store.removePending(ctx, listed.UserID)
}

// resolveOtherPosts edits the review posts outside guildID so their controls go away.
// The post in guildID is updated by the caller that resolved it.
func (s *service) resolveOtherPosts(ctx context.Context, p domain.PendingVerification, guildID string, msg platform.MessageSend) {
	for _, rp := range p.ReviewPosts {
		if rp.GuildID == guildID || rp.MessageID == "" {
			continue
		}
		if err := platform.Swallow(s.client.EditMessage(ctx, rp.ChannelID, rp.MessageID, msg)); err != nil {
			s.logger.Warn("could not resolve review post",
				zap.Error(err),
				zap.String("user_id", p.UserID),
				zap.String("guild_id", rp.GuildID),
				zap.String("message_id", rp.MessageID),
			)
		}
	}
}

// notify sends a best-effort DM.
func (s *service) notify(ctx context.Context, userID string, msg platform.MessageSend, kind string) {
	if err := s.client.SendDirectMessage(ctx, userID, msg); err != nil {
		s.logger.Warn("could not send "+kind+" DM to user", zap.Error(err), zap.String("user_id", userID))
	}
}

func (s *service) audit(ctx context.Context, ev domain.AuditEvent) {
	if s.auditor == nil {
		return
	}
	ev.ID = id.NewAt(s.now())
	ev.At = s.now().UTC()
	if err := s.auditor.Publish(ctx, ev); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("audit publish failed", zap.Error(err), zap.String("type", ev.Type), zap.String("user_id", ev.UserID))
	}
}

func evidenceKey(userID, submissionID, filename string) string {
	return fmt.Sprintf("evidence/%s/%s%s", userID, submissionID, strings.ToLower(path.Ext(filename)))
}
