package verification

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-verify-bot/internal/domain"
	"github.com/go-verify-bot/internal/metrics"
	"go.uber.org/zap"
)

// Document store collections.
const (
	CollectionGuildConfigs = "guild_configs"
	CollectionPending      = "pending_verifications"
)

// Document attribute names used in partial updates.
const (
	fieldEnabled = "enabled"
)

// DocumentStore persists documents keyed by their "id" attribute.
type DocumentStore interface {
	FindAll(ctx context.Context, collection string, out interface{}) error
	FindByID(ctx context.Context, collection, id string, out interface{}) error
	Insert(ctx context.Context, collection string, doc interface{}) error
	Update(ctx context.Context, collection, id string, patch map[string]interface{}) error
	Delete(ctx context.Context, collection, id string) error
}

// Store is the in-memory authority for guild configs and pending submissions.
// mu only guards the maps; it is never held while the document store is called.
// Per-key locks (user, guild) are held across a memory change and its write-through.
type Store struct {
	mu      sync.Mutex
	configs map[string]domain.GuildVerificationConfig
	pending map[string]domain.PendingVerification
	locks   map[string]*keyLock

	docs    DocumentStore
	metrics *metrics.Metrics
	logger  *zap.Logger
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewStore creates an empty Store. docs may be nil, in which case nothing is persisted.
func NewStore(docs DocumentStore, m *metrics.Metrics, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		configs: make(map[string]domain.GuildVerificationConfig),
		pending: make(map[string]domain.PendingVerification),
		locks:   make(map[string]*keyLock),
		docs:    docs,
		metrics: m,
		logger:  logger,
	}
}

// Load replaces the in-memory state with the persisted collections.
func (s *Store) Load(ctx context.Context) error {
	if s.docs == nil {
		return nil
	}
	var configs []domain.GuildVerificationConfig
	if err := s.docs.FindAll(ctx, CollectionGuildConfigs, &configs); err != nil {
		return fmt.Errorf("load %s: %w", CollectionGuildConfigs, err)
	}
	var pending []domain.PendingVerification
	if err := s.docs.FindAll(ctx, CollectionPending, &pending); err != nil {
		return fmt.Errorf("load %s: %w", CollectionPending, err)
	}

	s.mu.Lock()
	s.configs = make(map[string]domain.GuildVerificationConfig, len(configs))
	for _, c := range configs {
		s.configs[c.GuildID] = c
	}
	s.pending = make(map[string]domain.PendingVerification, len(pending))
	for _, p := range pending {
		s.pending[p.UserID] = p
	}
	n := len(s.pending)
	s.mu.Unlock()

	s.metrics.SetPending(n)
	s.logger.Info("verification store loaded", zap.Int("guild_configs", len(configs)), zap.Int("pending", n))
	return nil
}

// lockUser serializes units of work for one user. The returned func releases the lock.
func (s *Store) lockUser(userID string) func() { return s.lock("user/" + userID) }

// lockGuild serializes config writes for one guild so the document store sees
// them in the same order as memory.
func (s *Store) lockGuild(guildID string) func() { return s.lock("guild/" + guildID) }

func (s *Store) lock(key string) func() {
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &keyLock{}
		s.locks[key] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

func (s *Store) config(guildID string) (domain.GuildVerificationConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.configs[guildID]
	return c, ok
}

func (s *Store) putConfig(ctx context.Context, cfg domain.GuildVerificationConfig) {
	unlock := s.lockGuild(cfg.GuildID)
	defer unlock()

	s.mu.Lock()
	s.configs[cfg.GuildID] = cfg
	s.mu.Unlock()

	s.persist(ctx, "insert", CollectionGuildConfigs, cfg.GuildID, func(ctx context.Context) error {
		return s.docs.Insert(ctx, CollectionGuildConfigs, cfg)
	})
}

func (s *Store) setEnabled(ctx context.Context, guildID string, enabled bool) bool {
	unlock := s.lockGuild(guildID)
	defer unlock()

	s.mu.Lock()
	c, ok := s.configs[guildID]
	if ok {
		c.Enabled = enabled
		s.configs[guildID] = c
	}
	s.mu.Unlock()
	if !ok {
		return false
	}

	s.persist(ctx, "update", CollectionGuildConfigs, guildID, func(ctx context.Context) error {
		return s.docs.Update(ctx, CollectionGuildConfigs, guildID, map[string]interface{}{fieldEnabled: enabled})
	})
	return true
}

func (s *Store) pendingFor(userID string) (domain.PendingVerification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[userID]
	return p, ok
}

func (s *Store) listPending() []domain.PendingVerification {
	s.mu.Lock()
	out := make([]domain.PendingVerification, 0, len(s.pending))
	for _, p := range s.pending {
		out = append(out, p)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out
}

func (s *Store) putPending(ctx context.Context, p domain.PendingVerification) {
	s.mu.Lock()
	s.pending[p.UserID] = p
	n := len(s.pending)
	s.mu.Unlock()
	s.metrics.SetPending(n)

	s.persist(ctx, "insert", CollectionPending, p.UserID, func(ctx context.Context) error {
		return s.docs.Insert(ctx, CollectionPending, p)
	})
}

// removePending deletes the user's submission and reports whether one existed.
func (s *Store) removePending(ctx context.Context, userID string) bool {
	s.mu.Lock()
	_, ok := s.pending[userID]
	delete(s.pending, userID)
	n := len(s.pending)
	s.mu.Unlock()
	if !ok {
		return false
	}
	s.metrics.SetPending(n)

	s.persist(ctx, "delete", CollectionPending, userID, func(ctx context.Context) error {
		return s.docs.Delete(ctx, CollectionPending, userID)
	})
	return true
}

// persist runs a best-effort write-through. Failures are logged, never returned.
func (s *Store) persist(ctx context.Context, op, collection, id string, fn func(context.Context) error) {
	if s.docs == nil {
		return
	}
	if err := fn(ctx); err != nil {
		level := s.logger.Warn
		if errors.Is(err, context.Canceled) {
			level = s.logger.Debug
		}
		level("document store write failed",
			zap.Error(err),
			zap.String("op", op),
			zap.String("collection", collection),
			zap.String("id", id),
		)
	}
}
