package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"revq/internal/actionlog"
	"revq/internal/audit"
	"revq/internal/changefeed"
	"revq/internal/config"
	"revq/internal/engine"
	"revq/internal/gateway"
	"revq/internal/logging"
	"revq/internal/queuecache"
	"revq/internal/review"
)

// Session holds the open resources backing one reviewer session.
type Session struct {
	cfg      *config.Config
	logger   *slog.Logger
	lock     *flock.Flock
	lockPath string
	clientID string

	log    *actionlog.Store
	cache  *queuecache.Cache
	engine *engine.Engine

	feed       *changefeed.Listener
	feedClient *redis.Client
}

// Open acquires the session lock and constructs the engine with its durable
// state. Callers must Close the session to release the lock.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Session, error) {
	if cfg == nil {
		return nil, errors.New("session requires configuration")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	lockPath := cfg.LockPath()
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire session lock: %w", err)
	}
	if !locked {
		return nil, errors.New("another revq session is already running")
	}

	clientID, err := loadClientID(cfg.ClientIDPath())
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	store, err := actionlog.Open(cfg.ActionLogPath())
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open action log: %w", err)
	}

	cache := queuecache.New(cfg.QueueCachePath(), logger)
	sort, ok := review.ParseSortMode(cfg.Engine.DefaultSort)
	if !ok {
		sort = review.SortNewest
	}

	eng, err := engine.New(ctx, engine.Options{
		Gateway:     gateway.NewConfiguredClient(cfg),
		Log:         store,
		Cache:       cache,
		Audit:       audit.NewService(cfg),
		Logger:      logger,
		ClientID:    clientID,
		DefaultSort: sort,
		PageSize:    cfg.Gateway.PageSize,
	})
	if err != nil {
		_ = store.Close()
		_ = lock.Unlock()
		return nil, err
	}

	logger.Info("session opened",
		logging.String(logging.FieldComponent, "session"),
		logging.String("client_id", clientID),
		logging.String("lock", lockPath))

	return &Session{
		cfg:      cfg,
		logger:   logger,
		lock:     lock,
		lockPath: lockPath,
		clientID: clientID,
		log:      store,
		cache:    cache,
		engine:   eng,
	}, nil
}

// Engine returns the synchronization engine owned by this session.
func (s *Session) Engine() *engine.Engine {
	return s.engine
}

// ClientID returns the persistent identity used to tag outgoing mutations.
func (s *Session) ClientID() string {
	return s.clientID
}

// ActionLog exposes the underlying pending action store.
func (s *Session) ActionLog() *actionlog.Store {
	return s.log
}

// StartFeed connects the change feed listener and routes remote events into
// the engine. It fails when no feed is configured.
func (s *Session) StartFeed(ctx context.Context) error {
	if s.feed != nil {
		return errors.New("change feed already started")
	}
	if strings.TrimSpace(s.cfg.Feed.RedisURL) == "" {
		return errors.New("feed.redis_url is not configured")
	}
	client, err := changefeed.Connect(s.cfg.Feed.RedisURL)
	if err != nil {
		return fmt.Errorf("connect change feed: %w", err)
	}
	reconnect := time.Duration(s.cfg.Feed.ReconnectSeconds) * time.Second
	listener := changefeed.NewListener(client, s.cfg.Feed.Channel, s.clientID, s.engine, s.logger, reconnect)
	if err := listener.Start(ctx); err != nil {
		_ = client.Close()
		return err
	}
	s.feed = listener
	s.feedClient = client
	return nil
}

// Close stops the change feed, closes durable state, and releases the lock.
func (s *Session) Close() error {
	var firstErr error
	if s.feed != nil {
		s.feed.Close()
		s.feed = nil
	}
	if s.feedClient != nil {
		if err := s.feedClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.feedClient = nil
	}
	if s.log != nil {
		if err := s.log.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.log = nil
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("failed to release session lock",
				logging.String(logging.FieldComponent, "session"),
				logging.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
		s.lock = nil
	}
	return firstErr
}

// loadClientID reads the persisted client id, creating one on first run.
func loadClientID(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		id := strings.TrimSpace(string(data))
		if id != "" {
			return id, nil
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("read client id: %w", err)
	}

	id := uuid.NewString()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create state directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("persist client id: %w", err)
	}
	return id, nil
}
