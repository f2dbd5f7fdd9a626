package changefeed

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"revq/internal/logging"
)

// Sink receives normalized events from the listener. The engine's reconcile
// entry point satisfies this.
type Sink interface {
	Reconcile(event Event)
}

// Listener subscribes to the change feed channel and forwards events to a
// sink from a single consumer goroutine.
type Listener struct {
	client    *redis.Client
	channel   string
	clientID  string
	sink      Sink
	logger    *slog.Logger
	reconnect time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewListener builds a listener over an existing redis client. The clientID
// filters out events echoing this session's own mutations.
func NewListener(client *redis.Client, channel, clientID string, sink Sink, logger *slog.Logger, reconnect time.Duration) *Listener {
	if reconnect <= 0 {
		reconnect = 5 * time.Second
	}
	return &Listener{
		client:    client,
		channel:   channel,
		clientID:  clientID,
		sink:      sink,
		logger:    logging.NewComponentLogger(logger, "changefeed"),
		reconnect: reconnect,
	}
}

// Connect dials redis using a connection URL and returns a client.
func Connect(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

// Start begins consuming the feed until ctx is cancelled or Close is called.
func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return errors.New("listener already started")
	}
	l.started = true

	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})

	go l.run(runCtx)
	return nil
}

// Close stops the consumer goroutine and waits for it to exit.
func (l *Listener) Close() {
	l.mu.Lock()
	cancel := l.cancel
	done := l.done
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (l *Listener) run(ctx context.Context) {
	defer close(l.done)

	for {
		if ctx.Err() != nil {
			return
		}

		pubsub := l.client.Subscribe(ctx, l.channel)
		if _, err := pubsub.Receive(ctx); err != nil {
			_ = pubsub.Close()
			if ctx.Err() != nil {
				return
			}
			l.logger.Warn("change feed subscribe failed",
				logging.String(logging.FieldEventType, "feed_subscribe_failed"),
				logging.Error(err))
			if !l.sleep(ctx) {
				return
			}
			continue
		}

		l.logger.Info("change feed subscribed", logging.String("channel", l.channel))
		l.consume(ctx, pubsub)
		_ = pubsub.Close()

		if ctx.Err() != nil {
			return
		}
		l.logger.Warn("change feed connection lost, resubscribing",
			logging.String(logging.FieldEventType, "feed_reconnect"))
		if !l.sleep(ctx) {
			return
		}
	}
}

func (l *Listener) consume(ctx context.Context, pubsub *redis.PubSub) {
	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			return
		}

		event, err := DecodeEvent([]byte(msg.Payload))
		if err != nil {
			l.logger.Warn("dropping malformed change event",
				logging.String(logging.FieldEventType, "feed_event_malformed"),
				logging.Error(err))
			continue
		}
		if event.Origin != "" && event.Origin == l.clientID {
			continue
		}

		l.logger.Debug("change event received",
			logging.String(logging.FieldItemID, event.ItemID),
			logging.String(logging.FieldChangeKind, string(event.Kind)))
		l.sink.Reconcile(event)
	}
}

func (l *Listener) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(l.reconnect):
		return true
	}
}
