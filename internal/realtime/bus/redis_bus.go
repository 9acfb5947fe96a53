package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	types "github.com/yungbote/skillsync/internal/domain"
	"github.com/yungbote/skillsync/internal/platform/logger"
)

type Config struct {
	Addr    string
	Channel string
}

// Publisher is the slice of the redis client the notifier needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
}

// RedisNotifier fans job changes out over redis pub/sub. Publish failures
// are logged and swallowed; a job never fails because nobody is listening.
type RedisNotifier struct {
	log     *logger.Logger
	pub     Publisher
	rdb     *goredis.Client
	channel string
	timeout time.Duration
}

func NewRedisNotifier(log *logger.Logger, cfg Config) (*RedisNotifier, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	n := NewNotifier(log, rdb, cfg.Channel)
	n.rdb = rdb
	return n, nil
}

// NewNotifier wraps an existing publisher.
func NewNotifier(log *logger.Logger, pub Publisher, channel string) *RedisNotifier {
	ch := strings.TrimSpace(channel)
	if ch == "" {
		ch = DefaultChannel
	}
	return &RedisNotifier{
		log:     log.With("service", "RedisJobNotifier"),
		pub:     pub,
		channel: ch,
		timeout: 2 * time.Second,
	}
}

func (n *RedisNotifier) JobProgress(ctx context.Context, job *types.ImportJob) {
	n.publish(ctx, EventJobProgress, job)
}

func (n *RedisNotifier) JobDone(ctx context.Context, job *types.ImportJob) {
	n.publish(ctx, EventJobDone, job)
}

func (n *RedisNotifier) JobFailed(ctx context.Context, job *types.ImportJob) {
	n.publish(ctx, EventJobFailed, job)
}

func (n *RedisNotifier) publish(ctx context.Context, kind string, job *types.ImportJob) {
	if n == nil || n.pub == nil || job == nil {
		return
	}
	raw, err := json.Marshal(eventFor(kind, job, time.Now()))
	if err != nil {
		n.log.Warn("job event not encoded", "job_id", job.ID, "error", err)
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	// A canceled run still reports its terminal state.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()
	if err := n.pub.Publish(pctx, n.channel, raw).Err(); err != nil {
		n.log.Warn("job event not published", "job_id", job.ID, "event", kind, "channel", n.channel, "error", err)
	}
}

func (n *RedisNotifier) Close() error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.rdb.Close()
}
