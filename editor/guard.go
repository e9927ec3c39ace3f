package editor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSaveInProgress is returned when another save for the same editor has
// not finished yet.
var ErrSaveInProgress = errors.New("a save is already in progress")

// SaveGuard admits one save at a time per key. Acquire never blocks: it
// either returns a release func or ErrSaveInProgress. The returned context
// is the one the save must run under; it is cancelled if the guard loses
// the lock before release.
type SaveGuard interface {
	Acquire(ctx context.Context, key string) (held context.Context, release func(), err error)
}

// MemoryGuard serializes saves inside one process.
type MemoryGuard struct {
	locks sync.Map // key -> *sync.Mutex
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{}
}

func (g *MemoryGuard) Acquire(ctx context.Context, key string) (context.Context, func(), error) {
	v, _ := g.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	if !mu.TryLock() {
		return nil, nil, ErrSaveInProgress
	}
	return ctx, mu.Unlock, nil
}

// releaseScript deletes the lock only if it still holds our token, so a
// save that lost its lock cannot free somebody else's.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// extendScript pushes the expiry out while the token still matches.
var extendScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0
`)

// RedisGuard serializes saves across gateway replicas with SETNX. The lock
// is renewed every ttl/3 while the save runs, so a slow upstream call keeps
// it; a crashed replica's lock still expires after ttl.
type RedisGuard struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisGuard(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisGuard {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisGuard{client: client, prefix: "booking-miniapp:save:", ttl: ttl, logger: logger}
}

func (g *RedisGuard) Acquire(ctx context.Context, key string) (context.Context, func(), error) {
	name := g.prefix + key
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, name, token, g.ttl).Result()
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrSaveInProgress
	}

	held, cancel := context.WithCancel(ctx)
	stop := make(chan struct{})
	go g.keepAlive(held, cancel, name, token, stop)

	var once sync.Once
	release := func() {
		once.Do(func() {
			close(stop)
			cancel()
			rctx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			if err := releaseScript.Run(rctx, g.client, []string{name}, token).Err(); err != nil {
				g.logger.Warn("releasing save lock failed", zap.String("key", key), zap.Error(err))
			}
		})
	}
	return held, release, nil
}

func (g *RedisGuard) keepAlive(ctx context.Context, cancel context.CancelFunc, name, token string, stop <-chan struct{}) {
	ticker := time.NewTicker(g.ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := extendScript.Run(ctx, g.client, []string{name}, token, g.ttl.Milliseconds()).Int()
			if err == nil && n == 1 {
				continue
			}
			select {
			case <-stop:
				return
			default:
			}
			if ctx.Err() != nil {
				return
			}
			g.logger.Warn("save lock lost, cancelling save", zap.String("lock", name), zap.Error(err))
			cancel()
			return
		}
	}
}
