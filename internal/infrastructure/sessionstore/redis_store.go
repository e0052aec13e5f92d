package sessionstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/OctavianTocan/ai-nexus/internal/domain/agent"
	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/metrics"
	"github.com/OctavianTocan/ai-nexus/internal/utils/platformerrors"
)

const (
	keyPrefix   = "agent:session:"
	lockTimeout = 10 * time.Second
)

// RedisStore keeps agent session history as a Redis list of JSON encoded runs.
type RedisStore struct {
	client redis.UniversalClient
	rs     *redsync.Redsync
	ttl    time.Duration
	log    zerolog.Logger
}

// NewRedisStore wraps an existing client. A zero ttl keeps sessions forever.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration, log zerolog.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		rs:     redsync.New(goredis.NewPool(client)),
		ttl:    ttl,
		log:    log.With().Str("component", "redis-session-store").Logger(),
	}
}

// NewRedisClient connects to one or more comma separated Redis URLs or addresses.
func NewRedisClient(ctx context.Context, redisURL string) (redis.UniversalClient, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis URL must be provided")
	}

	opts, err := buildUniversalOptions(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if len(opts.Addrs) > 1 && opts.DB != 0 {
		opts.DB = 0
	}

	client := redis.NewUniversalClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func buildUniversalOptions(raw string) (*redis.UniversalOptions, error) {
	opts := &redis.UniversalOptions{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.Contains(part, "://") {
			opts.Addrs = append(opts.Addrs, part)
			continue
		}

		parsed, err := redis.ParseURL(part)
		if err != nil {
			return nil, err
		}
		opts.Addrs = append(opts.Addrs, parsed.Addr)
		if opts.Username == "" {
			opts.Username = parsed.Username
		}
		if opts.Password == "" {
			opts.Password = parsed.Password
		}
		if opts.DB == 0 {
			opts.DB = parsed.DB
		}
		if opts.TLSConfig == nil {
			opts.TLSConfig = parsed.TLSConfig
		}
	}
	if len(opts.Addrs) == 0 {
		return nil, fmt.Errorf("no redis addresses provided")
	}
	return opts, nil
}

func runsKey(sessionID string) string  { return keyPrefix + sessionID + ":runs" }
func ownerKey(sessionID string) string { return keyPrefix + sessionID }
func lockName(sessionID string) string { return keyPrefix + sessionID + ":lock" }

// AppendRun pushes the run under a per-session lock so concurrent turns keep a total order.
func (s *RedisStore) AppendRun(ctx context.Context, run *agent.SessionRun) (err error) {
	defer metrics.ObserveSessionStoreOp("redis", "append_run", time.Now(), &err)

	payload, err := json.Marshal(run)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeInternal, "failed to encode session run", err, "c6a0e4b8-3d9f-4c1e-a7b2-8f5d0c3a6e91")
	}

	mutex := s.rs.NewMutex(lockName(run.SessionID), redsync.WithExpiry(lockTimeout))
	if err = mutex.LockContext(ctx); err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to lock session", err, "4b8d2f6a-0e3c-4a9b-b1d7-6e2f9a5c0d48")
	}
	defer func() {
		if _, unlockErr := mutex.UnlockContext(context.WithoutCancel(ctx)); unlockErr != nil {
			s.log.Warn().Err(unlockErr).Str("session_id", run.SessionID).Msg("failed to release session lock")
		}
	}()

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, runsKey(run.SessionID), payload)
		pipe.HSetNX(ctx, ownerKey(run.SessionID), "user_id", run.UserID)
		if s.ttl > 0 {
			pipe.Expire(ctx, runsKey(run.SessionID), s.ttl)
			pipe.Expire(ctx, ownerKey(run.SessionID), s.ttl)
		}
		return nil
	})
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to append session run", err, "9a3e7c1f-5b0d-4e8a-9c6b-1d4f7a0e3b25")
	}
	return nil
}

func (s *RedisStore) RecentRuns(ctx context.Context, sessionID string, limit int) (_ []*agent.SessionRun, err error) {
	defer metrics.ObserveSessionStoreOp("redis", "recent_runs", time.Now(), &err)

	if limit <= 0 {
		return []*agent.SessionRun{}, nil
	}
	return s.loadRuns(ctx, sessionID, int64(-limit))
}

func (s *RedisStore) Messages(ctx context.Context, sessionID string) (_ []agent.Message, err error) {
	defer metrics.ObserveSessionStoreOp("redis", "messages", time.Now(), &err)

	runs, err := s.loadRuns(ctx, sessionID, 0)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, fmt.Sprintf("session not found: %s", sessionID), nil, "e7b1d5a9-2c6f-4f0e-8a3d-5b9e2c7f1a06")
	}

	var messages []agent.Message
	for _, run := range runs {
		messages = append(messages, run.Messages...)
	}
	return messages, nil
}

func (s *RedisStore) loadRuns(ctx context.Context, sessionID string, start int64) ([]*agent.SessionRun, error) {
	raw, err := s.client.LRange(ctx, runsKey(sessionID), start, -1).Result()
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to load session runs", err, "1f5c9e3b-7a0d-4b6e-a2c8-9e3b6f0a4d17")
	}

	runs := make([]*agent.SessionRun, 0, len(raw))
	for _, item := range raw {
		var run agent.SessionRun
		if err := json.Unmarshal([]byte(item), &run); err != nil {
			s.log.Warn().Err(err).Str("session_id", sessionID).Msg("skipping corrupt session run")
			continue
		}
		runs = append(runs, &run)
	}
	return runs, nil
}
