package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"rankboard/core"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration
type Config struct {
	Addr         string        `json:"addr" env:"RANKBOARD_REDIS_ADDR"`
	Password     string        `json:"password" env:"RANKBOARD_REDIS_PASSWORD"`
	DB           int           `json:"db" env:"RANKBOARD_REDIS_DB"`
	KeyPrefix    string        `json:"key_prefix" env:"RANKBOARD_REDIS_KEY_PREFIX"`
	PoolSize     int           `json:"pool_size" env:"RANKBOARD_REDIS_POOL_SIZE"`
	MinIdleConns int           `json:"min_idle_conns" env:"RANKBOARD_REDIS_MIN_IDLE_CONNS"`
	DialTimeout  time.Duration `json:"dial_timeout" env:"RANKBOARD_REDIS_DIAL_TIMEOUT"`
	ReadTimeout  time.Duration `json:"read_timeout" env:"RANKBOARD_REDIS_READ_TIMEOUT"`
	WriteTimeout time.Duration `json:"write_timeout" env:"RANKBOARD_REDIS_WRITE_TIMEOUT"`
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Store implements the ranking store on Redis.
// Data structure:
// - {prefix}{board} -> sorted set, member = participant, score = rank-score
// - {prefix}{registry key} -> set of board names
type Store struct {
	client *redis.Client
	prefix string
}

// New creates a new Redis-backed store and verifies the connection.
func New(config Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{client: client, prefix: config.KeyPrefix}, nil
}

// NewWithClient creates a Store using an existing Redis client (useful for testing)
func NewWithClient(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) key(k string) string { return s.prefix + k }

// scoreBound renders a score limit, mapping the int64 extremes to infinities.
func scoreBound(v int64) string {
	switch v {
	case core.MinScore:
		return "-inf"
	case core.MaxScore:
		return "+inf"
	}
	return strconv.FormatInt(v, 10)
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check key: %w", err)
	}
	return n > 0, nil
}

func (s *Store) UpsertScore(ctx context.Context, key string, score int64, member string) error {
	err := s.client.ZAdd(ctx, s.key(key), redis.Z{Score: float64(score), Member: member}).Err()
	if err != nil {
		return fmt.Errorf("failed to set score: %w", err)
	}
	return nil
}

func (s *Store) RangeByScore(ctx context.Context, key string, min, max int64) ([]string, error) {
	members, err := s.client.ZRangeByScore(ctx, s.key(key), &redis.ZRangeBy{
		Min: scoreBound(min),
		Max: scoreBound(max),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to range by score: %w", err)
	}
	return members, nil
}

func (s *Store) RangeByScoreWithScores(ctx context.Context, key string, min, max int64) ([]core.Entry, error) {
	zs, err := s.client.ZRangeByScoreWithScores(ctx, s.key(key), &redis.ZRangeBy{
		Min: scoreBound(min),
		Max: scoreBound(max),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to range by score: %w", err)
	}
	out := make([]core.Entry, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			member = fmt.Sprint(z.Member)
		}
		out = append(out, core.Entry{Member: member, Score: int64(z.Score)})
	}
	return out, nil
}

func (s *Store) Remove(ctx context.Context, key string, member string) error {
	if err := s.client.ZRem(ctx, s.key(key), member).Err(); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}

func (s *Store) MemberAdd(ctx context.Context, key string, member string) error {
	if err := s.client.SAdd(ctx, s.key(key), member).Err(); err != nil {
		return fmt.Errorf("failed to add set member: %w", err)
	}
	return nil
}

func (s *Store) MemberRemove(ctx context.Context, key string, member string) error {
	if err := s.client.SRem(ctx, s.key(key), member).Err(); err != nil {
		return fmt.Errorf("failed to remove set member: %w", err)
	}
	return nil
}

func (s *Store) Members(ctx context.Context, key string) ([]string, error) {
	members, err := s.client.SMembers(ctx, s.key(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list set members: %w", err)
	}
	return members, nil
}

// ReplaceScores writes every score in a single MULTI/EXEC block.
func (s *Store) ReplaceScores(ctx context.Context, key string, entries []core.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	zs := make([]redis.Z, len(entries))
	for i, e := range entries {
		zs[i] = redis.Z{Score: float64(e.Score), Member: e.Member}
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, s.key(key), zs...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace scores: %w", err)
	}
	return nil
}
