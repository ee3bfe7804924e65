// Package redis keeps roster snapshots in a redis hash: one field per
// student id, each value a roster file line.
package redis

import (
	"context"
	"fmt"
	"slices"

	goredis "github.com/redis/go-redis/v9"

	"github.com/aanand-mishra/students-roster/internal/codec"
	rerrors "github.com/aanand-mishra/students-roster/internal/errors"
	"github.com/aanand-mishra/students-roster/internal/roster"
	"github.com/aanand-mishra/students-roster/internal/storage"
	"github.com/aanand-mishra/students-roster/internal/types"
)

// DefaultKey is the hash that holds the snapshot when no key is configured.
const DefaultKey = "roster:students"

// Config holds connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// Redis implements storage.Storage on top of a redis hash.
type Redis struct {
	client goredis.UniversalClient
	key    string
}

var _ storage.Storage = (*Redis)(nil)

// New connects to redis and checks the connection with PING.
func New(ctx context.Context, cfg Config) (*Redis, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis.New: ping %s: %w", cfg.Addr, err)
	}
	return NewWithClient(client, cfg.Key), nil
}

// NewWithClient wraps an existing client. An empty key selects DefaultKey.
func NewWithClient(client goredis.UniversalClient, key string) *Redis {
	if key == "" {
		key = DefaultKey
	}
	return &Redis{client: client, key: key}
}

// SaveStudents replaces the hash in a MULTI/EXEC block, so readers never
// observe a half-written snapshot.
func (r *Redis) SaveStudents(ctx context.Context, students []types.Student) error {
	fields := make([]any, 0, 2*len(students))
	for _, s := range students {
		fields = append(fields, s.ID, codec.EncodeLine(s))
	}

	_, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		if len(fields) > 0 {
			pipe.HSet(ctx, r.key, fields...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("SaveStudents: %w", err)
	}
	return nil
}

// LoadStudents reads the hash back, ordered by id. A missing key is an
// empty snapshot.
func (r *Redis) LoadStudents(ctx context.Context) ([]types.Student, error) {
	values, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("LoadStudents: %w", err)
	}

	students := make([]types.Student, 0, len(values))
	for id, line := range values {
		s, ok, err := codec.DecodeLine(line)
		if err != nil {
			return nil, fmt.Errorf("LoadStudents: field %s: %w", id, err)
		}
		if !ok {
			return nil, fmt.Errorf("LoadStudents: field %s: %w", id,
				&rerrors.ParseError{Field: "record", Value: line})
		}
		students = append(students, s)
	}
	slices.SortFunc(students, roster.ByID)
	return students, nil
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}
