package storage

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	defaultRedisPrefix = "brand-mentions:"
	modTimeSuffix      = ":modtime"
)

// RedisStorage keeps each object under its own key with a companion modification-time key
type RedisStorage struct {
	client *redis.Client
	prefix string
}

var _ StorageInterface = (*RedisStorage)(nil)

// NewRedisStorage connects and pings the server
func NewRedisStorage(ctx context.Context, addr, password string, db int) (*RedisStorage, error) {
	if addr == "" {
		return nil, errors.New("redis address is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, errors.Wrapf(err, "failed to connect to redis at %s", addr)
	}

	logrus.Infof("Connected to redis at %s (db %d)", addr, db)
	return NewRedisStorageWithClient(rdb), nil
}

// NewRedisStorageWithClient wraps an existing client
func NewRedisStorageWithClient(client *redis.Client) *RedisStorage {
	return &RedisStorage{client: client, prefix: defaultRedisPrefix}
}

func (s *RedisStorage) key(name string) string {
	return s.prefix + name
}

// Store writes the object and its modification time in one transaction
func (s *RedisStorage) Store(ctx context.Context, name string, data []byte) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(name), data, 0)
	pipe.Set(ctx, s.key(name)+modTimeSuffix, time.Now().UnixNano(), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrapf(err, "failed to store %s in redis", name)
	}
	return nil
}

func (s *RedisStorage) Retrieve(ctx context.Context, name string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "failed to read %s from redis", name)
	}
	return data, nil
}

func (s *RedisStorage) Stat(ctx context.Context, name string) (ObjectInfo, error) {
	pipe := s.client.Pipeline()
	size := pipe.StrLen(ctx, s.key(name))
	exists := pipe.Exists(ctx, s.key(name))
	modTime := pipe.Get(ctx, s.key(name)+modTimeSuffix)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return ObjectInfo{}, errors.Wrapf(err, "failed to stat %s in redis", name)
	}

	if exists.Val() == 0 {
		return ObjectInfo{}, ErrNotFound
	}

	info := ObjectInfo{Name: name, Size: size.Val()}
	if nanos, err := strconv.ParseInt(modTime.Val(), 10, 64); err == nil {
		info.ModTime = time.Unix(0, nanos)
	}
	return info, nil
}

func (s *RedisStorage) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	iter := s.client.Scan(ctx, 0, s.key(prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if strings.HasSuffix(key, modTimeSuffix) {
			continue
		}
		names = append(names, strings.TrimPrefix(key, s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to scan redis keys")
	}
	sort.Strings(names)
	return names, nil
}

func (s *RedisStorage) Delete(ctx context.Context, name string) error {
	removed, err := s.client.Del(ctx, s.key(name), s.key(name)+modTimeSuffix).Result()
	if err != nil {
		return errors.Wrapf(err, "failed to delete %s from redis", name)
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}
