package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	logger "github.com/sirupsen/logrus"

	"halalinvest/src/ledger"
)

// RedisSnapshotStore keeps one JSON encoded snapshot per account key.
type RedisSnapshotStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisClient connects using REDIS_* settings and checks the server
// answers a ping.
func NewRedisClient(ctx context.Context) (*redis.Client, error) {
	config := GetConfig()
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", config.RedisAddr, err)
	}
	logger.WithField("addr", config.RedisAddr).Info("[store] Redis connection established")
	return client, nil
}

func NewRedisSnapshotStore(client *redis.Client) *RedisSnapshotStore {
	config := GetConfig()
	return &RedisSnapshotStore{
		client: client,
		prefix: config.KeyPrefix,
		ttl:    config.TTL,
	}
}

func (s *RedisSnapshotStore) key(accountID uint) string {
	return s.prefix + strconv.FormatUint(uint64(accountID), 10)
}

// Save writes snapshot unless the stored one is at the same or a newer
// version. The read and write run in one optimistic WATCH transaction.
func (s *RedisSnapshotStore) Save(ctx context.Context, snapshot ledger.Snapshot) error {
	key := s.key(snapshot.AccountID)
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	txf := func(tx *redis.Tx) error {
		current, err := loadFrom(ctx, tx, key)
		if err != nil {
			return err
		}
		if current != nil && current.Version >= snapshot.Version {
			logger.WithFields(map[string]interface{}{
				"repo":    "RedisSnapshotStore",
				"op":      "Save",
				"key":     key,
				"version": snapshot.Version,
				"stored":  current.Version,
			}).Debug("Stored snapshot is newer, skipping")
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		return err
	}

	const maxRetries = 3
	for i := 0; i < maxRetries; i++ {
		err = s.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("save snapshot %s: %w", key, err)
}

// Load returns (nil, nil) when no snapshot is stored for accountID.
func (s *RedisSnapshotStore) Load(ctx context.Context, accountID uint) (*ledger.Snapshot, error) {
	return loadFrom(ctx, s.client, s.key(accountID))
}

// stringGetter is satisfied by both *redis.Client and *redis.Tx.
type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func loadFrom(ctx context.Context, g stringGetter, key string) (*ledger.Snapshot, error) {
	raw, err := g.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	var snapshot ledger.Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	return &snapshot, nil
}
