package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/txengine/internal/adapter/dto"
	"github.com/iho/txengine/internal/domain"
	"github.com/iho/txengine/internal/usecase"
)

// ErrSnapshotNotFound is returned when no snapshot exists for a run.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStore publishes the final account set of a run to Redis.
// Each account is a hash at <prefix>snapshot:<run>:<client>; the set
// <prefix>snapshot:<run>:clients indexes them and <prefix>snapshot:latest
// names the most recent run. Every key expires after ttl.
// It implements usecase.SnapshotWriter.
type SnapshotStore struct {
	client  *redis.Client
	retrier usecase.Retrier
	prefix  string
	runID   string
	ttl     time.Duration
}

// NewSnapshotStore creates a new SnapshotStore. retrier may be nil.
func NewSnapshotStore(client *redis.Client, retrier usecase.Retrier, prefix, runID string, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{
		client:  client,
		retrier: retrier,
		prefix:  prefix,
		runID:   runID,
		ttl:     ttl,
	}
}

// Name identifies the sink.
func (s *SnapshotStore) Name() string {
	return "redis"
}

// Write stores every account. A failing account does not stop the rest.
func (s *SnapshotStore) Write(ctx context.Context, accounts []domain.Account) error {
	var errs []error

	for _, acc := range accounts {
		snap := dto.AccountFromDomain(acc)
		err := s.retry(ctx, func() error {
			return s.writeAccount(ctx, snap)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("store client %d: %w", snap.Client, err))
		}
	}

	if err := s.retry(ctx, func() error {
		return s.client.Set(ctx, s.latestKey(), s.runID, s.ttl).Err()
	}); err != nil {
		errs = append(errs, fmt.Errorf("store latest run: %w", err))
	}

	return errors.Join(errs...)
}

func (s *SnapshotStore) writeAccount(ctx context.Context, snap dto.AccountSnapshot) error {
	key := s.accountKey(s.runID, snap.Client)
	index := s.indexKey(s.runID)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"client", snap.Client,
			"available", snap.Available,
			"held", snap.Held,
			"total", snap.Total,
			"locked", strconv.FormatBool(snap.Locked),
		)
		pipe.Expire(ctx, key, s.ttl)
		pipe.SAdd(ctx, index, snap.Client)
		pipe.Expire(ctx, index, s.ttl)
		return nil
	})
	return err
}

// Load reads back the snapshot of runID ordered by client id.
// An empty runID loads the latest run.
func (s *SnapshotStore) Load(ctx context.Context, runID string) ([]dto.AccountSnapshot, error) {
	if runID == "" {
		latest, err := s.client.Get(ctx, s.latestKey()).Result()
		if errors.Is(err, redis.Nil) {
			return nil, ErrSnapshotNotFound
		}
		if err != nil {
			return nil, err
		}
		runID = latest
	}

	members, err := s.client.SMembers(ctx, s.indexKey(runID)).Result()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, ErrSnapshotNotFound
	}

	snaps := make([]dto.AccountSnapshot, 0, len(members))
	for _, m := range members {
		client, err := strconv.ParseUint(m, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid client id %q in index: %w", m, err)
		}

		fields, err := s.client.HGetAll(ctx, s.accountKey(runID, uint16(client))).Result()
		if err != nil {
			return nil, err
		}

		snaps = append(snaps, dto.AccountSnapshot{
			Client:    uint16(client),
			Available: fields["available"],
			Held:      fields["held"],
			Total:     fields["total"],
			Locked:    fields["locked"] == "true",
		})
	}

	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].Client < snaps[j].Client
	})
	return snaps, nil
}

func (s *SnapshotStore) retry(ctx context.Context, op func() error) error {
	if s.retrier == nil {
		return op()
	}
	return s.retrier.Retry(ctx, op)
}

func (s *SnapshotStore) accountKey(runID string, client uint16) string {
	return fmt.Sprintf("%ssnapshot:%s:%d", s.prefix, runID, client)
}

func (s *SnapshotStore) indexKey(runID string) string {
	return fmt.Sprintf("%ssnapshot:%s:clients", s.prefix, runID)
}

func (s *SnapshotStore) latestKey() string {
	return s.prefix + "snapshot:latest"
}
