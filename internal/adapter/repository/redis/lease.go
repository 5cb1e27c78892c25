package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lua scripts comparing the stored owner token before touching the key, so a
// worker whose lease already expired cannot renew or release a lease that has
// since been granted to someone else.
var (
	renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)
)

// LeaseStore implements usecase.LeaseStore with Redis SET NX PX leases.
// A lease is a key holding its owner's token; expiry is Redis-side, so a
// crashed worker's claim evaporates without any cleanup step.
type LeaseStore struct {
	client *redis.Client
	prefix string
}

// NewLeaseStore creates a new LeaseStore.
func NewLeaseStore(client *redis.Client) *LeaseStore {
	return &LeaseStore{
		client: client,
		prefix: "lease:cheque:",
	}
}

// Acquire claims the key for owner until ttl elapses.
func (s *LeaseStore) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, s.prefix+key, owner, ttl).Result()
}

// Renew extends a lease the owner still holds.
func (s *LeaseStore) Renew(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	res, err := renewScript.Run(ctx, s.client, []string{s.prefix + key}, owner, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}

	return res == 1, nil
}

// Release drops the lease if owner still holds it. Releasing a lease that
// expired or moved on is not an error; the work it guarded is already
// arbitrated by the ledger's compare-and-set.
func (s *LeaseStore) Release(ctx context.Context, key, owner string) error {
	_, err := releaseScript.Run(ctx, s.client, []string{s.prefix + key}, owner).Int64()
	if err != nil && err != redis.Nil {
		return err
	}

	return nil
}
