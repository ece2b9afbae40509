package budget

import (
	"context"
	"strconv"
	"time"

	"github.com/kailas-cloud/zokey/internal/db"
)

type expireCall struct {
	key string
	ttl time.Duration
	nx  bool
}

// mockKVStore is an in-memory counter store. Error hooks override behaviour.
type mockKVStore struct {
	data    map[string][]byte
	expires []expireCall

	getFn    func(ctx context.Context, key string) ([]byte, error)
	incrFn   func(ctx context.Context, key string, val int64) (int64, error)
	expireFn func(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: map[string][]byte{}}
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKVStore) IncrBy(ctx context.Context, key string, val int64) (int64, error) {
	if m.incrFn != nil {
		return m.incrFn(ctx, key, val)
	}
	n, _ := strconv.ParseInt(string(m.data[key]), 10, 64)
	n += val
	m.data[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

func (m *mockKVStore) Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error {
	if m.expireFn != nil {
		return m.expireFn(ctx, key, ttl, nx)
	}
	m.expires = append(m.expires, expireCall{key: key, ttl: ttl, nx: nx})
	return nil
}
