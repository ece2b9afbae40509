package user

import (
	"context"
	"strconv"
	"time"

	"github.com/kailas-cloud/zokey/internal/db"
)

// memStore is an in-memory store for tests. Error hooks override behaviour.
type memStore struct {
	hashes map[string]map[string]string
	kv     map[string][]byte

	hsetFn  func(ctx context.Context, key string, fields map[string]string) error
	setNXFn func(ctx context.Context, key string, value []byte) (bool, error)
}

func newMemStore() *memStore {
	return &memStore{hashes: map[string]map[string]string{}, kv: map[string][]byte{}}
}

func (m *memStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	h, ok := m.hashes[key]
	if !ok {
		h = map[string]string{}
		m.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

func (m *memStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	out := map[string]string{}
	for k, v := range m.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (m *memStore) HIncrBy(_ context.Context, key, field string, val int64) (int64, error) {
	h, ok := m.hashes[key]
	if !ok {
		h = map[string]string{}
		m.hashes[key] = h
	}
	n, _ := strconv.ParseInt(h[field], 10, 64)
	n += val
	h[field] = strconv.FormatInt(n, 10)
	return n, nil
}

func (m *memStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.hashes[key]
	return ok, nil
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.kv[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) SetNX(ctx context.Context, key string, value []byte) (bool, error) {
	if m.setNXFn != nil {
		return m.setNXFn(ctx, key, value)
	}
	if _, ok := m.kv[key]; ok {
		return false, nil
	}
	m.kv[key] = value
	return true, nil
}

var fixedNow = time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)

func newTestRepo(s *memStore) *Repo {
	r := New(s, "zokey:")
	r.now = func() time.Time { return fixedNow }
	n := 0
	r.newID = func() string {
		n++
		return "user-" + strconv.Itoa(n)
	}
	return r
}
