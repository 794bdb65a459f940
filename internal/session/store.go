package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound signals an unknown or expired session id.
var ErrSessionNotFound = errors.New("session not found")

// Store persists session records keyed by their opaque id.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	sess      *Session
	expiresAt time.Time
}

type memoryStore struct {
	mu  sync.Mutex
	ttl time.Duration
	m   map[string]memoryEntry
}

// NewMemoryStore returns the default in-process session store.
func NewMemoryStore(ttl time.Duration) Store {
	return &memoryStore{ttl: ttl, m: make(map[string]memoryEntry)}
}

func (s *memoryStore) Get(ctx context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.m[id]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(s.m, id)
		return nil, ErrSessionNotFound
	}
	copied := *entry.sess
	return &copied, nil
}

func (s *memoryStore) Put(ctx context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *sess
	s.m[sess.ID] = memoryEntry{sess: &copied, expiresAt: time.Now().Add(s.ttl)}
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
	return nil
}

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore keeps sessions in Redis as JSON values with a TTL, for
// deployments where the process is not the only session holder.
func NewRedisStore(client *redis.Client, ttl time.Duration) Store {
	return &redisStore{client: client, ttl: ttl}
}

func (s *redisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *redisStore) Put(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(sess.ID), data, s.ttl).Err()
}

func (s *redisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

func (s *redisStore) key(id string) string {
	return "session:" + id
}
