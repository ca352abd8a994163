package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-audit/internal/domain"
)

var ErrAuditNotFound = errors.New("audit not found")

// AuditStore guarda reportes completos para consultarlos despues por id.
type AuditStore interface {
	AuditRecorder
	Get(ctx context.Context, id string) (domain.AuditReport, error)
	Latest(ctx context.Context) (domain.AuditReport, error)
}

type memoryAuditStore struct {
	mu       sync.Mutex
	items    map[string]domain.AuditReport
	latestID string
}

func NewMemoryAuditStore() AuditStore {
	return &memoryAuditStore{
		items: make(map[string]domain.AuditReport),
	}
}

func (s *memoryAuditStore) Save(_ context.Context, report domain.AuditReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(report.ID) == "" {
		return errors.New("audit id is required")
	}
	s.items[report.ID] = report
	s.latestID = report.ID
	return nil
}

func (s *memoryAuditStore) Get(_ context.Context, id string) (domain.AuditReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	report, ok := s.items[id]
	if !ok {
		return domain.AuditReport{}, ErrAuditNotFound
	}
	return report, nil
}

func (s *memoryAuditStore) Latest(ctx context.Context) (domain.AuditReport, error) {
	s.mu.Lock()
	id := s.latestID
	s.mu.Unlock()
	if id == "" {
		return domain.AuditReport{}, ErrAuditNotFound
	}
	return s.Get(ctx, id)
}

type redisKV interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

type redisAuditStore struct {
	client redisKV
	ttl    time.Duration
	prefix string
}

// NewRedisAuditStore guarda reportes como JSON bajo audit:run:<id> con TTL.
func NewRedisAuditStore(client *redis.Client, ttl time.Duration) AuditStore {
	if client == nil {
		return nil
	}
	return newRedisAuditStore(client, ttl)
}

func newRedisAuditStore(client redisKV, ttl time.Duration) *redisAuditStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisAuditStore{
		client: client,
		ttl:    ttl,
		prefix: "audit:",
	}
}

func (s *redisAuditStore) Save(ctx context.Context, report domain.AuditReport) error {
	if strings.TrimSpace(report.ID) == "" {
		return errors.New("audit id is required")
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal audit: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.client.Set(ctx, s.runKey(report.ID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set audit: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+"latest", report.ID, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set latest audit: %w", err)
	}
	return nil
}

func (s *redisAuditStore) Get(ctx context.Context, id string) (domain.AuditReport, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.AuditReport{}, ErrAuditNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	raw, err := s.client.Get(ctx, s.runKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.AuditReport{}, ErrAuditNotFound
	}
	if err != nil {
		return domain.AuditReport{}, fmt.Errorf("redis get audit: %w", err)
	}
	var report domain.AuditReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return domain.AuditReport{}, fmt.Errorf("unmarshal audit: %w", err)
	}
	return report, nil
}

func (s *redisAuditStore) Latest(ctx context.Context) (domain.AuditReport, error) {
	lctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	id, err := s.client.Get(lctx, s.prefix+"latest").Result()
	cancel()
	if errors.Is(err, redis.Nil) {
		return domain.AuditReport{}, ErrAuditNotFound
	}
	if err != nil {
		return domain.AuditReport{}, fmt.Errorf("redis get latest audit: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *redisAuditStore) runKey(id string) string {
	return s.prefix + "run:" + id
}
