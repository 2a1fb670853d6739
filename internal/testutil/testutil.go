// Package testutil holds shared fixtures for package tests: an in-memory
// database with the full schema, a recording event publisher and a map-backed
// cache.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/healthtracker/healthtracker/internal/models"
	"github.com/healthtracker/healthtracker/internal/repository"
	"github.com/healthtracker/healthtracker/pkg/cache"
	"github.com/healthtracker/healthtracker/pkg/queue"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory SQLite database and migrates every model.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// 内存数据库按连接隔离，只保留一个连接
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(repository.Models()...))
	return db
}

var userSeq atomic.Int64

// CreateUser inserts a user with a unique email.
func CreateUser(t *testing.T, db *gorm.DB, firstName, lastName string) *models.User {
	t.Helper()

	user := &models.User{
		UserName:     firstName + lastName,
		Email:        fmt.Sprintf("%s.%s.%d@example.com", firstName, lastName, userSeq.Add(1)),
		PasswordHash: "x",
		FirstName:    firstName,
		LastName:     lastName,
		DateOfCreate: time.Now(),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// MakeFriends stores an accepted friendship as the two mirrored rows.
func MakeFriends(t *testing.T, db *gorm.DB, a, b uint) {
	t.Helper()

	now := time.Now()
	require.NoError(t, db.Create(&models.Friendship{UserID: a, FriendID: b, Status: models.FriendshipAccepted, CreatedAt: now, UpdatedAt: &now}).Error)
	require.NoError(t, db.Create(&models.Friendship{UserID: b, FriendID: a, Status: models.FriendshipAccepted, CreatedAt: now, UpdatedAt: &now}).Error)
}

// PublishedEvent is one event captured by RecordingPublisher.
type PublishedEvent struct {
	Key   string
	Event queue.Event
}

type RecordingPublisher struct {
	mu     sync.Mutex
	events []PublishedEvent
	Err    error
}

func (p *RecordingPublisher) Publish(ctx context.Context, key string, value interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Err != nil {
		return p.Err
	}
	event, ok := value.(queue.Event)
	if !ok {
		return fmt.Errorf("unexpected event value %T", value)
	}
	p.events = append(p.events, PublishedEvent{Key: key, Event: event})
	return nil
}

func (p *RecordingPublisher) Events() []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PublishedEvent(nil), p.events...)
}

// Types lists the captured event types in publish order.
func (p *RecordingPublisher) Types() []queue.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()

	types := make([]queue.EventType, len(p.events))
	for i, e := range p.events {
		types[i] = e.Event.Type
	}
	return types
}

// MemoryCache mimics the RedisClient methods used by the feed and the worker.
type MemoryCache struct {
	mu   sync.Mutex
	data map[string]string
	Sets int
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string]string)}
}

func (c *MemoryCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.data[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return v, nil
}

func (c *MemoryCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	v, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(v), dest)
}

func (c *MemoryCache) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = string(data)
	c.Sets++
	return nil
}

func (c *MemoryCache) IncrMany(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		n, _ := strconv.Atoi(c.data[key])
		c.data[key] = strconv.Itoa(n + 1)
	}
	return nil
}
