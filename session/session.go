// Package session stores per-client form state between requests.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ByLCY/wordslides/config"
	"github.com/ByLCY/wordslides/deck"
)

// ErrNotFound indicates that the session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// Image 是上传的一张图片。
type Image struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

// Session 保存一个客户端在表单流程中提交的文字与图片。
type Session struct {
	ID        string    `json:"id"`
	Words     []string  `json:"words"`
	Images    []Image   `json:"images"`
	CreatedAt time.Time `json:"createdAt"`
}

// New 创建带随机 UUID 的空会话。
func New() *Session {
	return &Session{ID: uuid.NewString(), CreatedAt: time.Now().UTC()}
}

// Blobs 把图片转换为组装输入，顺序不变。
func (s *Session) Blobs() []deck.Blob {
	out := make([]deck.Blob, len(s.Images))
	for i, img := range s.Images {
		out[i] = deck.Blob{Name: img.Name, Data: img.Data}
	}
	return out
}

func (s *Session) clone() *Session {
	c := *s
	c.Words = append([]string(nil), s.Words...)
	c.Images = append([]Image(nil), s.Images...)
	return &c
}

// Store defines the session storage interface. Implementations are safe for concurrent use.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// ValidID reports whether id looks like a session id issued by New.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Open builds the store selected by cfg.Driver.
func Open(cfg config.SessionConfig) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryStore(cfg.TTL), nil
	case "redis":
		return NewRedisStore(RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.KeyPrefix,
			TTL:      cfg.TTL,
		})
	default:
		return nil, fmt.Errorf("invalid session driver: %s", cfg.Driver)
	}
}
