package session

import (
	"context"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/wordslides/config"
)

// exercise runs the behaviour every Store must share.
func exercise(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	s := New()
	require.True(t, ValidID(s.ID))
	s.Words = []string{"Солнце", "Дождь"}
	s.Images = []Image{{Name: "sun.png", Data: []byte{1, 2, 3}}}
	require.NoError(t, store.Save(ctx, s))

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Words, got.Words)
	assert.Equal(t, s.Images, got.Images)

	// 修改返回值不影响已存储的会话
	got.Words[0] = "changed"
	again, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Солнце", again.Words[0])

	blobs := again.Blobs()
	require.Len(t, blobs, 1)
	assert.Equal(t, "sun.png", blobs[0].Name)

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	defer store.Close()
	exercise(t, store)
}

func TestMemoryStoreExpires(t *testing.T) {
	store := NewMemoryStore(20 * time.Millisecond)
	s := New()
	require.NoError(t, store.Save(context.Background(), s))
	assert.Equal(t, 1, store.Len())
	time.Sleep(40 * time.Millisecond)
	_, err := store.Get(context.Background(), s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

// 并发读取的续期写回不能覆盖之后保存的新值。
func TestMemoryStoreGetDoesNotOverwriteSave(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)
	defer store.Close()

	s := New()
	require.NoError(t, store.Save(ctx, s))

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					_, _ = store.Get(ctx, s.ID)
				}
			}
		}()
	}
	for i := 0; i < 2000; i++ {
		s.Words = []string{strconv.Itoa(i)}
		require.NoError(t, store.Save(ctx, s))
		got, err := store.Get(ctx, s.ID)
		require.NoError(t, err)
		require.Equal(t, s.Words, got.Words)
	}
	close(stop)
	wg.Wait()

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"1999"}, got.Words)
}

// TestRedisStore needs a reachable Redis; set WORDSLIDES_TEST_REDIS_ADDR to run it.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("WORDSLIDES_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("WORDSLIDES_TEST_REDIS_ADDR not set")
	}
	store, err := NewRedisStore(RedisConfig{Addr: addr, Prefix: "wordslides:test:", TTL: time.Minute})
	require.NoError(t, err)
	defer store.Close()
	exercise(t, store)
}

func TestRedisStoreUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	store := NewRedisStoreWithClient(client, "", 0)
	defer store.Close()
	_, err := store.Get(context.Background(), "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestOpen(t *testing.T) {
	store, err := Open(config.SessionConfig{Driver: "memory", TTL: time.Minute})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	_, err = Open(config.SessionConfig{Driver: "etcd"})
	assert.Error(t, err)
	assert.False(t, ValidID("not-a-uuid"))
}
