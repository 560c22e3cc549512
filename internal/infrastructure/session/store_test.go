package session

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
	"github.com/stockmgmt/dashboard/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func sampleSession() Data {
	return Data{
		Token: "header.payload.sig",
		User: &stock.User{
			Username:    "alice",
			Email:       "alice@example.com",
			Role:        stock.RoleAdmin,
			Active:      true,
			Permissions: []string{stock.PermissionViewDashboard},
		},
	}
}

// exerciseStore runs the shared Store contract against s
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	empty, err := s.Load(ctx)
	require.NoError(t, err)
	assert.False(t, empty.Complete())

	want := sampleSession()
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, got.Complete())
	assert.Equal(t, want.Token, got.Token)
	assert.Equal(t, *want.User, *got.User)

	require.NoError(t, s.Save(ctx, Data{Token: "only-token"}))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "only-token", got.Token)
	assert.Nil(t, got.User)
	assert.False(t, got.Complete())

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx), "clearing twice is not an error")
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Data{}, got)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	data := sampleSession()
	require.NoError(t, s.Save(context.Background(), data))

	data.User.Permissions[0] = "tampered"
	got, _ := s.Load(context.Background())
	assert.Equal(t, stock.PermissionViewDashboard, got.User.Permissions[0])
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "session.json"))
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestFileStore_PermissionsAndKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), sampleSession()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"auth_token"`)
	assert.Contains(t, string(raw), `"auth_user"`)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))

	s, err := NewFileStore(path)
	require.NoError(t, err)
	_, err = s.Load(context.Background())
	assert.ErrorIs(t, err, ErrCorrupt)

	require.NoError(t, os.WriteFile(path, []byte(`{"auth_token":"t","auth_user":"not-an-object"}`), 0o600))
	_, err = s.Load(context.Background())
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestNewFileStore_RequiresPath(t *testing.T) {
	_, err := NewFileStore("")
	assert.Error(t, err)
}

// TestRedisStore runs against a real Redis when STOCKDASH_TEST_REDIS_ADDR is set
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("STOCKDASH_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("STOCKDASH_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	prefix := "stockdash:test:" + strconv.FormatInt(time.Now().UnixNano(), 10) + ":"
	s := NewRedisStoreWithClient(client, prefix, time.Minute)
	exerciseStore(t, s)

	require.NoError(t, s.Save(context.Background(), sampleSession()))
	ttl, err := client.TTL(context.Background(), prefix+TokenKey).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	require.NoError(t, s.Clear(context.Background()))
}

func TestFactory_CreateStore(t *testing.T) {
	unreachable := config.RedisConfig{Host: "127.0.0.1", Port: 1}

	t.Run("memory", func(t *testing.T) {
		s, err := NewFactory(config.SessionConfig{Store: StoreMemory}, unreachable).CreateStore()
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, s)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "s.json")
		s, err := NewFactory(config.SessionConfig{Store: StoreFile, FilePath: path}, unreachable).CreateStore()
		require.NoError(t, err)
		require.IsType(t, &FileStore{}, s)
		assert.Equal(t, path, s.(*FileStore).Path())
	})

	t.Run("redis falls back to memory", func(t *testing.T) {
		core, recorded := observer.New(zapcore.WarnLevel)
		s, err := NewFactory(config.SessionConfig{Store: StoreRedis}, unreachable, WithLogger(zap.New(core))).CreateStore()
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, s)
		assert.Equal(t, 1, recorded.Len())
	})

	t.Run("redis without fallback fails", func(t *testing.T) {
		_, err := NewFactory(config.SessionConfig{Store: StoreRedis}, unreachable, WithInMemoryFallback(false)).CreateStore()
		assert.Error(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := NewFactory(config.SessionConfig{Store: "cookie"}, unreachable).CreateStore()
		assert.Error(t, err)
	})
}
