package redis

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rentwise/rentwise-backend/pkg/config"
	"github.com/stretchr/testify/require"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	allowed, count, err := client.FixedWindowAllow(ctx, "login:ip:1.2.3.4", 2, time.Second)
	require.NoError(t, err)
	require.True(t, allowed)
	require.EqualValues(t, 1, count)
	require.Equal(t, map[string]int64{"rw:rate_limit:login:ip:1.2.3.4": 1000}, mock.pexpire)

	allowed, count, err = client.FixedWindowAllow(ctx, "login:ip:1.2.3.4", 2, time.Second)
	require.NoError(t, err)
	require.True(t, allowed)
	require.EqualValues(t, 2, count)

	allowed, count, err = client.FixedWindowAllow(ctx, "login:ip:1.2.3.4", 2, time.Second)
	require.NoError(t, err)
	require.False(t, allowed)
	require.EqualValues(t, 3, count)

	_, _, err = client.FixedWindowAllow(ctx, "login:ip:1.2.3.4", 2, 0)
	require.Error(t, err)
}

func TestCompareAndDelete(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}
	key := client.LockKey("cron-worker:prod")
	require.NoError(t, client.Set(ctx, key, "holder-a", time.Minute))

	removed, err := client.CompareAndDelete(ctx, key, "holder-b")
	require.NoError(t, err)
	require.False(t, removed)
	require.Contains(t, mock.data, key)

	removed, err = client.CompareAndDelete(ctx, key, "holder-a")
	require.NoError(t, err)
	require.True(t, removed)
	require.NotContains(t, mock.data, key)
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	require.ErrorIs(t, client.Ping(context.Background()), errNotInitialized)
	_, _, err := client.FixedWindowAllow(context.Background(), "x", 1, time.Second)
	require.ErrorIs(t, err, errNotInitialized)
	require.NoError(t, client.Close())
}

func TestOneTimeTokenConsumedOnce(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	key := client.OneTimeTokenKey("reset", "abc")
	require.NoError(t, client.Set(ctx, key, "user-1", time.Hour))

	val, err := client.GetDel(ctx, key)
	require.NoError(t, err)
	require.Equal(t, "user-1", val)

	_, err = client.GetDel(ctx, key)
	require.ErrorIs(t, err, redis.Nil)
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	require.Equal(t, "rw:idempotency:scope:id", client.IdempotencyKey("scope", "id"))
	require.Equal(t, "rw:rate_limit:scope", client.RateLimitKey("scope"))
	require.Equal(t, "rw:lock:cron", client.LockKey("cron"))
	require.Equal(t, "rw:session:access:jti", client.AccessSessionKey("jti"))
	require.Equal(t, "rw:token:invite:tok", client.OneTimeTokenKey("invite", "tok"))
	require.Equal(t, "rw:token:tok", client.OneTimeTokenKey("", "tok"), "empty parts are skipped")
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	require.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2", PoolSize: 7})
	require.NoError(t, err)
	require.Equal(t, "localhost:6379", opts.Addr)
	require.Equal(t, 2, opts.DB)
	require.Equal(t, 7, opts.PoolSize)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6380", DB: 3})
	require.NoError(t, err)
	require.Equal(t, "cache:6380", opts.Addr)
	require.Equal(t, 3, opts.DB)
}

// mockCmdable emulates the handful of commands and scripts the client issues.
type mockCmdable struct {
	redis.Scripter
	data    map[string]string
	counter map[string]int64
	pexpire map[string]int64
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data:    make(map[string]string),
		counter: make(map[string]int64),
		pexpire: make(map[string]int64),
	}
}

// EvalSha always misses so Script.Run falls back to Eval with the source.
func (m *mockCmdable) EvalSha(context.Context, string, []string, ...any) *redis.Cmd {
	return redis.NewCmdResult(nil, noScriptError{})
}

type noScriptError struct{}

func (noScriptError) Error() string { return "NOSCRIPT No matching script" }
func (noScriptError) RedisError()   {}

func (m *mockCmdable) Eval(_ context.Context, script string, keys []string, args ...any) *redis.Cmd {
	key := keys[0]
	switch {
	case strings.Contains(script, "INCR"):
		m.counter[key]++
		if m.counter[key] == 1 {
			m.pexpire[key] = args[0].(int64)
		}
		return redis.NewCmdResult(m.counter[key], nil)
	case strings.Contains(script, "DEL"):
		if v, ok := m.data[key]; ok && v == args[0].(string) {
			delete(m.data, key)
			return redis.NewCmdResult(int64(1), nil)
		}
		return redis.NewCmdResult(int64(0), nil)
	}
	return redis.NewCmdResult(nil, fmt.Errorf("unexpected script %q", script))
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) GetDel(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	delete(m.data, key)
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
