package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/gradebook/internal/models"
)

func newTestConfig(t *testing.T) *Config {
	t.Helper()
	config, err := ParseConfig("test.toml", []byte(`
[server]
port = ":0"
debug = true

[database]
dsn = ":memory:"
migrations_dir = "../../migrations"

[session]
secret = "0123456789abcdef"
`))
	require.NoError(t, err)
	return config
}

func TestNewServiceFromConfig(t *testing.T) {
	ctx := context.Background()
	service, err := NewServiceFromConfig(newTestConfig(t))
	require.NoError(t, err)
	defer service.Close()

	identity, err := service.Accounts.Login(ctx, "pushpita", "pushpita123")
	require.NoError(t, err)
	assert.Equal(t, int64(9001), identity.UserID)

	created, err := service.Accounts.Signup(ctx, models.SignupRequest{
		Username:        "newbie",
		Email:           "newbie@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	require.NoError(t, err)

	stored, err := service.Store.FindUser(ctx, "newbie")
	require.NoError(t, err)
	assert.Equal(t, created.UserID, stored.ID)
}

type flakyPinger struct {
	err error
}

func (p *flakyPinger) Ping(context.Context) error {
	return p.err
}

func TestProbe(t *testing.T) {
	target := &flakyPinger{}
	probe, err := NewProbe(target, time.Minute)
	require.NoError(t, err)

	assert.True(t, probe.Last().CheckedAt.IsZero())

	probe.Check()
	assert.True(t, probe.Last().Up)
	assert.Empty(t, probe.Last().Error)

	target.err = errors.New("connection refused")
	probe.Check()
	assert.False(t, probe.Last().Up)
	assert.Equal(t, "connection refused", probe.Last().Error)
}

func TestProbeRunsDeferredSetupOnceReachable(t *testing.T) {
	target := &flakyPinger{err: errors.New("connection refused")}
	probe, err := NewProbe(target, time.Minute)
	require.NoError(t, err)

	calls := 0
	failures := 1
	probe.OnRecover(func() error {
		calls++
		if failures > 0 {
			failures--
			return errors.New("relation does not exist")
		}
		return nil
	})

	probe.Check()
	assert.Equal(t, 0, calls)

	target.err = nil
	probe.Check()
	assert.Equal(t, 1, calls)

	probe.Check()
	assert.Equal(t, 2, calls)

	probe.Check()
	assert.Equal(t, 2, calls)
}

func TestNewServiceFromConfigRejectsBadTTL(t *testing.T) {
	config := newTestConfig(t)
	config.Session.TTL = "forever"

	_, err := NewServiceFromConfig(config)
	assert.Error(t, err)
}
