package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/e5digital/leads-bfa-go/internal/domain"
	"github.com/e5digital/leads-bfa-go/internal/infra/cache"
	"github.com/e5digital/leads-bfa-go/internal/infra/observability"
	"github.com/e5digital/leads-bfa-go/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSessionManager(ttl time.Duration) (*service.SessionManager, *observability.Metrics) {
	metrics := observability.NewMetrics()
	m := service.NewSessionManager(
		&mockVerifier{username: "admin", password: "s3nha-forte"},
		cache.New[bool](time.Hour),
		"test-secret",
		ttl,
		metrics,
		zap.NewNop(),
	)
	return m, metrics
}

func TestSession_LoginAndValidate(t *testing.T) {
	m, metrics := newSessionManager(time.Hour)
	ctx := context.Background()

	resp, err := m.Login(ctx, &domain.LoginRequest{Username: "admin", Password: "s3nha-forte"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, 3600, resp.ExpiresIn)
	assert.Equal(t, "Login realizado com sucesso!", resp.Notification.Title)

	session, err := m.Validate(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.Session.ID, session.ID)
	assert.Equal(t, "admin", session.Username)
	assert.Equal(t, int64(1), metrics.FunnelSnapshot().LoginsSucceeded)
}

func TestSession_WrongPassword(t *testing.T) {
	m, metrics := newSessionManager(time.Hour)

	_, err := m.Login(context.Background(), &domain.LoginRequest{Username: "admin", Password: "admin"})

	var unauth *domain.ErrUnauthorized
	require.ErrorAs(t, err, &unauth)
	assert.Equal(t, "❌ Usuário ou senha incorretos", unauth.Message)
	assert.Equal(t, int64(1), metrics.FunnelSnapshot().LoginsFailed)
}

func TestSession_VerifierError(t *testing.T) {
	m := service.NewSessionManager(
		&mockVerifier{err: errors.New("vault unavailable")},
		cache.New[bool](time.Hour), "test-secret", time.Hour,
		observability.NewMetrics(), zap.NewNop(),
	)

	_, err := m.Login(context.Background(), &domain.LoginRequest{Username: "admin", Password: "x"})
	require.Error(t, err)

	var unauth *domain.ErrUnauthorized
	assert.False(t, errors.As(err, &unauth))
}

func TestSession_LogoutRevokes(t *testing.T) {
	m, _ := newSessionManager(time.Hour)
	ctx := context.Background()

	resp, err := m.Login(ctx, &domain.LoginRequest{Username: "admin", Password: "s3nha-forte"})
	require.NoError(t, err)

	session, err := m.Validate(ctx, resp.AccessToken)
	require.NoError(t, err)
	require.NoError(t, m.Logout(ctx, session))

	_, err = m.Validate(ctx, resp.AccessToken)
	var unauth *domain.ErrUnauthorized
	require.ErrorAs(t, err, &unauth)
}

func TestSession_RejectsGarbageAndForeignTokens(t *testing.T) {
	m, _ := newSessionManager(time.Hour)
	other := service.NewSessionManager(
		&mockVerifier{username: "admin", password: "s3nha-forte"},
		cache.New[bool](time.Hour), "another-secret", time.Hour,
		observability.NewMetrics(), zap.NewNop(),
	)
	ctx := context.Background()

	_, err := m.Validate(ctx, "not-a-token")
	assert.Error(t, err)

	resp, err := other.Login(ctx, &domain.LoginRequest{Username: "admin", Password: "s3nha-forte"})
	require.NoError(t, err)
	_, err = m.Validate(ctx, resp.AccessToken)
	assert.Error(t, err)
}

func TestSession_Expired(t *testing.T) {
	m, _ := newSessionManager(-time.Minute)
	ctx := context.Background()

	resp, err := m.Login(ctx, &domain.LoginRequest{Username: "admin", Password: "s3nha-forte"})
	require.NoError(t, err)

	_, err = m.Validate(ctx, resp.AccessToken)
	var unauth *domain.ErrUnauthorized
	require.ErrorAs(t, err, &unauth)
}
