package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/e5digital/leads-bfa-go/internal/domain"
	"github.com/e5digital/leads-bfa-go/internal/infra/observability"
	"github.com/e5digital/leads-bfa-go/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var sessionTracer = otel.Tracer("service/session")

const (
	sessionIssuer     = "leads-bfa"
	sessionTokenType  = "admin_session"
	revokedKeyPrefix  = "session:revoked:"
	invalidLoginTitle = "❌ Usuário ou senha incorretos"
)

// SessionClaims are the claims carried by admin session tokens.
type SessionClaims struct {
	Username string `json:"username"`
	Type     string `json:"type"`
	jwt.RegisteredClaims
}

// SessionManager guards the dashboard: it checks credentials, issues signed
// sessions and revokes them on logout.
type SessionManager struct {
	verifier port.CredentialVerifier
	revoked  port.Cache[bool]
	secret   []byte
	ttl      time.Duration
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewSessionManager creates a new session manager. revoked must keep entries
// at least as long as ttl.
func NewSessionManager(verifier port.CredentialVerifier, revoked port.Cache[bool], secret string, ttl time.Duration, metrics *observability.Metrics, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		verifier: verifier,
		revoked:  revoked,
		secret:   []byte(secret),
		ttl:      ttl,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// ============================================================
// Login: POST /v1/admin/login
// ============================================================

func (m *SessionManager) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	ctx, span := sessionTracer.Start(ctx, "SessionManager.Login")
	defer span.End()

	username := strings.TrimSpace(req.Username)
	ok, err := m.verifier.Verify(ctx, username, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify credentials: %w", err)
	}
	if !ok {
		m.metrics.IncrLogin("failure")
		m.logger.Warn("admin login rejected", zap.String("username", username))
		return nil, &domain.ErrUnauthorized{Message: invalidLoginTitle}
	}

	now := m.now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		Username:  username,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}
	token, err := m.sign(session)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}

	m.metrics.IncrLogin("success")
	m.logger.Info("admin logged in",
		zap.String("username", username),
		zap.String("session_id", session.ID),
	)

	return &domain.LoginResponse{
		AccessToken:  token,
		ExpiresIn:    int(m.ttl.Seconds()),
		Session:      session,
		Notification: domain.Success("Login realizado com sucesso!", ""),
	}, nil
}

// ============================================================
// Validate: used by middleware
// ============================================================

// Validate returns the session a token stands for. Expired, foreign and
// revoked tokens are rejected with ErrUnauthorized.
func (m *SessionManager) Validate(ctx context.Context, tokenString string) (*domain.Session, error) {
	_, span := sessionTracer.Start(ctx, "SessionManager.Validate")
	defer span.End()

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithIssuer(sessionIssuer))
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "Sessão inválida ou expirada"}
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "Sessão inválida"}
	}
	if claims.Type != sessionTokenType || claims.ID == "" || claims.ExpiresAt == nil {
		return nil, &domain.ErrUnauthorized{Message: "Tipo de token inválido"}
	}
	if revoked, _ := m.revoked.Get(revokedKeyPrefix + claims.ID); revoked {
		return nil, &domain.ErrUnauthorized{Message: "Sessão encerrada"}
	}

	session := &domain.Session{
		ID:        claims.ID,
		Username:  claims.Username,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time
	}
	if session.Expired(m.now()) {
		return nil, &domain.ErrUnauthorized{Message: "Sessão inválida ou expirada"}
	}
	return session, nil
}

// ============================================================
// Logout: POST /v1/admin/logout
// ============================================================

func (m *SessionManager) Logout(ctx context.Context, session *domain.Session) error {
	_, span := sessionTracer.Start(ctx, "SessionManager.Logout")
	defer span.End()

	if session == nil {
		return &domain.ErrUnauthorized{Message: "Sessão inválida"}
	}
	m.revoked.Set(revokedKeyPrefix+session.ID, true)

	m.logger.Info("admin logged out",
		zap.String("username", session.Username),
		zap.String("session_id", session.ID),
	)
	return nil
}

func (m *SessionManager) sign(s *domain.Session) (string, error) {
	claims := SessionClaims{
		Username: s.Username,
		Type:     sessionTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			Subject:   s.Username,
			IssuedAt:  jwt.NewNumericDate(s.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
			Issuer:    sessionIssuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}
