// Package auth guards the operator-only surface of the HTTP control plane:
// a single configured username/password pair exchanged for a short-lived
// bearer token, with a sliding-window limit on failed login attempts so a
// brute-force script can't grind through the password space unchecked.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"log/slog"
	"net"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRateLimited        = errors.New("too many login attempts, please try again later")
)

// unmatchableHash is a syntactically valid bcrypt hash with no known
// preimage, used in place of an operator hash that was never configured so
// CompareHashAndPassword always fails rather than the server refusing to
// start.
const unmatchableHash = "$2a$10$INVALIDHASHXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXX"

// Config configures an Auth instance.
type Config struct {
	Username string
	// PasswordHash is a bcrypt hash produced once at deployment time (e.g.
	// with htpasswd-style tooling). Auth never sees or stores a plaintext
	// operator password.
	PasswordHash string
	JWTSecret    string
	TokenTTL     time.Duration

	// MaxLoginAttempts is the number of failures allowed per client within
	// LoginWindowSeconds before further attempts are rejected outright.
	MaxLoginAttempts   int
	LoginWindowSeconds int
}

// Auth authenticates the configured operator and issues/validates the
// bearer tokens that guard queue-management endpoints.
type Auth struct {
	username     string
	passwordHash []byte
	tokenTTL     time.Duration
	signer       signer
	guard        *loginGuard
}

// New builds an Auth from cfg, applying defaults for any zero-valued field.
func New(cfg Config) *Auth {
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.MaxLoginAttempts == 0 {
		cfg.MaxLoginAttempts = 5
	}
	if cfg.LoginWindowSeconds == 0 {
		cfg.LoginWindowSeconds = 900
	}

	if len(cfg.JWTSecret) < 32 {
		slog.Warn("JWT secret is shorter than 32 characters, this is insecure in production")
	}
	if cfg.JWTSecret == "change-me-in-production-please" {
		slog.Warn("using default JWT secret, change this in production")
	}

	hash := []byte(cfg.PasswordHash)
	if len(hash) == 0 {
		slog.Warn("OPERATOR_PASSWORD_HASH is unset, operator login is disabled")
		hash = []byte(unmatchableHash)
	}

	return &Auth{
		username:     cfg.Username,
		passwordHash: hash,
		tokenTTL:     cfg.TokenTTL,
		signer:       newSigner(cfg.JWTSecret),
		guard:        newLoginGuard(cfg.MaxLoginAttempts, time.Duration(cfg.LoginWindowSeconds)*time.Second),
	}
}

// Authenticate checks username and password against the configured
// operator credentials and, on success, returns a freshly signed bearer
// token. remoteAddr (a "host:port" string as seen on the connection, or a
// bare host such as gin's ClientIP) keys the login rate limiter.
func (a *Auth) Authenticate(username, password, remoteAddr string) (string, error) {
	client := clientKey(remoteAddr)

	if !a.guard.allow(client) {
		cooldown := a.guard.cooldown(client)
		slog.Warn("login rate-limited", "client", client, "retry_after_seconds", int(cooldown.Seconds()))
		return "", ErrRateLimited
	}

	// bcrypt.CompareHashAndPassword always runs, even when the username is
	// already known to be wrong, so a failed login takes the same time
	// whether the username or the password was the mismatch.
	usernameOK := constantTimeEqual(username, a.username)
	passwordOK := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) == nil

	if !usernameOK || !passwordOK {
		a.guard.fail(client)
		return "", ErrInvalidCredentials
	}
	a.guard.succeed(client)

	return a.CreateToken(username)
}

// CreateToken issues a new bearer token for subject, valid for the
// configured TokenTTL.
func (a *Auth) CreateToken(subject string) (string, error) {
	now := time.Now()
	return a.signer.issue(Session{
		Subject:   subject,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(a.tokenTTL).Unix(),
	})
}

// ValidateToken checks tokenStr's structure, signature, and expiry, and
// returns the Session it was issued for.
func (a *Auth) ValidateToken(tokenStr string) (*Session, error) {
	sess, err := a.signer.parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if sess.expired() {
		return nil, ErrExpiredToken
	}
	return sess, nil
}

// RemainingLockout returns how long a client identified by remoteAddr must
// wait before it may attempt another login.
func (a *Auth) RemainingLockout(remoteAddr string) time.Duration {
	return a.guard.cooldown(clientKey(remoteAddr))
}

// constantTimeEqual compares two strings without leaking their length
// difference or byte-position mismatch through timing, by comparing their
// digests rather than the strings themselves.
func constantTimeEqual(a, b string) bool {
	ha := sha256.Sum256([]byte(a))
	hb := sha256.Sum256([]byte(b))
	return hmac.Equal(ha[:], hb[:])
}

// clientKey derives the login-guard key from a remote address, stripping the
// port from a "host:port" form so a client isn't throttled separately per
// source port. An address without a port (IPv4 or IPv6) is used as it is.
func clientKey(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
