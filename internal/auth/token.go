package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrMissingToken = errors.New("missing authorization token")
)

const tokenAlg = "HS256"

// tokenHeader is the fixed JOSE header wavecast issues and accepts: HS256
// only, no algorithm negotiation.
type tokenHeader struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

// Session describes who a bearer token was issued to and when it expires.
type Session struct {
	Subject   string `json:"sub"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// signer produces and verifies HS256 tokens over a single shared secret.
type signer struct {
	secret []byte
}

func newSigner(secret string) signer {
	return signer{secret: []byte(secret)}
}

// issue encodes claims as header.payload.signature.
func (s signer) issue(sess Session) (string, error) {
	headerJSON, err := json.Marshal(tokenHeader{Alg: tokenAlg, Typ: "JWT"})
	if err != nil {
		return "", fmt.Errorf("auth: marshal token header: %w", err)
	}
	payloadJSON, err := json.Marshal(sess)
	if err != nil {
		return "", fmt.Errorf("auth: marshal session: %w", err)
	}

	signingInput := b64encode(headerJSON) + "." + b64encode(payloadJSON)
	return signingInput + "." + s.mac(signingInput), nil
}

// parse validates the structure and signature of tokenStr and, if it passes,
// decodes and returns its Session. Expiry is NOT checked here; callers that
// care about expiry call Session.expired separately so a caller inspecting a
// just-expired token can still read who it belonged to.
func (s signer) parse(tokenStr string) (*Session, error) {
	if len(tokenStr) > 4096 {
		return nil, ErrInvalidToken
	}

	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		return nil, ErrInvalidToken
	}

	headerJSON, err := b64decode(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: malformed header", ErrInvalidToken)
	}
	var header tokenHeader
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, fmt.Errorf("%w: malformed header", ErrInvalidToken)
	}
	if header.Alg != tokenAlg {
		return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrInvalidToken, header.Alg)
	}

	signingInput := parts[0] + "." + parts[1]
	if !s.macEqual(signingInput, parts[2]) {
		return nil, ErrInvalidToken
	}

	payloadJSON, err := b64decode(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: malformed payload", ErrInvalidToken)
	}
	var sess Session
	if err := json.Unmarshal(payloadJSON, &sess); err != nil {
		return nil, fmt.Errorf("%w: malformed payload", ErrInvalidToken)
	}
	if sess.Subject == "" {
		return nil, fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}

	const clockSkew = 60
	if sess.IssuedAt > time.Now().Unix()+clockSkew {
		return nil, fmt.Errorf("%w: issued in the future", ErrInvalidToken)
	}

	return &sess, nil
}

func (sess Session) expired() bool {
	return time.Now().Unix() > sess.ExpiresAt
}

func (s signer) mac(input string) string {
	return b64encode(s.rawMAC(input))
}

func (s signer) rawMAC(input string) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(input))
	return h.Sum(nil)
}

// macEqual recomputes the MAC over input and compares its canonical
// base64url encoding against the signature sigB64 in constant time.
// Comparing encodings rather than decoded bytes rejects a signature whose
// unused trailing bits were altered, which the decoder would accept.
func (s signer) macEqual(input, sigB64 string) bool {
	return hmac.Equal([]byte(sigB64), []byte(s.mac(input)))
}

func b64encode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

func b64decode(s string) ([]byte, error) {
	if data, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.URLEncoding.DecodeString(s)
}

// ExtractBearerToken pulls the token out of an Authorization header value of
// the form "Bearer <token>". It does no validation of the token itself.
func ExtractBearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", fmt.Errorf("%w: expected Bearer scheme", ErrInvalidToken)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
