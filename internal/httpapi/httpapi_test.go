package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/arung-agamani/wavecast/internal/audio"
	"github.com/arung-agamani/wavecast/internal/auth"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	system := audio.New(audio.Options{Lookahead: 1, RingBufferBytes: 1024, MaxConsumers: 4})
	a := auth.New(auth.Config{Username: "operator", JWTSecret: "test-secret-at-least-32-bytes-long"})
	return New(system, a, Options{Addr: ":0", MusicDir: t.TempDir()})
}

func TestHandleStatusUnauthenticated(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/status: got %d, want 200", rec.Code)
	}
}

func TestQueueEndpointsRequireAuth(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/queue/next", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("POST /api/queue/next without token: got %d, want 401", rec.Code)
	}
}

func TestLoginWithWrongPasswordIsUnauthorized(t *testing.T) {
	s := newTestServer(t)

	body := `{"username":"operator","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("login with wrong password: got %d, want 401", rec.Code)
	}
}

func TestEnqueueRejectsPathOutsideMusicDir(t *testing.T) {
	s := newTestServer(t)

	token, err := s.auth.CreateToken("operator")
	if err != nil {
		t.Fatal(err)
	}

	body := `{"filePath":"/etc/passwd"}`
	req := httptest.NewRequest(http.MethodPost, "/api/queue", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("enqueue outside music dir: got %d, want 403", rec.Code)
	}
}
