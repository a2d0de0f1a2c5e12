package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// jwksServer serves whatever keys it currently holds and counts fetches.
type jwksServer struct {
	*httptest.Server
	mu      sync.Mutex
	keys    map[string]*rsa.PublicKey
	fetches atomic.Int32
}

func newJWKSServer(t *testing.T) *jwksServer {
	t.Helper()
	s := &jwksServer{keys: map[string]*rsa.PublicKey{}}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.fetches.Add(1)
		s.mu.Lock()
		defer s.mu.Unlock()

		keys := make([]map[string]string, 0, len(s.keys))
		for kid, pub := range s.keys {
			keys = append(keys, toJWK(kid, pub))
		}
		w.Header().Set("Cache-Control", "public, max-age=60")
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": keys})
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *jwksServer) setKeys(keys map[string]*rsa.PublicKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = keys
}

func toJWK(kid string, pub *rsa.PublicKey) map[string]string {
	return map[string]string{
		"kty": "RSA",
		"kid": kid,
		"alg": "RS256",
		"use": "sig",
		"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}

func newRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey: %v", err)
	}
	return key
}

func signRS256(t *testing.T, key *rsa.PrivateKey, kid string, perms []string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, Claims{
		Permissions: perms,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "auth0|casting-assistant",
			Issuer:    "https://issuer.example/",
			Audience:  jwt.ClaimStrings{"bookstore"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return signed
}

func newJWKSTokenService(t *testing.T, url string) *TokenService {
	t.Helper()
	ts, err := NewTokenService(Config{
		JWKSURL:  url,
		Issuer:   "https://issuer.example/",
		Audience: "bookstore",
	})
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	ts.keys.refreshInterval = 0
	return ts
}

func TestJWKS_ValidToken(t *testing.T) {
	key := newRSAKey(t)
	srv := newJWKSServer(t)
	srv.setKeys(map[string]*rsa.PublicKey{"k1": &key.PublicKey})
	ts := newJWKSTokenService(t, srv.URL)

	token := signRS256(t, key, "k1", []string{PermGetBooks}, time.Hour)

	claims, err := ts.Check(context.Background(), "Bearer "+token, PermGetBooks)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if claims.Subject != "auth0|casting-assistant" {
		t.Errorf("Subject = %q", claims.Subject)
	}

	// Second validation is served from the cache.
	if _, err := ts.Validate(context.Background(), token); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got := srv.fetches.Load(); got != 1 {
		t.Errorf("JWKS fetched %d times, want 1", got)
	}
}

func TestJWKS_KeyRotation(t *testing.T) {
	oldKey, newKey := newRSAKey(t), newRSAKey(t)
	srv := newJWKSServer(t)
	srv.setKeys(map[string]*rsa.PublicKey{"old": &oldKey.PublicKey})
	ts := newJWKSTokenService(t, srv.URL)

	if _, err := ts.Validate(context.Background(), signRS256(t, oldKey, "old", nil, time.Hour)); err != nil {
		t.Fatalf("Validate(old) error = %v", err)
	}

	srv.setKeys(map[string]*rsa.PublicKey{"new": &newKey.PublicKey})

	if _, err := ts.Validate(context.Background(), signRS256(t, newKey, "new", nil, time.Hour)); err != nil {
		t.Fatalf("Validate(new) after rotation error = %v", err)
	}
	if got := srv.fetches.Load(); got != 2 {
		t.Errorf("JWKS fetched %d times, want 2", got)
	}
}

func TestJWKS_UnknownKid(t *testing.T) {
	key, stranger := newRSAKey(t), newRSAKey(t)
	srv := newJWKSServer(t)
	srv.setKeys(map[string]*rsa.PublicKey{"k1": &key.PublicKey})
	ts := newJWKSTokenService(t, srv.URL)

	_, err := ts.Validate(context.Background(), signRS256(t, stranger, "nope", nil, time.Hour))
	if !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("Validate() error = %v, want ErrInvalidSignature", err)
	}
}

func TestJWKS_WrongKeyForKid(t *testing.T) {
	key, stranger := newRSAKey(t), newRSAKey(t)
	srv := newJWKSServer(t)
	srv.setKeys(map[string]*rsa.PublicKey{"k1": &key.PublicKey})
	ts := newJWKSTokenService(t, srv.URL)

	_, err := ts.Validate(context.Background(), signRS256(t, stranger, "k1", nil, time.Hour))
	if !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("Validate() error = %v, want ErrInvalidSignature", err)
	}
}

func TestJWKS_Expired(t *testing.T) {
	key := newRSAKey(t)
	srv := newJWKSServer(t)
	srv.setKeys(map[string]*rsa.PublicKey{"k1": &key.PublicKey})
	ts := newJWKSTokenService(t, srv.URL)

	_, err := ts.Validate(context.Background(), signRS256(t, key, "k1", nil, -time.Hour))
	if !errors.Is(err, ErrExpiredToken) {
		t.Errorf("Validate() error = %v, want ErrExpiredToken", err)
	}
}

func TestJWKS_RefreshIsRateLimited(t *testing.T) {
	key := newRSAKey(t)
	srv := newJWKSServer(t)
	srv.setKeys(map[string]*rsa.PublicKey{"k1": &key.PublicKey})
	ts := newJWKSTokenService(t, srv.URL)
	ts.keys.refreshInterval = time.Hour

	for i := 0; i < 5; i++ {
		_, _ = ts.keys.Key(context.Background(), "unknown")
	}
	if got := srv.fetches.Load(); got != 1 {
		t.Errorf("JWKS fetched %d times, want 1", got)
	}
}

func TestJWKS_FailedRefreshIsRateLimited(t *testing.T) {
	var fetches atomic.Int32
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(down.Close)

	ts := newJWKSTokenService(t, down.URL)
	ts.keys.refreshInterval = time.Hour

	if _, err := ts.keys.Key(context.Background(), "k1"); err == nil {
		t.Fatal("Key() should fail while the endpoint is down")
	}
	for i := 0; i < 5; i++ {
		if _, err := ts.keys.Key(context.Background(), "k1"); !errors.Is(err, errUnknownKey) {
			t.Errorf("Key() error = %v, want errUnknownKey", err)
		}
	}
	if got := fetches.Load(); got != 1 {
		t.Errorf("JWKS fetched %d times while down, want 1", got)
	}
}

func TestHS256TokenRejectedWhenOnlyJWKS(t *testing.T) {
	srv := newJWKSServer(t)
	ts := newJWKSTokenService(t, srv.URL)

	hs := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	token, _ := hs.SignedString([]byte(testSecret))

	if _, err := ts.Validate(context.Background(), token); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("Validate() error = %v, want ErrInvalidSignature", err)
	}
}

func TestParseCacheMaxAge(t *testing.T) {
	tests := []struct {
		header string
		want   time.Duration
	}{
		{"", 0},
		{"no-cache", 0},
		{"public, max-age=300", 5 * time.Minute},
		{"MAX-AGE=60, must-revalidate", time.Minute},
		{"max-age=abc", 0},
	}
	for _, tt := range tests {
		if got := parseCacheMaxAge(tt.header); got != tt.want {
			t.Errorf("parseCacheMaxAge(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}
