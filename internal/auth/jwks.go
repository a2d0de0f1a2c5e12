package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

const (
	defaultJWKSCacheTTL = 5 * time.Minute
	// minRefreshInterval bounds how often unknown key ids can force a fetch.
	minRefreshInterval = 10 * time.Second
)

var errUnknownKey = errors.New("unknown token key")

// KeySet resolves RS256 public keys by "kid" from a JWKS endpoint.
//
// Keys live in a ttlcache keyed by kid. Each key expires after the
// endpoint's Cache-Control max-age (or the configured default); a lookup
// for a missing or expired kid triggers one refresh of the whole set.
type KeySet struct {
	url        string
	ttl        time.Duration
	httpClient *http.Client
	cache      *ttlcache.Cache[string, *rsa.PublicKey]

	mu              sync.Mutex
	lastRefresh     time.Time
	refreshInterval time.Duration
}

func NewKeySet(url string, ttl time.Duration, client *http.Client) *KeySet {
	if ttl <= 0 {
		ttl = defaultJWKSCacheTTL
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &KeySet{
		url:        url,
		ttl:        ttl,
		httpClient: client,
		cache: ttlcache.New(
			ttlcache.WithTTL[string, *rsa.PublicKey](ttl),
			ttlcache.WithDisableTouchOnHit[string, *rsa.PublicKey](),
		),
		refreshInterval: minRefreshInterval,
	}
}

// Key returns the public key for kid, fetching the set if needed.
func (k *KeySet) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	kid = strings.TrimSpace(kid)
	if kid == "" {
		return nil, errUnknownKey
	}

	if item := k.cache.Get(kid); item != nil {
		return item.Value(), nil
	}

	if err := k.refresh(ctx); err != nil {
		return nil, err
	}

	if item := k.cache.Get(kid); item != nil {
		return item.Value(), nil
	}
	return nil, errUnknownKey
}

// refresh re-fetches the key set unless a fetch was attempted very recently.
// Concurrent callers serialize on mu so one miss storm means one fetch.
func (k *KeySet) refresh(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if !k.lastRefresh.IsZero() && time.Since(k.lastRefresh) < k.refreshInterval {
		return nil
	}
	// Recorded before fetching so failed fetches are rate limited too.
	k.lastRefresh = time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.url, nil)
	if err != nil {
		return fmt.Errorf("auth: building jwks request: %w", err)
	}
	resp, err := k.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth: fetching jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("auth: fetching jwks: status %d", resp.StatusCode)
	}

	var payload struct {
		Keys []jwk `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("auth: decoding jwks: %w", err)
	}

	ttl := parseCacheMaxAge(resp.Header.Get("Cache-Control"))
	if ttl <= 0 {
		ttl = k.ttl
	}

	loaded := 0
	for _, key := range payload.Keys {
		if !strings.EqualFold(strings.TrimSpace(key.Kty), "RSA") {
			continue
		}
		kid := strings.TrimSpace(key.Kid)
		if kid == "" {
			continue
		}
		pub, err := parseRSAPublicKey(key.N, key.E)
		if err != nil {
			continue
		}
		k.cache.Set(kid, pub, ttl)
		loaded++
	}
	if loaded == 0 {
		return errors.New("auth: jwks contains no usable rsa keys")
	}
	return nil
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func parseRSAPublicKey(nRaw, eRaw string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(nRaw))
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(eRaw))
	if err != nil {
		return nil, err
	}
	n := new(big.Int).SetBytes(nBytes)
	e := new(big.Int).SetBytes(eBytes)
	if n.Sign() <= 0 || !e.IsInt64() || e.Int64() <= 0 {
		return nil, errors.New("invalid rsa key")
	}
	return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
}

// parseCacheMaxAge reads max-age from a Cache-Control header; 0 if absent.
func parseCacheMaxAge(cacheControl string) time.Duration {
	for _, part := range strings.Split(cacheControl, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		raw, ok := strings.CutPrefix(part, "max-age=")
		if !ok {
			continue
		}
		secs, err := time.ParseDuration(strings.TrimSpace(raw) + "s")
		if err != nil {
			return 0
		}
		return secs
	}
	return 0
}
