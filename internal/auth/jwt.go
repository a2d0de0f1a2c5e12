// Package auth verifies bearer tokens and enforces per-route permissions.
//
// TOKEN FLOW:
//  1. An identity provider issues a signed JWT whose "permissions" claim
//     lists scoped strings such as "get:books" or "delete:authors".
//  2. The client sends it as "Authorization: Bearer <token>".
//  3. RequirePermission middleware verifies the token and checks that the
//     route's permission is in the claim before the handler runs.
//
// KEY MATERIAL:
// Two sources are supported and may be combined:
//   - a shared HMAC secret (HS256), used for locally issued tokens
//     (cmd/tokengen, tests)
//   - a JSON Web Key Set URL (RS256), for tokens from an external provider.
//     Keys are cached and re-fetched when an unknown "kid" shows up.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: algorithm + key id → {"alg":"RS256","kid":"k1"}
//	- Payload: claims → {"sub":"...","exp":1234567890,"permissions":[...]}
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"

	"github.com/sakif/bookstore-api/internal/apperror"
)

// The five ways a permission check can fail. All but the last answer 401.
var (
	ErrMissingToken           = apperror.Unauthorized("authorization header is expected")
	ErrMalformedHeader        = apperror.Unauthorized("authorization header must be of the form: Bearer <token>")
	ErrInvalidSignature       = apperror.Unauthorized("token could not be verified")
	ErrExpiredToken           = apperror.Unauthorized("token expired")
	ErrInsufficientPermission = apperror.Forbidden("permission not found")
)

const minSecretLength = 16

// Config configures token verification (and, with a Secret, issuing).
type Config struct {
	Secret       string        // HS256 shared secret; empty disables HS256
	JWKSURL      string        // RS256 key set; empty disables RS256
	Issuer       string        // required "iss" when non-empty
	Audience     string        // required "aud" when non-empty
	Leeway       time.Duration // clock skew tolerance for exp/nbf/iat
	JWKSCacheTTL time.Duration // default key lifetime when the JWKS response has no max-age
	HTTPClient   *http.Client
}

// Claims is the JWT payload. Permissions carries the scoped grants; the
// registered claims cover sub, iss, aud, exp, iat and jti.
type Claims struct {
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// HasPermission reports whether perm was granted.
func (c *Claims) HasPermission(perm string) bool {
	return slices.Contains(c.Permissions, perm)
}

// TokenService verifies bearer tokens and issues HS256 tokens.
type TokenService struct {
	secret   []byte
	issuer   string
	audience string
	leeway   time.Duration
	keys     *KeySet
	methods  []string
}

// NewTokenService builds a TokenService. At least one of Secret or JWKSURL
// must be set.
func NewTokenService(cfg Config) (*TokenService, error) {
	s := &TokenService{
		issuer:   strings.TrimSpace(cfg.Issuer),
		audience: strings.TrimSpace(cfg.Audience),
		leeway:   cfg.Leeway,
	}

	if cfg.Secret != "" {
		if len(cfg.Secret) < minSecretLength {
			return nil, fmt.Errorf("auth: JWT secret must be at least %d characters", minSecretLength)
		}
		s.secret = []byte(cfg.Secret)
		s.methods = append(s.methods, jwt.SigningMethodHS256.Alg())
	}

	if url := strings.TrimSpace(cfg.JWKSURL); url != "" {
		s.keys = NewKeySet(url, cfg.JWKSCacheTTL, cfg.HTTPClient)
		s.methods = append(s.methods, jwt.SigningMethodRS256.Alg())
	}

	if len(s.methods) == 0 {
		return nil, errors.New("auth: a JWT secret or a JWKS URL is required")
	}

	return s, nil
}

// Issue signs an HS256 token for subject carrying permissions.
//
// Every token gets a unique jti from xid (20 chars, URL-safe, time-sortable)
// so individual tokens can be told apart in logs.
func (s *TokenService) Issue(subject string, permissions []string, ttl time.Duration) (string, error) {
	if s.secret == nil {
		return "", errors.New("auth: issuing tokens requires a JWT secret")
	}

	now := time.Now()
	c := Claims{
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        xid.New().String(),
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if s.audience != "" {
		c.Audience = jwt.ClaimStrings{s.audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a raw JWT.
//
// VALIDATION CHECKS:
//   - algorithm is one we have key material for (no "none", no HS/RS confusion)
//   - signature matches
//   - exp is present and in the future (within leeway)
//   - iss / aud match when configured
//
// An expired token yields ErrExpiredToken; every other failure yields
// ErrInvalidSignature.
func (s *TokenService) Validate(ctx context.Context, tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(s.methods),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(s.leeway),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}

	c := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, c, s.keyFunc(ctx), opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if !token.Valid {
		return nil, ErrInvalidSignature
	}

	return c, nil
}

func (s *TokenService) keyFunc(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		switch token.Method.(type) {
		case *jwt.SigningMethodHMAC:
			if s.secret == nil {
				return nil, errors.New("HS256 tokens are not accepted")
			}
			return s.secret, nil
		case *jwt.SigningMethodRSA:
			if s.keys == nil {
				return nil, errors.New("RS256 tokens are not accepted")
			}
			kid, _ := token.Header["kid"].(string)
			return s.keys.Key(ctx, kid)
		default:
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
	}
}

// Check runs the whole pipeline for one request: header parsing, token
// verification and the permission test. It returns the verified claims.
func (s *TokenService) Check(ctx context.Context, header, permission string) (*Claims, error) {
	raw, err := BearerToken(header)
	if err != nil {
		return nil, err
	}

	c, err := s.Validate(ctx, raw)
	if err != nil {
		return nil, err
	}

	if !c.HasPermission(permission) {
		return nil, ErrInsufficientPermission
	}

	return c, nil
}

// BearerToken extracts the token from an Authorization header value.
// The scheme is matched case-insensitively and exactly two parts are required.
func BearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", ErrMissingToken
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrMalformedHeader
	}

	return parts[1], nil
}
