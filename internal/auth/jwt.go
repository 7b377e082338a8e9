// Access tokens.
//
// AUTHENTICATION FLOW:
//  1. The client registers or logs in with a username and password.
//  2. The server answers with a signed JWT whose subject is the username, both
//     in the body and in an HttpOnly cookie.
//  3. The client sends it back in that cookie, or as an
//     "Authorization: Bearer <token>" header.
//  4. Middleware validates the token and stores the username in the context.
//
// WHY JWT?
// The token is stateless: everything needed to authenticate a request
// (subject, expiry, issuer) is inside it, and the signature means nobody can
// change those claims without the secret. No session table, no DB lookup.
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header:    {"alg":"HS256","typ":"JWT"}
//	- Payload:   {"sub":"alice","iss":"roomview","exp":1234567890,"jti":"..."}
//	- Signature: HMAC-SHA256(header+"."+payload, secret)

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

const (
	// TokenTTL is the lifetime of an access token.
	TokenTTL = 15 * time.Minute

	issuer = "roomview"
)

// ErrTokenExpired is returned by Validate for a correctly signed but expired token.
var ErrTokenExpired = errors.New("auth: token expired")

// TokenService signs and verifies HS256 access tokens.
// The token subject is the username.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService. The secret must be at least 16
// characters; generate one with `openssl rand -hex 32`.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

type claims struct {
	jwt.RegisteredClaims
}

// Generate issues a token for username valid for TokenTTL.
func (s *TokenService) Generate(username string) (string, error) {
	return s.GenerateWithDuration(username, TokenTTL)
}

// GenerateWithDuration issues a token with a custom lifetime.
//
// WHY A JTI?
// iat and exp have one-second resolution, so two logins in the same second
// would otherwise produce byte-identical tokens. An xid in the jti claim keeps
// every token distinct and gives a handle for a future revocation list.
//
// WHY HS256?
// One service signs and verifies, so a symmetric HMAC key is enough. An
// asymmetric algorithm (RS256) only pays off once other services need to
// verify tokens without holding the signing key.
func (s *TokenService) GenerateWithDuration(username string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        xid.New().String(),
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate verifies signature, algorithm, issuer and expiry, and returns the
// username stored in the subject claim.
//
// ALGORITHM CONFUSION ATTACK:
// without pinning the algorithm, a token with "alg":"none" (or one signed with
// a public key posing as an HMAC secret) could be accepted. WithValidMethods
// plus the keyfunc type check rule that out.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}
