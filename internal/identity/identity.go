// Package identity verifies bearer tokens minted by the external identity
// provider. Password handling, token issuance and session lifecycle all live
// with the provider; this service only checks what it is handed.
package identity

import (
	"context"
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"github.com/dgrijalva/jwt-go"

	"storefront-backend/internal/apperr"
)

// User is the identity resolved from a verified token.
type User struct {
	UID           string
	Email         string
	EmailVerified bool
}

type Verifier interface {
	Verify(ctx context.Context, token string) (User, error)
}

type Claims struct {
	UserID        string `json:"user_id,omitempty"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	jwt.StandardClaims
}

// JWTVerifier checks signature, expiry and, when configured, issuer and
// audience. It accepts HS256 with a shared secret or RS256 with a public key.
type JWTVerifier struct {
	secret    []byte
	publicKey *rsa.PublicKey
	issuer    string
	audience  string
}

type Options struct {
	HMACSecret    string
	PublicKeyFile string
	Issuer        string
	Audience      string
}

func NewJWTVerifier(opts Options) (*JWTVerifier, error) {
	v := &JWTVerifier{issuer: opts.Issuer, audience: opts.Audience}
	if opts.HMACSecret != "" {
		v.secret = []byte(opts.HMACSecret)
	}
	if opts.PublicKeyFile != "" {
		pem, err := os.ReadFile(opts.PublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read public key: %w", err)
		}
		key, err := jwt.ParseRSAPublicKeyFromPEM(pem)
		if err != nil {
			return nil, fmt.Errorf("parse public key: %w", err)
		}
		v.publicKey = key
	}
	if v.secret == nil && v.publicKey == nil {
		return nil, fmt.Errorf("no verification key configured")
	}
	return v, nil
}

var errInvalidToken = apperr.Unauthorized("Invalid token")

func (v *JWTVerifier) keyFunc(token *jwt.Token) (interface{}, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if v.secret != nil {
			return v.secret, nil
		}
	case *jwt.SigningMethodRSA:
		if v.publicKey != nil {
			return v.publicKey, nil
		}
	}
	return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
}

// Verify returns the token's user. Every failure maps to the same
// Unauthorized error so callers cannot tell which check failed.
func (v *JWTVerifier) Verify(_ context.Context, raw string) (User, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, v.keyFunc)
	if err != nil || !token.Valid {
		return User{}, errInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return User{}, errInvalidToken
	}
	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return User{}, errInvalidToken
	}
	if v.audience != "" && !claims.VerifyAudience(v.audience, true) {
		return User{}, errInvalidToken
	}

	uid := claims.Subject
	if uid == "" {
		uid = claims.UserID
	}
	if uid == "" {
		return User{}, errInvalidToken
	}
	return User{UID: uid, Email: claims.Email, EmailVerified: claims.EmailVerified}, nil
}

// IssueHMAC mints an HS256 token accepted by a verifier sharing secret. It
// exists for local development and tests; production tokens come from the
// identity provider.
func IssueHMAC(secret string, user User, issuer, audience string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:        user.UID,
		Email:         user.Email,
		EmailVerified: user.EmailVerified,
		StandardClaims: jwt.StandardClaims{
			Subject:   user.UID,
			Issuer:    issuer,
			Audience:  audience,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
