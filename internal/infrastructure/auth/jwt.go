package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingUsername  = errors.New("missing username in claims")
	ErrTokenBlacklisted = errors.New("token has been revoked")
)

// Claims are the claims carried by access tokens
type Claims struct {
	jwt.RegisteredClaims
	Username    string     `json:"username"`
	Role        stock.Role `json:"role,omitempty"`
	Permissions []string   `json:"permissions,omitempty"`
}

// TokenIssuer signs and verifies HS256 access tokens
type TokenIssuer struct {
	secret     []byte
	expiration time.Duration
	issuer     string
	now        func() time.Time
}

// NewTokenIssuer creates a token issuer
func NewTokenIssuer(secret string, expiration time.Duration, issuer string) *TokenIssuer {
	if expiration <= 0 {
		expiration = 30 * time.Minute
	}
	return &TokenIssuer{
		secret:     []byte(secret),
		expiration: expiration,
		issuer:     issuer,
		now:        time.Now,
	}
}

// Issue creates a signed access token for user in the backend's login response shape
func (s *TokenIssuer) Issue(user stock.User) (*stock.Token, error) {
	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   user.Username,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Username:    user.Username,
		Role:        user.Role,
		Permissions: user.Permissions,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	u := user
	return &stock.Token{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.expiration.Seconds()),
		User:        &u,
	}, nil
}

// Validate verifies the signature and time claims of an access token
func (s *TokenIssuer) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.Username == "" {
		return nil, ErrMissingUsername
	}
	return claims, nil
}

// Expiration returns the access token lifetime
func (s *TokenIssuer) Expiration() time.Duration {
	return s.expiration
}

// GetRemainingTTL returns the time until the claims expire, never negative
func (c *Claims) GetRemainingTTL(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	if remaining := c.ExpiresAt.Sub(now); remaining > 0 {
		return remaining
	}
	return 0
}

// PeekExpiry reads the exp claim without verifying the signature. The client
// cannot verify tokens; it only uses this to skip validating a token that has
// already run out. ok is false when the token is not a JWT or carries no exp.
func PeekExpiry(tokenString string) (exp time.Time, ok bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, false
	}
	nd, err := claims.GetExpirationTime()
	if err != nil || nd == nil {
		return time.Time{}, false
	}
	return nd.Time, true
}

// IsExpired reports whether the token carries an exp claim at or before now.
// Opaque tokens are never considered expired.
func IsExpired(tokenString string, now time.Time) bool {
	exp, ok := PeekExpiry(tokenString)
	return ok && !now.Before(exp)
}
