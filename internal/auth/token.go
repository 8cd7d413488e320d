package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuerName = "fleetledger"

var (
	// ErrEmptySecret reports an issuer configured without a signing key.
	ErrEmptySecret = errors.New("auth: empty secret")
	// ErrInvalidToken reports a token that failed verification.
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Claims are the JWT claims of a login token.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 login tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	nowFn  func() time.Time
}

// NewIssuer returns an Issuer; a non-positive ttl issues tokens without expiry.
func NewIssuer(secret []byte, ttl time.Duration, now func() time.Time) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	if now == nil {
		now = time.Now
	}
	return &Issuer{secret: secret, ttl: ttl, nowFn: now}, nil
}

// Issue signs a token for the profile.
func (issuer *Issuer) Issue(profile Profile) (string, error) {
	issuedAt := issuer.nowFn().UTC()
	claims := Claims{
		Username: profile.Username,
		Role:     profile.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerName,
			Subject:   profile.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	if issuer.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(issuedAt.Add(issuer.ttl))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(issuer.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns its claims.
func (issuer *Issuer) Parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuerName),
		jwt.WithTimeFunc(issuer.nowFn),
	)
	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("auth: invalid signing method")
		}
		return issuer.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
