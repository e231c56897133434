package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token purposes. A token minted for one purpose is rejected for another.
const (
	purposeSession = "session"
	purposeReset   = "reset"
	purposeVerify  = "verify"
)

// Claims carries the subject plus what the token may be used for.
// Fingerprint binds reset tokens to the password hash they were issued
// against, so a reset token stops working once the password changes.
type Claims struct {
	jwt.RegisteredClaims
	Purpose     string `json:"purpose"`
	Email       string `json:"email,omitempty"`
	Fingerprint string `json:"fp,omitempty"`
}

type tokenIssuer struct {
	secret []byte
	now    func() time.Time
}

func (t tokenIssuer) issue(uid, purpose string, ttl time.Duration, extra func(*Claims)) (string, error) {
	now := t.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Purpose: purpose,
	}
	if extra != nil {
		extra(&claims)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", purpose, err)
	}
	return signed, nil
}

func (t tokenIssuer) parse(token, purpose string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Purpose != purpose || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func fingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:8])
}
