// Package auth holds the credential primitives of the server: the bcrypt
// password hasher and the HS256 session token issuer.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenValidity is the session token lifetime used when none is
// configured. JWT times are whole seconds, so iat is the issue time truncated
// to the second and exp is exactly iat plus the validity.
const DefaultTokenValidity = time.Hour

// ErrMissingSecret is returned by NewIssuer when the signing secret is empty.
var ErrMissingSecret = errors.New("auth: token signing secret is empty")

// Claims are the JWT claims carrying the bound user id next to the registered
// iat/exp claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
}

// Issuer signs and verifies session tokens with a secret fixed at
// construction time.
type Issuer struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

// NewIssuer builds an Issuer. A zero validity means DefaultTokenValidity.
func NewIssuer(secret []byte, validity time.Duration) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	if validity <= 0 {
		validity = DefaultTokenValidity
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &Issuer{secret: key, validity: validity, now: time.Now}, nil
}

// Validity reports the lifetime of issued tokens.
func (i *Issuer) Validity() time.Duration {
	return i.validity
}

// Issue returns a signed token bound to userID that expires after the
// configured validity.
func (i *Issuer) Issue(userID string) (string, error) {
	now := i.now().Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.validity)),
		},
		UserID: userID,
	})

	tokenString, err := token.SignedString(i.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify checks the signature and expiry of tokenString and returns the
// bound user id. Failures are common.ErrTokenExpired or common.ErrInvalidToken.
func (i *Issuer) Verify(tokenString string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" {
		return "", common.ErrInvalidToken
	}

	return claims.UserID, nil
}
