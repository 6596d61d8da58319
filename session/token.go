package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "pizza-ordering-api"

var signingMethod = jwt.SigningMethodHS256

// mintToken signs a cookie value that names the session id in its jti.
func mintToken(secret []byte, id string, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		ID:        id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// parseToken returns the session id carried by a cookie value.
func parseToken(secret []byte, raw string, now time.Time) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(
		raw,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != signingMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return secret, nil
		},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return "", err
	}
	id := strings.TrimSpace(claims.ID)
	if id == "" {
		return "", fmt.Errorf("session token has no id")
	}
	return id, nil
}
