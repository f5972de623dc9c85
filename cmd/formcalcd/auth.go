package main

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// claims is the JWT payload formcalcd issues and validates for bearer
// tokens gating every API route except /health. It carries no user
// identity beyond a subject; formcalcd has no user model of its own,
// only a bearer-token
// gate in front of the engine.
type claims struct {
	jwt.RegisteredClaims
}

var jwtSecret = []byte(loadJWTSecret())

func loadJWTSecret() string {
	secret := os.Getenv("FORMCALCD_JWT_SECRET")
	if secret == "" {
		secret = "formcalcd-dev-secret-change-in-production"
	}
	return secret
}

// issueToken mints a bearer token for subject, valid for ttl.
func issueToken(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	c := &claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(jwtSecret)
}

// validateToken parses and verifies tokenString, returning its claims.
func validateToken(tokenString string) (*claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return c, nil
}
