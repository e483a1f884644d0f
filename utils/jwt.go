package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateJWT signs an HS256 token for subject.
func GenerateJWT(subject, email, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   subject,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	})
	return token.SignedString([]byte(secret))
}

// Claims is what the service reads from a verified token.
type Claims struct {
	Subject string
	Email   string
}

// ParseJWT verifies an HS256 token; the subject claim is required.
func ParseJWT(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return nil, err
	}
	if sub == "" {
		return nil, errors.New("token has no subject")
	}
	out := &Claims{Subject: sub}
	if mc, ok := token.Claims.(jwt.MapClaims); ok {
		out.Email, _ = mc["email"].(string)
	}
	return out, nil
}
