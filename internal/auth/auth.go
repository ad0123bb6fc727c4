// Package auth verifies bearer tokens issued by the user service and mints
// short-lived service tokens for inter-service calls. Both services must be
// configured with byte-identical secrets or every token silently fails.
package auth

import (
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"

	"ecommerce/internal/httperr"
)

// Claims is the decoded identity of a caller.
type Claims struct {
	UserID uint
	Email  string
	Role   string
}

// Verifier validates and issues HS256 tokens against a pre-shared secret.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier for the given shared secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates a compact token, returning the caller's
// claims. The numeric "id" claim is mandatory; tokens signed with any
// algorithm other than HMAC are rejected.
func (v *Verifier) Verify(tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return Claims{}, httperr.Unauthorizedf("invalid or expired token")
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Claims{}, httperr.Unauthorizedf("invalid token")
	}

	id, ok := mapClaims["id"].(float64)
	if !ok || id <= 0 {
		return Claims{}, httperr.Unauthorizedf("invalid token payload")
	}

	claims := Claims{UserID: uint(id)}
	if email, ok := mapClaims["email"].(string); ok {
		claims.Email = email
	}
	if role, ok := mapClaims["role"].(string); ok {
		claims.Role = role
	}
	return claims, nil
}

// Sign mints a token carrying the given claims, valid for ttl. Used by the
// outbox dispatcher to authenticate the payment-initiation call on behalf
// of the buyer without persisting the buyer's own token.
func (v *Verifier) Sign(claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":    claims.UserID,
		"email": claims.Email,
		"role":  claims.Role,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	})
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
