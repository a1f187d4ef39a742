package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrEmptySecret el secreto HS256 no está configurado.
var ErrEmptySecret = errors.New("jwt: secret vacío")

// Claims token de sesión emitido por el proveedor de identidad (formato Supabase Auth).
// Subject es el ID de la identidad.
type Claims struct {
	jwt.RegisteredClaims
	Email        string         `json:"email"`
	Role         string         `json:"role,omitempty"` // "authenticated" para usuarios con sesión
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// Name nombre visible del usuario si el proveedor lo guardó en user_metadata.
func (c *Claims) Name() string {
	for _, k := range []string{"full_name", "name"} {
		if s, ok := c.UserMetadata[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Generate firma un token de sesión equivalente al del proveedor (tests y herramientas locales).
func Generate(secret, subject, email, issuer string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{"authenticated"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: email,
		Role:  "authenticated",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida firma y expiración y devuelve los claims.
// Retorna error si el token es inválido, expirado, sin subject o con firma incorrecta.
func Parse(secret, tokenString string) (*Claims, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("claims inválidos")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("claims sin subject")
	}
	return claims, nil
}
