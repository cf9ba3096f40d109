package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"contractlens/internal/config"
	"contractlens/internal/domain"
)

const (
	ContextKeySubject = "subject"
	ContextKeyClaims  = "claims"
)

// TokenValidator parses HS256 bearer tokens issued for the API.
type TokenValidator struct {
	secret []byte
	issuer string
}

// NewTokenValidator creates a TokenValidator from the auth config.
func NewTokenValidator(cfg config.AuthConfig) *TokenValidator {
	return &TokenValidator{secret: []byte(cfg.JWTSecret), issuer: cfg.Issuer}
}

// Validate parses and verifies a token string.
func (v *TokenValidator) Validate(tokenString string) (*jwt.RegisteredClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if !token.Valid {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

// AuthMiddleware returns Gin middleware that requires a valid bearer token.
// A nil validator lets every request through.
func AuthMiddleware(validator *TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if validator == nil {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "missing or invalid authorization header"},
			})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := validator.Validate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "invalid or expired token"},
			})
			return
		}

		c.Set(ContextKeySubject, claims.Subject)
		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// GetSubject extracts the token subject from the Gin context.
func GetSubject(c *gin.Context) (string, error) {
	val, exists := c.Get(ContextKeySubject)
	if !exists {
		return "", domain.ErrUnauthorized
	}
	s, _ := val.(string)
	return s, nil
}

