// Package middleware - Authentication middleware.
//
// JWT (HS256) authentication. Admin KYC operations (approve/reject)
// are authorized by a dedicated privilege flag in the claims rather
// than a role model: no other privilege exists in the system.
package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// AuthUserIDKey is the gin context key for the user ID
	AuthUserIDKey = "auth_user_id"
	// AuthUserEmailKey is the gin context key for the email
	AuthUserEmailKey = "auth_user_email"
	// AuthIsAdminKey is the gin context key for the privilege flag
	AuthIsAdminKey = "auth_is_admin"
)

// TokenValidator turns a bearer token into verified claims.
type TokenValidator func(token string) (*AuthClaims, error)

// AuthClaims identifies the authenticated caller.
type AuthClaims struct {
	UserID    string
	Email     string
	Admin     bool
	ExpiresAt time.Time
}

// AuthConfig configures the authentication middleware.
type AuthConfig struct {
	TokenValidator TokenValidator
	// SkipPaths lists paths that bypass auth (webhook, health).
	SkipPaths []string
}

// Auth validates the Authorization: Bearer <token> header and stores
// the claims in the gin context. Invalid or expired tokens get 401.
func Auth(config *AuthConfig) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		token, err := bearerToken(c)
		if err != nil {
			abortAuth(c, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
			return
		}

		claims, err := config.TokenValidator(token)
		if err != nil {
			abortAuth(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
			return
		}
		if !claims.ExpiresAt.IsZero() && claims.ExpiresAt.Before(time.Now()) {
			abortAuth(c, http.StatusUnauthorized, "UNAUTHORIZED", "token has expired")
			return
		}

		c.Set(AuthUserIDKey, claims.UserID)
		c.Set(AuthUserEmailKey, claims.Email)
		c.Set(AuthIsAdminKey, claims.Admin)

		c.Next()
	}
}

// RequireAdmin lets only callers with the privilege flag through.
// Mounted after Auth on the admin KYC routes.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			abortAuth(c, http.StatusForbidden, "FORBIDDEN", "admin privilege required")
			return
		}
		c.Next()
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", errors.New("authorization header is required")
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != "Bearer" || token == "" {
		return "", errors.New("invalid authorization header format")
	}

	return token, nil
}

func abortAuth(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
		"request_id": GetRequestID(c),
		"timestamp":  time.Now().UTC(),
	})
}

// GetAuthUserID returns the authenticated user's ID, or uuid.Nil
// when absent or unparsable.
func GetAuthUserID(c *gin.Context) uuid.UUID {
	raw, ok := c.Get(AuthUserIDKey)
	if !ok {
		return uuid.Nil
	}
	s, ok := raw.(string)
	if !ok {
		return uuid.Nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// GetAuthUserEmail returns the authenticated user's email.
func GetAuthUserEmail(c *gin.Context) string {
	return c.GetString(AuthUserEmailKey)
}

// IsAdmin reports whether the caller carries the privilege flag.
func IsAdmin(c *gin.Context) bool {
	raw, ok := c.Get(AuthIsAdminKey)
	if !ok {
		return false
	}
	admin, _ := raw.(bool)
	return admin
}

// NewJWTTokenValidator is the production validator: HS256, optional
// issuer check, privilege flag from the "admin" claim.
func NewJWTTokenValidator(secret string, issuer string) TokenValidator {
	return func(tokenString string) (*AuthClaims, error) {
		parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil {
			return nil, fmt.Errorf("parse token: %w", err)
		}

		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok || !parsed.Valid {
			return nil, errors.New("invalid token claims")
		}

		if issuer != "" {
			if iss, _ := claims["iss"].(string); iss != issuer {
				return nil, errors.New("invalid token issuer")
			}
		}

		sub, _ := claims["sub"].(string)
		if sub == "" {
			return nil, errors.New("missing user ID (sub) in token")
		}

		email, _ := claims["email"].(string)
		admin, _ := claims["admin"].(bool)

		var expiresAt time.Time
		if exp, ok := claims["exp"].(float64); ok {
			expiresAt = time.Unix(int64(exp), 0)
		}

		return &AuthClaims{
			UserID:    sub,
			Email:     email,
			Admin:     admin,
			ExpiresAt: expiresAt,
		}, nil
	}
}

// GenerateJWT issues a signed HS256 token. Used by tests.
func GenerateJWT(secret, issuer, userID, email string, admin bool, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"admin": admin,
		"iss":   issuer,
		"iat":   now.Unix(),
		"exp":   now.Add(expiry).Unix(),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// MockTokenValidator is the development/test validator: the token is
// taken as the user_id, no signature. Never enable in production.
func MockTokenValidator(token string) (*AuthClaims, error) {
	return &AuthClaims{
		UserID:    token,
		Email:     "dev@example.com",
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}, nil
}
