package server

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "vitals-agent"

// AccessClaims are the claims carried by a signed snapshot-access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope,omitempty"`
}

// AuthService validates snapshot-API credentials: the agent's static API
// key, or a token the agent itself minted for short-lived access.
type AuthService struct {
	apiKey    string
	jwtSecret []byte
}

// NewAuthService creates an AuthService.
func NewAuthService(apiKey, jwtSecret string) *AuthService {
	return &AuthService{
		apiKey:    apiKey,
		jwtSecret: []byte(jwtSecret),
	}
}

// ValidateAPIKey reports whether key matches the configured API key.
func (a *AuthService) ValidateAPIKey(key string) bool {
	return key != "" && key == a.apiKey
}

// GenerateToken mints a signed access token with the given scope and
// lifetime.
func (a *AuthService) GenerateToken(scope string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
		Scope: scope,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.jwtSecret)
}

// ValidateToken parses and verifies an access token.
func (a *AuthService) ValidateToken(raw string) (*AccessClaims, error) {
	token, err := jwt.ParseWithClaims(raw, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// ExtractToken pulls the credential from a request. The Authorization
// header wins; the token query parameter exists for the event stream,
// because EventSource clients cannot set request headers.
func ExtractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}
