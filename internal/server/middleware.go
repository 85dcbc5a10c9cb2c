package server

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// eventStreamRoute is exempt from rate limiting: one long-lived SSE
// connection is not request pressure.
const eventStreamRoute = "/api/events"

// AuthMiddleware guards the snapshot API. The static API key is checked
// first; anything else is treated as an access token.
func AuthMiddleware(auth *AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential := ExtractToken(c)
		if credential == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		if auth.ValidateAPIKey(credential) {
			c.Set("auth_method", "api_key")
			c.Next()
			return
		}

		claims, err := auth.ValidateToken(credential)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid credentials",
			})
			return
		}

		c.Set("auth_method", "token")
		c.Set("scope", claims.Scope)
		c.Next()
	}
}

// RateLimiter counts requests per client in fixed one-second windows. A
// client's window resets on the first request after it lapses, so the map
// never needs a background sweeper.
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	windows map[string]*requestWindow
}

type requestWindow struct {
	start time.Time
	count int
}

// NewRateLimiter creates a limiter allowing requestsPerSecond per client.
func NewRateLimiter(requestsPerSecond int) *RateLimiter {
	return &RateLimiter{
		limit:   requestsPerSecond,
		windows: make(map[string]*requestWindow),
	}
}

// Allow reports whether the client identified by key may proceed.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w := rl.windows[key]
	if w == nil || now.Sub(w.start) >= time.Second {
		rl.windows[key] = &requestWindow{start: now, count: 1}
		return true
	}
	if w.count >= rl.limit {
		return false
	}
	w.count++
	return true
}

// RateLimitMiddleware throttles by client IP, leaving the event stream
// alone.
func RateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.FullPath() == eventStreamRoute {
			c.Next()
			return
		}
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

// LoggerMiddleware writes one access line per request.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		log.Printf("vitals %s %s -> %d in %v (client %s)",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(),
			time.Since(start), c.ClientIP())
	}
}

// RecoveryMiddleware converts a handler panic into a 500 response so one
// bad request cannot take the agent down.
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if v := recover(); v != nil {
				log.Printf("vitals panic serving %s: %v", c.Request.URL.Path, v)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "internal server error",
				})
			}
		}()
		c.Next()
	}
}

// CORSMiddleware answers cross-origin requests for the read-only snapshot
// API. The surface only ever serves GET plus the refresh POST, so the
// advertised method and header sets stay that narrow.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := len(allowedOrigins) == 1 && allowedOrigins[0] == "*"

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		switch {
		case allowAll:
			c.Header("Access-Control-Allow-Origin", "*")
		default:
			for _, allowed := range allowedOrigins {
				if origin == allowed {
					c.Header("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
