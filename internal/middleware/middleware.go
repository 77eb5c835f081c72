package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"hotelbook/internal/cache"
	"hotelbook/internal/logger"
	"hotelbook/internal/models"
	"hotelbook/internal/service"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const (
	RequestIDHeader = "X-Request-ID"

	actorKey = "actor"
)

// RequestID tags every request with an id, reusing the caller's when sent.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = logger.NewRequestID()
		}
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}

// Logger writes one structured line per request.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status_code", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		}

		log := logger.WithContext(c.Request.Context())
		switch {
		case c.Writer.Status() >= 500:
			if len(c.Errors) > 0 {
				fields = append(fields, "error", c.Errors.String())
			}
			log.Error("Request completed with error", fields...)
		case c.Writer.Status() >= 400:
			log.Warn("Request rejected", fields...)
		default:
			log.Info("Request completed", fields...)
		}
	}
}

func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.WithContext(c.Request.Context()).Error("PANIC recovered",
			"panic", recovered,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		)

		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
				"code":  "internal",
			})
		}
	})
}

// UserStore finds accounts by login name.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// AuthCache remembers verified credentials so bcrypt runs once per TTL.
type AuthCache interface {
	GetAuth(ctx context.Context, key string) (*cache.AuthEntry, error)
	SetAuth(ctx context.Context, key string, entry cache.AuthEntry) error
}

type Authenticator struct {
	users UserStore
	cache AuthCache
}

// NewAuthenticator builds the basic-auth checker; authCache may be nil.
func NewAuthenticator(users UserStore, authCache AuthCache) *Authenticator {
	return &Authenticator{users: users, cache: authCache}
}

func unauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", `Basic realm="hotelbook"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message, "code": "unauthorized"})
}

// Authenticate resolves HTTP Basic credentials to an actor. With required
// false, anonymous requests pass through but bad credentials still fail.
func (a *Authenticator) Authenticate(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, password, ok := c.Request.BasicAuth()
		if !ok {
			if required {
				unauthorized(c, "Unauthorized")
				return
			}
			c.Next()
			return
		}

		actor, ok := a.verify(c.Request.Context(), username, password)
		if !ok {
			unauthorized(c, "Invalid credentials")
			return
		}

		SetActor(c, actor)
		c.Next()
	}
}

func (a *Authenticator) verify(ctx context.Context, username, password string) (service.Actor, bool) {
	key := cache.AuthKey(username, password)
	if a.cache != nil {
		entry, err := a.cache.GetAuth(ctx, key)
		if err != nil {
			logger.WithContext(ctx).Warn("Auth cache lookup failed", "error", err)
		}
		if entry != nil {
			return service.Actor{UserID: entry.UserID, Role: entry.Role}, true
		}
	}

	user, err := a.users.GetByUsername(ctx, username)
	if err == nil && user == nil && strings.Contains(username, "@") {
		user, err = a.users.GetByEmail(ctx, username)
	}
	if err != nil {
		logger.WithContext(ctx).Error("Failed to load user for authentication", "error", err)
		return service.Actor{}, false
	}
	if user == nil || !user.IsActive || user.PasswordHash == "" {
		return service.Actor{}, false
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return service.Actor{}, false
	}

	if a.cache != nil {
		if err := a.cache.SetAuth(ctx, key, cache.AuthEntry{UserID: user.ID, Role: user.Role}); err != nil {
			logger.WithContext(ctx).Warn("Failed to cache credentials", "error", err, "user_id", user.ID)
		}
	}
	return service.Actor{UserID: user.ID, Role: user.Role}, true
}

// RequireStaff rejects callers that are not staff or admin. It must run
// after Authenticate(true).
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ActorFrom(c).IsStaff() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Staff access required", "code": "staff_only"})
			return
		}
		c.Next()
	}
}

func SetActor(c *gin.Context, actor service.Actor) {
	c.Set(actorKey, actor)
	c.Request = c.Request.WithContext(logger.ContextWithUserID(c.Request.Context(), actor.UserID))
}

// ActorFrom returns the authenticated caller, or the zero actor.
func ActorFrom(c *gin.Context) service.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(service.Actor); ok {
			return actor
		}
	}
	return service.Actor{}
}
