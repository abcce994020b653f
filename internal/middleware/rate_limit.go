package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	// Per-endpoint limits
	LoginMaxAttempts          = 5
	RegisterMaxAttempts       = 3
	ForgotPasswordMaxAttempts = 3
	APIMaxRequests            = 100 // per minute for general endpoints

	// Cooldowns
	LoginCooldown          = 15 * time.Minute
	RegisterCooldown       = 30 * time.Minute
	ForgotPasswordCooldown = 10 * time.Minute
	APICooldown            = 1 * time.Minute
)

// Limiter stores rate-limit counters. cache.RedisStore implements it.
type Limiter interface {
	Attempts(ctx context.Context, key string) (int64, error)
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
	Cooldown(ctx context.Context, key string) (time.Duration, error)
	StartCooldown(ctx context.Context, key string, d time.Duration) error
	Reset(ctx context.Context, keys ...string) error
}

// RateLimiter builds the limiting middlewares. Counter errors let the
// request through.
type RateLimiter struct {
	store Limiter
	now   func() time.Time
}

func NewRateLimiter(store Limiter) *RateLimiter {
	return &RateLimiter{store: store, now: time.Now}
}

func tooMany(c *gin.Context, msg string, retry time.Duration) {
	c.Header("Retry-After", fmt.Sprintf("%d", int(retry.Seconds())))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":       msg,
		"code":        "rate_limited",
		"retry_after": int(retry.Seconds()),
	})
}

// cooling aborts the request when key is in cooldown.
func (r *RateLimiter) cooling(c *gin.Context, key, msg string) bool {
	ttl, err := r.store.Cooldown(c.Request.Context(), key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Rate limit check failed")
		return false
	}
	if ttl <= 0 {
		return false
	}
	tooMany(c, fmt.Sprintf("%s Try again in %d minutes.", msg, int(ttl.Minutes())+1), ttl)
	return true
}

// exhausted starts the cooldown and aborts once attempts reach max.
func (r *RateLimiter) exhausted(c *gin.Context, key, cooldownKey string, max int64, cooldown time.Duration, msg string) (int64, bool) {
	ctx := c.Request.Context()
	attempts, err := r.store.Attempts(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Rate limit check failed")
		return 0, false
	}
	if attempts < max {
		return attempts, false
	}
	if err := r.store.StartCooldown(ctx, cooldownKey, cooldown); err != nil {
		log.Warn().Err(err).Str("key", cooldownKey).Msg("Failed to start cooldown")
	}
	if err := r.store.Reset(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to reset counter")
	}
	tooMany(c, fmt.Sprintf("%s Locked for %d minutes.", msg, int(cooldown.Minutes())), cooldown)
	return attempts, true
}

func (r *RateLimiter) hit(ctx context.Context, key string, window time.Duration) {
	if _, err := r.store.Hit(ctx, key, window); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to count request")
	}
}

// peekEmail reads the e-mail field of a JSON body and restores the body.
func peekEmail(c *gin.Context) string {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
	var input struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(body, &input) != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(input.Email))
}

// Login limits failed logins per e-mail address.
func (r *RateLimiter) Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		email := peekEmail(c)
		if email == "" {
			c.Next()
			return
		}

		key := "login_attempts:" + email
		cooldownKey := "login_cooldown:" + email
		if r.cooling(c, cooldownKey, "Too many failed logins.") {
			return
		}
		attempts, stop := r.exhausted(c, key, cooldownKey, LoginMaxAttempts, LoginCooldown, "Too many failed logins.")
		if stop {
			return
		}

		c.Next()

		ctx := c.Request.Context()
		switch c.Writer.Status() {
		case http.StatusUnauthorized:
			r.hit(ctx, key, LoginCooldown)
			if remaining := LoginMaxAttempts - attempts - 1; remaining > 0 {
				c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
			}
		case http.StatusOK:
			if err := r.store.Reset(ctx, key, cooldownKey); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("Failed to reset login attempts")
			}
		}
	}
}

// Register limits successful signups per client IP.
func (r *RateLimiter) Register() gin.HandlerFunc {
	return r.perIP("register", RegisterMaxAttempts, RegisterCooldown, http.StatusCreated, "Too many signups.")
}

// ForgotPassword limits password reset requests per client IP.
func (r *RateLimiter) ForgotPassword() gin.HandlerFunc {
	return r.perIP("forgot_password", ForgotPasswordMaxAttempts, ForgotPasswordCooldown, http.StatusOK, "Too many reset requests.")
}

// perIP counts requests answered with countOn and locks the IP after max.
func (r *RateLimiter) perIP(name string, max int64, cooldown time.Duration, countOn int, msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		key := name + "_attempts:" + ip
		cooldownKey := name + "_cooldown:" + ip
		if r.cooling(c, cooldownKey, msg) {
			return
		}
		if _, stop := r.exhausted(c, key, cooldownKey, max, cooldown, msg); stop {
			return
		}

		c.Next()

		if c.Writer.Status() == countOn {
			r.hit(c.Request.Context(), key, cooldown)
		}
	}
}

// API caps the request rate per client IP in fixed one-minute windows.
func (r *RateLimiter) API() gin.HandlerFunc {
	return func(c *gin.Context) {
		now := r.now()
		window := now.Truncate(APICooldown)
		key := fmt.Sprintf("api_requests:%s:%d", c.ClientIP(), window.Unix())
		n, err := r.store.Hit(c.Request.Context(), key, APICooldown)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to count request")
			c.Next()
			return
		}
		if n > APIMaxRequests {
			retry := window.Add(APICooldown).Sub(now)
			tooMany(c, fmt.Sprintf("Too many requests. Try again in %d seconds.", int(retry.Seconds())+1), retry)
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", APIMaxRequests))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", APIMaxRequests-n))
		c.Next()
	}
}
