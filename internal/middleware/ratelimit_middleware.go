package middleware

import (
	"fmt"
	"time"

	"notehub/internal/database"
	"notehub/pkg/config"
	apperrors "notehub/pkg/errors"
	"notehub/pkg/logger"
	"notehub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// RateLimiter 基于Redis固定窗口的IP限流
type RateLimiter struct {
	client *redis.Client
	prefix string
	window time.Duration
}

func NewRateLimiter() *RateLimiter {
	cfg := config.GetConfig()
	return &RateLimiter{
		client: database.GetRedisClient(),
		prefix: cfg.Redis.Prefix,
		window: time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute,
	}
}

// allow 窗口内计数自增，超过上限返回false；Redis不可用时放行
func (r *RateLimiter) allow(c *gin.Context, scope string, max int) bool {
	ctx := c.Request.Context()
	key := fmt.Sprintf("%s:%s:%s", r.prefix, scope, c.ClientIP())

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		logger.GetLogger().Warnf("Rate limiter unavailable, allowing request: %v", err)
		return true
	}
	if count == 1 {
		r.client.Expire(ctx, key, r.window)
	}

	return count <= int64(max)
}

// Limit 通用请求限流
func (r *RateLimiter) Limit() gin.HandlerFunc {
	cfg := config.GetConfig()
	return func(c *gin.Context) {
		if !cfg.RateLimit.Enabled {
			c.Next()
			return
		}
		if !r.allow(c, "general", cfg.RateLimit.GeneralMax) {
			response.Error(c, 429, "Too many requests from this IP, please try again later.", apperrors.CodeRateLimitExceeded)
			c.Abort()
			return
		}
		c.Next()
	}
}

// LimitAuth 登录接口更严格的限流
func (r *RateLimiter) LimitAuth() gin.HandlerFunc {
	cfg := config.GetConfig()
	return func(c *gin.Context) {
		if !cfg.RateLimit.Enabled {
			c.Next()
			return
		}
		if !r.allow(c, "auth", cfg.RateLimit.AuthMax) {
			response.Error(c, 429, "Too many authentication attempts, please try again later.", apperrors.CodeRateLimitExceeded)
			c.Abort()
			return
		}
		c.Next()
	}
}
