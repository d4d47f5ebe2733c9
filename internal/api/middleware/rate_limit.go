package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"grocery-engine/internal/pkg/common"
)

// RateLimiter 令牌桶限流器
type RateLimiter struct {
	mu       sync.Mutex
	tokens   float64
	capacity float64
	rate     float64
	lastTime time.Time
}

// NewRateLimiter 創建新的限流器
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:   float64(requests),
		capacity: float64(requests),
		rate:     float64(requests) / window.Seconds(),
		lastTime: time.Now(),
	}
}

// Allow 檢查是否允許請求
func (rl *RateLimiter) Allow() bool {
	return rl.allowAt(time.Now())
}

func (rl *RateLimiter) allowAt(now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	elapsed := now.Sub(rl.lastTime).Seconds()
	if elapsed > 0 {
		rl.tokens = math.Min(rl.capacity, rl.tokens+elapsed*rl.rate)
		rl.lastTime = now
	}
	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// idle 令牌桶已補滿，可回收
func (rl *RateLimiter) idle(now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.tokens+now.Sub(rl.lastTime).Seconds()*rl.rate >= rl.capacity
}

// ClientLimiter 依用戶端 IP 分別限流
type ClientLimiter struct {
	mu       sync.Mutex
	clients  map[string]*RateLimiter
	requests int
	window   time.Duration
	lastScan time.Time
}

// NewClientLimiter 創建依 IP 的限流器
func NewClientLimiter(requests int, window time.Duration) *ClientLimiter {
	return &ClientLimiter{
		clients:  make(map[string]*RateLimiter),
		requests: requests,
		window:   window,
		lastScan: time.Now(),
	}
}

// Allow 檢查該用戶端是否允許請求
func (cl *ClientLimiter) Allow(key string) bool {
	now := time.Now()

	cl.mu.Lock()
	limiter, ok := cl.clients[key]
	if !ok {
		limiter = NewRateLimiter(cl.requests, cl.window)
		cl.clients[key] = limiter
	}
	if now.Sub(cl.lastScan) > cl.window {
		for k, l := range cl.clients {
			if k != key && l.idle(now) {
				delete(cl.clients, k)
			}
		}
		cl.lastScan = now
	}
	cl.mu.Unlock()

	return limiter.allowAt(now)
}

// RateLimit 限流中間件
func RateLimit(requests int, window time.Duration) gin.HandlerFunc {
	limiter := NewClientLimiter(requests, window)
	retryAfter := strconv.Itoa(int(math.Ceil(window.Seconds() / float64(requests))))

	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			common.LogInfo("Rate limit exceeded",
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)

			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.ErrorResponse{
				Code:    common.ErrCodeTooManyRequests,
				Message: "Too many requests",
			})
			return
		}

		c.Next()
	}
}
