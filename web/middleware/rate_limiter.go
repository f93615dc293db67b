package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"betlogic/web/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiterConfig holds configuration for rate limiting
type RateLimiterConfig struct {
	AnalysesPerMinute int           // Sustained analyses per client IP per minute
	BurstSize         int           // Allow burst of N requests
	CleanupInterval   time.Duration // How often to drop idle clients
	IdleTTL           time.Duration // A client idle this long is forgotten
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter manages one token bucket per client IP
type IPRateLimiter struct {
	config      RateLimiterConfig
	visitors    map[string]*visitor
	mu          sync.Mutex
	logger      *zap.Logger
	now         func() time.Time
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewIPRateLimiter creates a limiter and starts its cleanup routine
func NewIPRateLimiter(config RateLimiterConfig, logger *zap.Logger) *IPRateLimiter {
	if config.AnalysesPerMinute <= 0 {
		config.AnalysesPerMinute = 20
	}
	if config.BurstSize <= 0 {
		config.BurstSize = 1
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	limiter := &IPRateLimiter{
		config:      config,
		visitors:    make(map[string]*visitor),
		logger:      logger,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}

	go limiter.cleanupRoutine()

	return limiter
}

// cleanupRoutine periodically removes idle clients
func (l *IPRateLimiter) cleanupRoutine() {
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stopCleanup:
			return
		}
	}
}

func (l *IPRateLimiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.config.IdleTTL)
	removed := 0
	for ip, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, ip)
			removed++
		}
	}
	if removed > 0 {
		l.logger.Debug("Cleaned up rate limiter entries", zap.Int("removed", removed), zap.Int("remaining", len(l.visitors)))
	}
}

// Stop stops the cleanup routine
func (l *IPRateLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCleanup) })
}

// Allow consumes a token for ip. When none is available it reports how long
// until one will be.
func (l *IPRateLimiter) Allow(ip string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	v, exists := l.visitors[ip]
	if !exists {
		perSecond := rate.Limit(float64(l.config.AnalysesPerMinute) / 60.0)
		v = &visitor{limiter: rate.NewLimiter(perSecond, l.config.BurstSize)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	l.mu.Unlock()

	reservation := v.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, time.Minute
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Limit returns the configured burst size
func (l *IPRateLimiter) Limit() int {
	return l.config.BurstSize
}

// RateLimitMiddleware creates a Gin middleware for per-IP rate limiting
func RateLimitMiddleware(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		allowed, retryAfter := limiter.Allow(ip)

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))

		if !allowed {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			LoggerFrom(c, limiter.logger).Warn("Rate limit exceeded",
				zap.String("client_ip", ip),
				zap.Int("retry_after", seconds))

			c.Header("Retry-After", strconv.Itoa(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, types.ErrorResponse{
				Error:      "Rate limit exceeded",
				RetryAfter: seconds,
			})
			return
		}

		c.Next()
	}
}
