package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	apperrors "salesrecon/server/errors"
)

// clientIdleTTL время, после которого неактивный клиент забывается
const clientIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter ограничивает частоту запросов для каждого клиентского IP
type RateLimiter struct {
	rps     rate.Limit
	burst   int
	now     func() time.Time
	mu      sync.Mutex
	clients map[string]*clientLimiter
}

// NewRateLimiter создает ограничитель. rps <= 0 отключает ограничение.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
		clients: make(map[string]*clientLimiter),
	}
}

// Allow проверяет, может ли клиент выполнить запрос сейчас
func (rl *RateLimiter) Allow(client string) bool {
	if rl == nil || rl.rps <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry, ok := rl.clients[client]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.clients[client] = entry
	}
	entry.lastSeen = now
	rl.cleanup(now)

	return entry.limiter.AllowN(now, 1)
}

// cleanup удаляет клиентов, не обращавшихся дольше clientIdleTTL. Вызывается под mu.
func (rl *RateLimiter) cleanup(now time.Time) {
	for client, entry := range rl.clients {
		if now.Sub(entry.lastSeen) > clientIdleTTL {
			delete(rl.clients, client)
		}
	}
}

// Clients число отслеживаемых клиентов
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Handler middleware, отвечающий 429 при превышении лимита
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			RespondError(c, apperrors.NewTooManyRequestsError("Слишком много запросов, повторите позже"))
			return
		}
		c.Next()
	}
}
