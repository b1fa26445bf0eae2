package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter mantém um token bucket por visitante ou IP. Chaves sem uso há
// mais de idle são varridas no máximo uma vez por idle.
type RateLimiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// NewRateLimiter cria o limitador com reqPerSec e burst por chave. idle
// acompanha a vida de um visitante; zero usa 10 minutos.
func NewRateLimiter(reqPerSec float64, burst int, idle time.Duration) *RateLimiter {
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	return &RateLimiter{
		limit:   rate.Limit(reqPerSec),
		burst:   burst,
		idle:    idle,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Len informa quantas chaves têm bucket ativo.
func (r *RateLimiter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buckets)
}

// reserve consome um token de key e devolve quanto o cliente deve esperar;
// zero significa liberado.
func (r *RateLimiter) reserve(key string) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if now.Sub(r.lastSweep) >= r.idle {
		for k, b := range r.buckets {
			if now.Sub(b.seen) > r.idle {
				delete(r.buckets, k)
			}
		}
		r.lastSweep = now
	}

	b, ok := r.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.buckets[key] = b
	}
	b.seen = now

	res := b.limiter.ReserveN(now, 1)
	if !res.OK() {
		return time.Second
	}
	delay := res.DelayFrom(now)
	if delay > 0 {
		res.CancelAt(now)
	}
	return delay
}

// LimitByKey aplica o limite à chave devolvida por keyFunc; sem chave, passa direto.
func (r *RateLimiter) LimitByKey(next http.Handler, keyFunc func(*http.Request) string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		key := keyFunc(req)
		if key == "" {
			next.ServeHTTP(w, req)
			return
		}
		if wait := r.reserve(key); wait > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			writeRateLimitError(w)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// IPRateLimit utiliza o IP do cliente como chave.
func IPRateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return limiter.LimitByKey(next, func(r *http.Request) string {
			return "ip:" + realIPFromRequest(r)
		})
	}
}

// VisitorRateLimit utiliza o cookie de visitante como chave e, sem ele, o IP.
// Deve vir depois de Visitor.
func VisitorRateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return limiter.LimitByKey(next, func(r *http.Request) string {
			if visitor := GetVisitor(r.Context()); visitor != "" {
				return "visitor:" + visitor
			}
			return "ip:" + realIPFromRequest(r)
		})
	}
}

// realIPFromRequest lê o host de RemoteAddr, já reescrito pelo RealIP do chi.
func realIPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeRateLimitError(w http.ResponseWriter) {
	writeError(w, http.StatusTooManyRequests, "RATE_LIMIT", "Demasiadas peticiones, inténtalo en unos segundos")
}
