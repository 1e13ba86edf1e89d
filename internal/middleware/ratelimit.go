package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// window tracks one client's request count inside the current interval.
type window struct {
	count   int
	resetAt time.Time
}

// sweepThreshold bounds the window map: once it grows past this, expired
// windows are dropped on the next request.
const sweepThreshold = 4096

// RateLimit applies a fixed-window per-client limit and answers 429 with a
// Retry-After header once the window is spent. Clients are keyed by
// RemoteAddr; chi's RealIP runs ahead of this in the router, so a trusted
// proxy's forwarded address is already folded in by the time we key on it.
func RateLimit(limit int, per time.Duration) func(http.Handler) http.Handler {
	var (
		mu      sync.Mutex
		windows = make(map[string]*window)
	)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			now := time.Now()

			mu.Lock()
			if len(windows) > sweepThreshold {
				for k, win := range windows {
					if now.After(win.resetAt) {
						delete(windows, k)
					}
				}
			}
			win, ok := windows[key]
			if !ok || now.After(win.resetAt) {
				win = &window{resetAt: now.Add(per)}
				windows[key] = win
			}
			if win.count >= limit {
				retry := int(win.resetAt.Sub(now).Seconds()) + 1
				mu.Unlock()
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			win.count++
			mu.Unlock()
			next.ServeHTTP(w, r)
		})
	}
}

// clientKey strips the port so one client is one window regardless of the
// ephemeral source port.
func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
