package middlewares

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/geocoder89/storefront/internal/observability"
	"github.com/geocoder89/storefront/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

// RateLimit rejects callers that exhausted their budget for route. Limiter
// errors let the request through; an unavailable Redis must not take login
// down with it.
func RateLimit(l ratelimit.Limiter, route string, keyFn func(*gin.Context) string, prom *observability.Prom, log *slog.Logger) gin.HandlerFunc {
	if keyFn == nil {
		keyFn = KeyByIP
	}
	if log == nil {
		log = slog.Default()
	}

	return func(c *gin.Context) {
		key := keyFn(c)
		if key == "" {
			key = clientIP(c)
		}

		d, err := l.Allow(c.Request.Context(), route+":"+key)
		if err != nil {
			log.WarnContext(c.Request.Context(), "rate limiter unavailable", "route", route, "err", err)
			c.Next()
			return
		}

		if !d.Allowed {
			prom.ObserveRateLimited(route)
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(d)))
			abortWithError(c, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please try again shortly.")
			return
		}

		c.Next()
	}
}

func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

func retryAfterSeconds(d ratelimit.Decision) int {
	secs := int(math.Ceil(d.RetryAfter.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()

	if host, _, err := net.SplitHostPort(ip); err == nil && host != "" {
		return host
	}
	return ip
}
