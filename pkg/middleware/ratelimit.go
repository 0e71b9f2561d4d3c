package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/ulule/limiter/v3"
	mhttp "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimit caps requests per client IP at rps per second, backed by an
// in-process store. Exceeding clients get 429.
func RateLimit(rps int) mux.MiddlewareFunc {
	instance := limiter.New(memory.NewStore(), limiter.Rate{
		Period: time.Second,
		Limit:  int64(rps),
	})
	mw := mhttp.NewMiddleware(instance)
	return func(next http.Handler) http.Handler {
		return mw.Handler(next)
	}
}
