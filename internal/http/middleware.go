package apihttp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"time"

	"github.com/example/tokenprog/internal/auth"
	"github.com/example/tokenprog/internal/rate"
	"github.com/example/tokenprog/pkg/jsonutil"
)

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "req_id"
	ctxKeyAPIKeyHP  ctxKey = "api_key_hp"

	headerRequestID = "X-Request-ID"
)

// RequestIDFrom returns the id assigned by RequestID, if any.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

// RequestID keeps a caller-supplied X-Request-ID or generates one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(headerRequestID)
		if reqID == "" || len(reqID) > 64 {
			var b [8]byte
			_, _ = rand.Read(b[:])
			reqID = hex.EncodeToString(b[:])
		}
		r = r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, reqID))
		w.Header().Set(headerRequestID, reqID)
		next.ServeHTTP(w, r)
	})
}

// Logger logs one line per request.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rlw := &respLogger{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rlw, r)
		apiHP, _ := r.Context().Value(ctxKeyAPIKeyHP).(string)
		log.Printf("event=request method=%s path=%s status=%d dur_ms=%d ip=%s req_id=%s api=%s",
			r.Method, r.URL.Path, rlw.status, time.Since(start).Milliseconds(), rate.IPFromRequest(r), RequestIDFrom(r.Context()), apiHP)
	})
}

type respLogger struct {
	http.ResponseWriter
	status int
}

func (r *respLogger) WriteHeader(code int) { r.status = code; r.ResponseWriter.WriteHeader(code) }

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key, X-Admin-Token, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit enforces per-IP rate limiting.
func RateLimit(lm *rate.LimiterMap) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !lm.Allow(rate.IPFromRequest(r)) {
				jsonutil.Error(w, http.StatusTooManyRequests, "rate limited")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Auth validates the X-API-Key header against store.
func Auth(store auth.APIKeyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				jsonutil.Error(w, http.StatusUnauthorized, "missing api key")
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			ok, err := store.Validate(ctx, key)
			if err != nil {
				log.Printf("event=auth_error req_id=%s err=%q", RequestIDFrom(r.Context()), err)
				jsonutil.Error(w, http.StatusForbidden, "invalid api key")
				return
			}
			if !ok {
				jsonutil.Error(w, http.StatusForbidden, "invalid or inactive api key")
				return
			}
			r = r.WithContext(context.WithValue(r.Context(), ctxKeyAPIKeyHP, auth.HashPrefix(key)))
			next.ServeHTTP(w, r)
		})
	}
}
