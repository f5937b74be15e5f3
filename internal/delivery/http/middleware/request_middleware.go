package middleware

import (
	"fmt"
	"net"
	"net/http"
	"runtime"
	"strings"
	"time"

	"go-healthcare-practice/pkg/requestctx"
	"go-healthcare-practice/pkg/response"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const RequestIDHeader = "X-Request-ID"

// RequestMiddleware tags each request with an id and client details, logs
// it, and turns panics into 500 responses.
type RequestMiddleware struct {
	log *logrus.Logger
}

func NewRequestMiddleware(log *logrus.Logger) *RequestMiddleware {
	return &RequestMiddleware{log: log}
}

// ClientInfo stores request id, client IP and user agent in the context for
// the audit trail. An incoming X-Request-ID is kept.
func (m *RequestMiddleware) ClientInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		ctx := requestctx.WithClientInfo(r.Context(), requestctx.ClientInfo{
			IPAddress: ClientIP(r),
			UserAgent: r.UserAgent(),
			RequestID: requestID,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Logger writes one line per request.
func (m *RequestMiddleware) Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		entry := m.log.WithFields(logrus.Fields{
			"request_id": requestctx.ClientInfoFrom(r.Context()).RequestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"latency":    time.Since(start).String(),
			"remote_ip":  ClientIP(r),
		})
		if rec.status >= http.StatusInternalServerError {
			entry.Error("request")
			return
		}
		entry.Info("request")
	})
}

func (m *RequestMiddleware) Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rv := recover(); rv != nil {
				var stack [4096]byte
				n := runtime.Stack(stack[:], false)

				m.log.WithFields(logrus.Fields{
					"request_id": requestctx.ClientInfoFrom(r.Context()).RequestID,
					"panic":      fmt.Sprintf("%v", rv),
					"stack":      string(stack[:n]),
				}).Error("panic recovered")

				response.InternalServerError(w, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// ClientIP prefers the first X-Forwarded-For hop, then the remote address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
