package middleware

import (
	"net/http"
	"time"
)

type requestLogger interface {
	Info(msg string, args ...any)
}

type responseData struct {
	status int
	size   int
}

type logWriter struct {
	http.ResponseWriter
	data        responseData
	wroteHeader bool
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.wroteHeader = true
	size, err := w.ResponseWriter.Write(p)
	w.data.size += size
	return size, err
}

func (w *logWriter) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.data.status = statusCode
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

// RequestLogger logs every request once it is served
// Cookie values never reach the log: only method, path, peer and the response summary
func RequestLogger(l requestLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			lw := &logWriter{
				ResponseWriter: w,
				data:           responseData{status: http.StatusOK},
			}

			next.ServeHTTP(lw, r)

			l.Info(
				"served HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"duration", time.Since(start),
				"status", lw.data.status,
				"size", lw.data.size,
			)
		})
	}
}
