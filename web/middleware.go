package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
)

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// loggingMiddleware writes one log entry per API request through the app's
// async log writer. UI and health probes are not logged.
func (server *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if strings.HasPrefix(r.URL.Path, "/api/") {
			server.app.WriteLog("DEBUG", fmt.Sprintf("%s %s %d", r.Method, r.URL.Path, rec.status))
		}
	})
}

// brotliWriter compresses the response body. Content-Length is dropped
// since the compressed size is unknown up front.
type brotliWriter struct {
	http.ResponseWriter
	writer *brotli.Writer
}

func (bw *brotliWriter) WriteHeader(status int) {
	bw.Header().Del("Content-Length")
	bw.ResponseWriter.WriteHeader(status)
}

func (bw *brotliWriter) Write(data []byte) (int, error) {
	return bw.writer.Write(data)
}

// brotliMiddleware compresses responses when the client accepts br encoding.
func brotliMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "br") {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Encoding", "br")
		writer := brotli.NewWriter(w)
		defer writer.Close()

		next.ServeHTTP(&brotliWriter{ResponseWriter: w, writer: writer}, r)
	})
}
