package http

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	t.Run("attaches a request scoped logger to the context", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		base := slog.New(slog.NewTextHandler(&buf, nil))

		var sawLogger bool
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if LoggerFromContext(r.Context()) != nil {
				sawLogger = true
			}
			w.WriteHeader(http.StatusNoContent)
		})

		handler := RequestLogger(base)(next)

		req := httptest.NewRequest(http.MethodGet, "/tickets", nil)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if !sawLogger {
			t.Fatal("expected logger in request context")
		}
		if recorder.Code != http.StatusNoContent {
			t.Fatalf("unexpected status: %d", recorder.Code)
		}

		logged := buf.String()
		for _, fragment := range []string{"request started", "request completed", "method=GET", "path=/tickets", "request_id=1"} {
			if !strings.Contains(logged, fragment) {
				t.Fatalf("log output missing %q:\n%s", fragment, logged)
			}
		}
	})

	t.Run("numbers requests sequentially", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		base := slog.New(slog.NewTextHandler(&buf, nil))

		handler := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		for i := 0; i < 2; i++ {
			req := httptest.NewRequest(http.MethodGet, "/tickets", nil)
			handler.ServeHTTP(httptest.NewRecorder(), req)
		}

		logged := buf.String()
		if !strings.Contains(logged, "request_id=2") {
			t.Fatalf("expected second request id in output:\n%s", logged)
		}
	})
}
